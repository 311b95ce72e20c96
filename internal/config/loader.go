package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/autoregister/internal/ctxlog"
	"github.com/vk/autoregister/internal/fsutil"
)

// Loader is the interface for a format-specific rule file loader.
type Loader interface {
	// Load reads the given files and returns their descriptors in order.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// MultiLoader dispatches each file to the Loader registered for its
// extension and merges the results in file order.
type MultiLoader struct {
	loaders map[string]Loader
}

// NewMultiLoader creates a MultiLoader. Keys are extensions including the
// dot, e.g. ".hcl".
func NewMultiLoader(loaders map[string]Loader) *MultiLoader {
	m := &MultiLoader{loaders: make(map[string]Loader, len(loaders))}
	for ext, l := range loaders {
		m.loaders[strings.ToLower(ext)] = l
	}
	return m
}

// Extensions returns the registered extensions, sorted.
func (m *MultiLoader) Extensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load implements Loader. Directories are expanded to every file with a
// registered extension below them.
func (m *MultiLoader) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &Model{}

	for _, p := range paths {
		files, err := m.ResolvePath(ctx, p)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			logger.Warn("No rule files found at the specified path.", "path", p)
			continue
		}
		for _, file := range files {
			loader := m.loaders[strings.ToLower(filepath.Ext(file))]
			part, err := loader.Load(ctx, file)
			if err != nil {
				return nil, fmt.Errorf("failed to load rule file '%s': %w", file, err)
			}
			logger.Debug("Loaded rule file.", "path", file, "descriptors", len(part.Descriptors))
			model.Merge(part)
		}
	}
	return model, nil
}

// ResolvePath returns the rule files at path. If path is a file, it must
// have a registered extension; if it is a directory, it is searched
// recursively.
func (m *MultiLoader) ResolvePath(ctx context.Context, path string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving rules path.", "path", path)
	if len(m.loaders) == 0 {
		return nil, fmt.Errorf("no rule file loaders registered")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("rules path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if info.IsDir() {
		return fsutil.FindFilesByExtension(path, m.Extensions()...)
	}
	if _, ok := m.loaders[strings.ToLower(filepath.Ext(path))]; !ok {
		return nil, fmt.Errorf("unsupported rule file %s, want one of %s", path, strings.Join(m.Extensions(), ", "))
	}
	return []string{path}, nil
}
