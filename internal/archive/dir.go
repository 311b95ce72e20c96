package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/autoregister/internal/fsutil"
)

// DirSource reads units from a directory tree.
type DirSource struct {
	root string
}

// OpenDir opens root, which must be an existing directory.
func OpenDir(root string) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrUnsupported, root)
	}
	return &DirSource{root: root}, nil
}

// Walk implements Source. Files are visited in lexical path order.
func (s *DirSource) Walk(ctx context.Context, fn func(Unit) error) error {
	files, err := fsutil.FindAllFiles(s.root)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", s.root, err)
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, file)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if err := fn(Unit{Path: filepath.ToSlash(rel), Data: data}); err != nil {
			return err
		}
	}
	return nil
}

// Close implements Source.
func (s *DirSource) Close() error { return nil }

// DirSink writes units below a root directory.
type DirSink struct {
	root string
}

// CreateDir creates root if needed.
func CreateDir(root string) (*DirSink, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DirSink{root: root}, nil
}

// Put implements Sink.
func (s *DirSink) Put(u Unit) error {
	target := filepath.Join(s.root, filepath.FromSlash(u.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, u.Data, 0o644)
}

// Close implements Sink.
func (s *DirSink) Close() error { return nil }
