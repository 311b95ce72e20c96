package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nameLoader yields one descriptor per file, naming the file.
type nameLoader struct{}

func (nameLoader) Load(_ context.Context, paths ...string) (*Model, error) {
	m := &Model{}
	for _, p := range paths {
		m.Descriptors = append(m.Descriptors, Descriptor{KeyScanInterface: filepath.Base(p)})
	}
	return m, nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestMultiLoader_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.hcl"))
	touch(t, filepath.Join(dir, "nested", "a.yaml"))
	touch(t, filepath.Join(dir, "notes.txt"))
	single := filepath.Join(t.TempDir(), "z.hcl")
	touch(t, single)

	l := NewMultiLoader(map[string]Loader{".hcl": nameLoader{}, ".yaml": nameLoader{}})
	assert.Equal(t, []string{".hcl", ".yaml"}, l.Extensions())

	m, err := l.Load(context.Background(), dir, single)
	require.NoError(t, err)

	var names []string
	for _, d := range m.Descriptors {
		names = append(names, d[KeyScanInterface].(string))
	}
	assert.Equal(t, []string{"b.hcl", "a.yaml", "z.hcl"}, names)
}

func TestMultiLoader_Errors(t *testing.T) {
	l := NewMultiLoader(map[string]Loader{".hcl": nameLoader{}})

	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "rules path not found")

	txt := filepath.Join(t.TempDir(), "rules.txt")
	touch(t, txt)
	_, err = l.Load(context.Background(), txt)
	require.ErrorContains(t, err, "unsupported rule file")
}
