package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "b/B.class", "a/A.class", "a/readme.txt", "rules.hcl", "more/rules.yaml")

	classes, err := FindFilesByExtension(root, ".class")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a/A.class"),
		filepath.Join(root, "b/B.class"),
	}, classes)

	rules, err := FindFilesByExtension(root, ".hcl", ".yaml")
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestFindAllFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/A.class", "META-INF/MANIFEST.MF")

	files, err := FindAllFiles(root)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "nope"), ".class")
	require.Error(t, err)
}

func TestFindFilesByExtension_PanicsWithoutExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir()) })
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
}
