package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(t *testing.T, root string) []string {
	t.Helper()
	ch, err := Scan(context.Background(), root)
	require.NoError(t, err)
	var paths []string
	for r := range ch {
		require.NoError(t, r.Err)
		paths = append(paths, r.File.Path)
	}
	sort.Strings(paths)
	return paths
}

func TestScanFindsIndexableFilesAndSkipsHardcodedDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.py"), "x = 1")
	writeFile(t, filepath.Join(dir, "node_modules", "pkg", "index.js"), "x")
	writeFile(t, filepath.Join(dir, ".git", "config"), "x")
	writeFile(t, filepath.Join(dir, "README.md"), "not indexable")

	paths := collect(t, dir)

	assert.Equal(t, []string{"app.py"}, paths)
}

func TestScanSkipsDotfilesAndDSStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".hidden.py"), "x")
	writeFile(t, filepath.Join(dir, ".DS_Store"), "x")
	writeFile(t, filepath.Join(dir, "main.ts"), "x")

	paths := collect(t, dir)

	assert.Equal(t, []string{"main.ts"}, paths)
}

func TestScanHonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "generated/\n*.gen.js\n")
	writeFile(t, filepath.Join(dir, "generated", "out.py"), "x")
	writeFile(t, filepath.Join(dir, "foo.gen.js"), "x")
	writeFile(t, filepath.Join(dir, "keep.py"), "x")

	paths := collect(t, dir)

	assert.Equal(t, []string{"keep.py"}, paths)
}

func TestScanDetectsAllSupportedLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "x")
	writeFile(t, filepath.Join(dir, "b.js"), "x")
	writeFile(t, filepath.Join(dir, "c.jsx"), "x")
	writeFile(t, filepath.Join(dir, "d.ts"), "x")
	writeFile(t, filepath.Join(dir, "e.tsx"), "x")

	paths := collect(t, dir)

	assert.Equal(t, []string{"a.py", "b.js", "c.jsx", "d.ts", "e.tsx"}, paths)
}
