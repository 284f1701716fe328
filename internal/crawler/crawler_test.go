package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupCrate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "Cargo.toml", "[package]\nname = \"demo\"\nversion = \"0.3.1\"\nedition = \"2021\"\n")
	writeFile(t, root, "src/main.rs", "fn main() {}\n")
	writeFile(t, root, "src/lib.rs", "pub fn lib() {}\n")
	writeFile(t, root, "src/util/mod.rs", "pub fn util() {}\n")
	writeFile(t, root, "tests/integration.rs", "fn check() {}\n")
	writeFile(t, root, "target/debug/build.rs", "fn generated() {}\n")
	writeFile(t, root, "README.md", "# demo\n")
	writeFile(t, root, "src/generated.rs", "fn gen() {}\n")
	writeFile(t, root, ".gitignore", "src/generated.rs\n")
	return root
}

func TestDiscover(t *testing.T) {
	root := setupCrate(t)

	files, err := New(Options{}).Discover(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("src", "lib.rs"),
		filepath.Join("src", "main.rs"),
		filepath.Join("src", "util", "mod.rs"),
		filepath.Join("tests", "integration.rs"),
	}, files)

	t.Run("Skips Target Dir", func(t *testing.T) {
		assert.NotContains(t, files, filepath.Join("target", "debug", "build.rs"))
	})

	t.Run("Honors Gitignore", func(t *testing.T) {
		assert.NotContains(t, files, filepath.Join("src", "generated.rs"))
	})
}

func TestDiscoverGlobs(t *testing.T) {
	root := setupCrate(t)

	t.Run("Include", func(t *testing.T) {
		files, err := New(Options{Include: []string{"src/**/*.rs"}}).Discover(root)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join("src", "lib.rs"),
			filepath.Join("src", "main.rs"),
			filepath.Join("src", "util", "mod.rs"),
		}, files)
	})

	t.Run("Exclude", func(t *testing.T) {
		files, err := New(Options{Exclude: []string{"tests/**"}}).Discover(root)
		require.NoError(t, err)
		assert.NotContains(t, files, filepath.Join("tests", "integration.rs"))
		assert.Contains(t, files, filepath.Join("src", "main.rs"))
	})
}

func TestReadManifest(t *testing.T) {
	root := setupCrate(t)

	m := ReadManifest(root)
	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, "0.3.1", m.Version)
	assert.Equal(t, "2021", m.Edition)
}

func TestReadManifestFallback(t *testing.T) {
	root := t.TempDir()

	m := ReadManifest(root)
	assert.Equal(t, filepath.Base(root), m.Name)
	assert.Empty(t, m.Edition)
}
