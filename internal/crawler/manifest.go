package crawler

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the crate identity read from Cargo.toml.
type Manifest struct {
	Name    string
	Version string
	Edition string
}

type cargoFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Edition string `toml:"edition"`
	} `toml:"package"`
	Workspace struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// ReadManifest parses the crate's Cargo.toml. A missing or unparsable
// manifest falls back to the directory name so analysis can proceed on
// bare source trees.
func ReadManifest(root string) Manifest {
	fallback := Manifest{Name: filepath.Base(absOrSelf(root))}

	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return fallback
	}
	var cargo cargoFile
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return fallback
	}
	if cargo.Package.Name == "" {
		return fallback
	}
	return Manifest{
		Name:    cargo.Package.Name,
		Version: cargo.Package.Version,
		Edition: cargo.Package.Edition,
	}
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
