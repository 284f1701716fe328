package crawler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// Options narrow discovery with doublestar globs, matched against paths
// relative to the scanned root. Empty Include keeps every Rust file.
type Options struct {
	Include []string
	Exclude []string
}

// Crawler finds the Rust source files of a project, honoring .gitignore
// and the configured globs.
type Crawler struct {
	opts    Options
	ignored map[string]struct{}
}

func New(opts Options) *Crawler {
	return &Crawler{
		opts: opts,
		ignored: map[string]struct{}{
			".git":         {},
			"target":       {},
			"vendor":       {},
			"node_modules": {},
		},
	}
}

// Discover walks root and returns the matching .rs files as sorted
// root-relative paths.
func (c *Crawler) Discover(root string) ([]string, error) {
	gi := loadGitignore(root)

	var results []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := c.ignored[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !strings.HasSuffix(name, ".rs") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if !c.matches(rel) {
			return nil
		}

		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(results)
	return results, nil
}

func (c *Crawler) matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.opts.Exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return false
		}
	}
	if len(c.opts.Include) == 0 {
		return true
	}
	for _, pattern := range c.opts.Include {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
