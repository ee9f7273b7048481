// Package pathcache maps the bare class and trigger names used in coverage
// payloads to the files that define them.
package pathcache

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Extensions lists the source file extensions that are indexed.
var Extensions = []string{".cls", ".trigger"}

// Cache is an immutable name -> repo-relative path lookup.
type Cache struct {
	paths map[string]string
}

type found struct {
	name string
	path string
}

// Build scans every source root (relative roots are resolved against
// repoRoot) and indexes each class or trigger file under its full file name
// and its extension-less stem. The first path found for a key wins.
//
// Roots are scanned in the given order. Subdirectories are listed concurrently
// but merged in directory-listing order, so the same tree always produces the
// same cache. Missing roots and unreadable entries are skipped.
func Build(fs afero.Fs, repoRoot string, sourceRoots []string) *Cache {
	c := &Cache{paths: make(map[string]string)}
	for _, root := range sourceRoots {
		dir := root
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(repoRoot, dir)
		}
		if ok, err := afero.DirExists(fs, dir); err != nil || !ok {
			slog.Debug("Source root not found, skipping.", "root", root)
			continue
		}
		for _, f := range scanDir(fs, dir) {
			c.add(f.name, relativeTo(repoRoot, f.path))
		}
	}
	return c
}

// FromMap builds a Cache from an existing lookup. Intended for callers that
// resolve paths by other means.
func FromMap(paths map[string]string) *Cache {
	c := &Cache{paths: make(map[string]string, len(paths))}
	for k, v := range paths {
		c.paths[k] = filepath.ToSlash(v)
	}
	return c
}

// Lookup returns the repo-relative path registered for name.
func (c *Cache) Lookup(name string) (string, bool) {
	p, ok := c.paths[name]
	return p, ok
}

// Len returns the number of keys in the cache.
func (c *Cache) Len() int { return len(c.paths) }

func (c *Cache) add(fileName, relPath string) {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	for _, key := range []string{fileName, stem} {
		if _, exists := c.paths[key]; !exists {
			c.paths[key] = relPath
		}
	}
}

// scanDir returns the indexed files below dir in walk order. Each
// subdirectory is scanned in its own goroutine into its own slot, so there is
// no shared state to guard.
func scanDir(fs afero.Fs, dir string) []found {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		slog.Debug("Could not read directory, skipping.", "dir", dir, "error", err)
		return nil
	}

	slots := make([][]found, len(entries))
	var g errgroup.Group
	for i, entry := range entries {
		i := i
		full := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			g.Go(func() error {
				slots[i] = scanDir(fs, full)
				return nil
			})
		case entry.Mode().IsRegular() && hasIndexedExtension(entry.Name()):
			slots[i] = []found{{name: entry.Name(), path: full}}
		}
	}
	_ = g.Wait()

	var out []found
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}

func hasIndexedExtension(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
