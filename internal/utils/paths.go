package utils

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ProjectManifest is the file that marks the root of a Salesforce DX project.
const ProjectManifest = "sfdx-project.json"

// ErrRepoRootNotFound is returned when no parent directory holds the manifest.
var ErrRepoRootNotFound = errors.New("could not find repository root (no " + ProjectManifest + " in parent directories)")

// FindRepoRoot walks up from start until it finds a directory containing
// sfdx-project.json.
func FindRepoRoot(fs afero.Fs, start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", start, err)
	}

	for {
		if ok, _ := afero.Exists(fs, filepath.Join(dir, ProjectManifest)); ok {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRepoRootNotFound
		}
		dir = parent
	}
}

// CleanSlashPath normalizes a manifest or user supplied directory to a clean,
// forward-slash, relative form: "./force-app/" -> "force-app".
func CleanSlashPath(p string) string {
	p = path.Clean(filepath.ToSlash(strings.TrimSpace(p)))
	return strings.TrimPrefix(p, "./")
}
