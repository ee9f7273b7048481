// Package reportconfig holds the settings of one conversion run and reads the
// Salesforce DX project manifest they are derived from.
package reportconfig

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/IgorBayerl/sfcov/internal/logging"
	"github.com/IgorBayerl/sfcov/internal/utils"
)

// ErrNoPackageDirectories is returned for manifests without packageDirectories.
var ErrNoPackageDirectories = errors.New("sfdx-project.json lists no packageDirectories")

// validate caches struct metadata across calls.
var validate = validator.New()

// ReportConfiguration is the configuration of one conversion run.
type ReportConfiguration struct {
	CoverageJSON             string `validate:"required"`
	OutputPath               string `validate:"required"`
	Format                   string `validate:"required"`
	RepoRoot                 string `validate:"required"`
	IgnorePackageDirectories []string
	ClassFilters             []string
	Verbosity                string `validate:"omitempty,oneof=verbose info warning error off Verbose Info Warning Error Off"`

	// SourceRoots is filled by Resolve from the project manifest.
	SourceRoots []string
}

// Validate checks the required settings.
func (c *ReportConfiguration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// VerbosityLevel returns the parsed verbosity, Info when unset.
func (c *ReportConfiguration) VerbosityLevel() (logging.VerbosityLevel, error) {
	if c.Verbosity == "" {
		return logging.Info, nil
	}
	return logging.ParseVerbosity(c.Verbosity)
}

// Resolve fills SourceRoots from the manifest in RepoRoot, minus the ignored
// package directories.
func (c *ReportConfiguration) Resolve(fs afero.Fs) error {
	dirs, err := LoadProject(fs, c.RepoRoot)
	if err != nil {
		return err
	}
	roots, err := SourceRoots(dirs, c.IgnorePackageDirectories)
	if err != nil {
		return err
	}
	c.SourceRoots = roots
	return nil
}

// PackageDirectory is one entry of the manifest's packageDirectories.
type PackageDirectory struct {
	Path    string `mapstructure:"path"`
	Default bool   `mapstructure:"default"`
}

// Project is the subset of sfdx-project.json that is read.
type Project struct {
	PackageDirectories []PackageDirectory `mapstructure:"packageDirectories"`
	SourceAPIVersion   string             `mapstructure:"sourceApiVersion"`
}

// LoadProject reads sfdx-project.json from repoRoot and returns its package
// directory paths in manifest order.
func LoadProject(fs afero.Fs, repoRoot string) ([]string, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(filepath.Join(repoRoot, utils.ProjectManifest))
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", utils.ProjectManifest, err)
	}

	var project Project
	if err := v.Unmarshal(&project); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", utils.ProjectManifest, err)
	}

	var dirs []string
	for _, pd := range project.PackageDirectories {
		if pd.Path == "" {
			continue
		}
		dirs = append(dirs, utils.CleanSlashPath(pd.Path))
	}
	if len(dirs) == 0 {
		return nil, ErrNoPackageDirectories
	}
	return dirs, nil
}

// SourceRoots drops every package directory matched by one of the ignore
// patterns. Patterns use doublestar syntax; a plain path matches itself.
func SourceRoots(packageDirs, ignore []string) ([]string, error) {
	patterns := make([]string, 0, len(ignore))
	for _, p := range ignore {
		p = utils.CleanSlashPath(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
		patterns = append(patterns, p)
	}

	roots := []string{}
	for _, dir := range packageDirs {
		dir = utils.CleanSlashPath(dir)
		if matchesAny(patterns, dir) {
			continue
		}
		roots = append(roots, dir)
	}
	return roots, nil
}

func matchesAny(patterns []string, dir string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, dir); ok {
			return true
		}
	}
	return false
}
