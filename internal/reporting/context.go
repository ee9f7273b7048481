// Package reporting runs one conversion end to end: it reads the coverage
// JSON named by the configuration, converts it and writes the report.
package reporting

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/IgorBayerl/sfcov/internal/analyzer"
	"github.com/IgorBayerl/sfcov/internal/formatter"
	"github.com/IgorBayerl/sfcov/internal/parser/filtering"
	"github.com/IgorBayerl/sfcov/internal/reportconfig"
)

// ReportContext bundles what a run needs.
type ReportContext struct {
	Cfg      *reportconfig.ReportConfiguration
	Registry *formatter.Registry
	Fs       afero.Fs
}

// Outcome is the result of a run.
type Outcome struct {
	*analyzer.Result
	// OutputFile is the path the report was written to.
	OutputFile string
}

// NewReportContext creates a new ReportContext.
func NewReportContext(cfg *reportconfig.ReportConfiguration, registry *formatter.Registry, fs afero.Fs) *ReportContext {
	return &ReportContext{Cfg: cfg, Registry: registry, Fs: fs}
}

// Generate converts Cfg.CoverageJSON and writes the report. Per-record
// problems end up in Outcome.Warnings; the report is written regardless.
func (rc *ReportContext) Generate(ctx context.Context) (*Outcome, error) {
	raw, err := afero.ReadFile(rc.Fs, rc.Cfg.CoverageJSON)
	if err != nil {
		return nil, fmt.Errorf("reading coverage JSON: %w", err)
	}

	filter, err := filtering.New(rc.Cfg.ClassFilters)
	if err != nil {
		return nil, err
	}

	result, err := analyzer.AnalyzeJSON(ctx, raw, analyzer.Options{
		Fs:          rc.Fs,
		RepoRoot:    rc.Cfg.RepoRoot,
		SourceRoots: rc.Cfg.SourceRoots,
		Format:      rc.Cfg.Format,
		Registry:    rc.Registry,
		Filter:      filter,
	})
	if err != nil {
		return nil, err
	}

	out := OutputFile(rc.Cfg.OutputPath, result.Extension)
	if dir := filepath.Dir(out); dir != "." {
		if err := rc.Fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := afero.WriteFile(rc.Fs, out, []byte(result.Text), 0o644); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	return &Outcome{Result: result, OutputFile: out}, nil
}

// OutputFile appends ext to path when path has no extension.
func OutputFile(path, ext string) string {
	if filepath.Ext(path) != "" {
		return path
	}
	return path + ext
}
