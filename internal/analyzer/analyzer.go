// Package analyzer converts a decoded coverage payload into a finished report:
// it resolves each record to a source file, repairs out-of-range lines for
// deploy payloads and feeds the result to the selected format handler.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/IgorBayerl/sfcov/internal/filereader"
	"github.com/IgorBayerl/sfcov/internal/formatter"
	"github.com/IgorBayerl/sfcov/internal/model"
	"github.com/IgorBayerl/sfcov/internal/parser"
	"github.com/IgorBayerl/sfcov/internal/parser/filtering"
	"github.com/IgorBayerl/sfcov/internal/pathcache"
	"github.com/IgorBayerl/sfcov/internal/reporter"
)

var (
	// ErrFileUnresolved marks a record whose name is not in the path cache.
	ErrFileUnresolved = errors.New("not found in any source root")
	// ErrSourceFileUnreadable marks a resolved file whose lines could not be counted.
	ErrSourceFileUnreadable = errors.New("source file unreadable")
)

// MaxConcurrency caps the number of records processed at once.
const MaxConcurrency = 6

// EmptyResultWarning is reported when no record produced a file.
const EmptyResultWarning = "None of the files listed in the coverage JSON were processed. The coverage report will be empty."

// Options configures a conversion run.
type Options struct {
	// Fs is the filesystem source roots are scanned on. Defaults to the OS filesystem.
	Fs afero.Fs
	// RepoRoot anchors relative source roots and the paths written to reports.
	RepoRoot string
	// SourceRoots are the directories scanned for .cls and .trigger files.
	SourceRoots []string
	// Format is the registry name of the report format.
	Format string
	// Registry supplies the format handler. Required.
	Registry *formatter.Registry
	// Filter drops records by class name. Nil includes everything.
	Filter filtering.Filter
	// Reader counts source lines. Defaults to a reader over Fs.
	Reader filereader.FileReader
	// Cache overrides the path cache built from SourceRoots.
	Cache *pathcache.Cache
	// Concurrency bounds parallel record processing. Zero means DefaultConcurrency.
	Concurrency int
}

// Result is the outcome of a conversion run.
type Result struct {
	Document       formatter.Document
	Text           string
	Extension      string
	Warnings       []string
	FilesProcessed int
	Shape          model.Shape
}

// DefaultConcurrency returns min(NumCPU, MaxConcurrency).
func DefaultConcurrency() int {
	return min(runtime.NumCPU(), MaxConcurrency)
}

// record is a payload entry reduced to what the pipeline needs.
type record struct {
	name  string
	lines map[string]int
	remap bool
	// err is set for entries the parser rejected.
	err   error
}

// AnalyzeJSON decodes raw coverage JSON and converts it.
func AnalyzeJSON(ctx context.Context, raw []byte, opts Options) (*Result, error) {
	payload, err := parser.Decode(raw)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, payload, opts)
}

// Analyze converts payload into the report format named by opts.Format.
//
// Only an unrecognized payload, an unknown format or a cancelled context fail
// the run. Problems with individual records are returned in Result.Warnings
// and the record is skipped; reporting them to the user is left to the caller.
func Analyze(ctx context.Context, payload *model.Payload, opts Options) (*Result, error) {
	if payload == nil || payload.Shape == model.ShapeUnknown {
		return nil, parser.ErrUnrecognizedInputShape
	}
	if opts.Registry == nil {
		return nil, errors.New("analyzer: no format registry configured")
	}
	handler, err := opts.Registry.Get(opts.Format)
	if err != nil {
		return nil, err
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	reader := opts.Reader
	if reader == nil {
		reader = filereader.New(fs)
	}
	cache := opts.Cache
	if cache == nil {
		cache = pathcache.Build(fs, opts.RepoRoot, opts.SourceRoots)
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency()
	}

	p := &pipeline{
		handler:  handler,
		cache:    cache,
		reader:   reader,
		filter:   opts.Filter,
		repoRoot: opts.RepoRoot,
	}

	records := recordsOf(payload)
	warnings := make([]string, len(records))
	var processed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := p.process(rec)
			if err != nil {
				slog.Debug("Skipping coverage record.", "name", rec.name, "error", err)
				warnings[i] = err.Error()
				return nil
			}
			if ok {
				processed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Shape:          payload.Shape,
		FilesProcessed: int(processed.Load()),
		Warnings:       []string{},
	}
	for _, w := range warnings {
		if w != "" {
			result.Warnings = append(result.Warnings, w)
		}
	}
	if result.FilesProcessed == 0 {
		slog.Debug(EmptyResultWarning)
		result.Warnings = append(result.Warnings, EmptyResultWarning)
	}

	result.Document = handler.Finalize()
	serializer := reporter.New(opts.Registry)
	text, err := serializer.Serialize(result.Document)
	if err != nil {
		return nil, fmt.Errorf("serializing %s report: %w", opts.Format, err)
	}
	result.Text = string(text)
	result.Extension = serializer.ExtensionFor(opts.Format)
	return result, nil
}

type pipeline struct {
	handler  formatter.Handler
	cache    *pathcache.Cache
	reader   filereader.FileReader
	filter   filtering.Filter
	repoRoot string
}

// process converts one record. It reports false without error for records
// excluded by the class filter.
func (p *pipeline) process(rec record) (bool, error) {
	if p.filter != nil && !p.filter.Includes(rec.name) {
		slog.Info("Excluded by class filter.", "name", rec.name)
		return false, nil
	}
	if rec.err != nil {
		return false, fmt.Errorf("%s: %w", rec.name, rec.err)
	}

	relPath, ok := p.cache.Lookup(rec.name)
	if !ok {
		return false, fmt.Errorf("the file name %s was %w", rec.name, ErrFileUnresolved)
	}

	lines, err := lineMap(rec.lines)
	if err != nil {
		return false, fmt.Errorf("%s: %w", rec.name, err)
	}

	if rec.remap {
		count, err := p.reader.CountLines(filepath.Join(p.repoRoot, filepath.FromSlash(relPath)))
		if err != nil {
			return false, fmt.Errorf("%s: %w: %v", relPath, ErrSourceFileUnreadable, err)
		}
		lines = SetCoveredLines(count, lines)
	}

	file := model.ResolvedFile{RelativePath: relPath, DisplayName: rec.name, Lines: lines}
	if err := p.handler.ProcessFile(file.RelativePath, file.DisplayName, file.Lines); err != nil {
		return false, fmt.Errorf("%s: %w", rec.name, err)
	}
	return true, nil
}

// recordsOf flattens a payload in a stable order: test runs as listed, deploy
// entries by key, then the rejected entries.
func recordsOf(payload *model.Payload) []record {
	out := decodedRecords(payload)
	for _, r := range payload.Rejected {
		name := r.Name
		if payload.Shape == model.ShapePerDeploy {
			name = DeployName(name)
		}
		out = append(out, record{name: name, err: r.Err})
	}
	return out
}

func decodedRecords(payload *model.Payload) []record {
	switch payload.Shape {
	case model.ShapePerTestRun:
		out := make([]record, 0, len(payload.TestRuns))
		for _, tr := range payload.TestRuns {
			out = append(out, record{name: tr.Name, lines: tr.Lines})
		}
		return out
	case model.ShapePerDeploy:
		keys := make([]string, 0, len(payload.Deploy))
		for k := range payload.Deploy {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]record, 0, len(keys))
		for _, k := range keys {
			// Statement ids double as line numbers.
			out = append(out, record{name: DeployName(k), lines: payload.Deploy[k].S, remap: true})
		}
		return out
	}
	return nil
}

// DeployName returns the class name of a deploy payload key, e.g.
// "no-map/AccountHandler" -> "AccountHandler".
func DeployName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// lineMap converts string line keys to ints.
func lineMap(raw map[string]int) (map[int]int, error) {
	out := make(map[int]int, len(raw))
	for k, hits := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("%w: line key %q is not a number", formatter.ErrInvalidInput, k)
		}
		out[n] = hits
	}
	return out, nil
}
