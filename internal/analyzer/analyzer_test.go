package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorBayerl/sfcov/internal/formatter"
	"github.com/IgorBayerl/sfcov/internal/formatter/builtin"
	"github.com/IgorBayerl/sfcov/internal/formatter/simplecov"
	"github.com/IgorBayerl/sfcov/internal/formatter/sonar"
	"github.com/IgorBayerl/sfcov/internal/model"
	"github.com/IgorBayerl/sfcov/internal/parser"
	"github.com/IgorBayerl/sfcov/internal/pathcache"
)

const accountHandlerRun = `[{"id":"1","name":"AccountHandler","totalLines":3,"lines":{"1":1,"2":0,"3":1},"totalCovered":2,"coveredPercent":66.67}]`

var frozen = formatter.Clock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) })

// MockFileReader is a FileReader returning canned line counts.
type MockFileReader struct {
	Counts map[string]int
	Err    error
}

func (m *MockFileReader) CountLines(path string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	n, ok := m.Counts[path]
	if !ok {
		return 0, fmt.Errorf("no such file %q", path)
	}
	return n, nil
}

// MockFilter excludes the listed names.
type MockFilter struct {
	Excluded map[string]bool
}

func (m *MockFilter) Includes(name string) bool { return !m.Excluded[name] }
func (m *MockFilter) HasCustomFilters() bool    { return len(m.Excluded) > 0 }

func newRepo(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func baseOptions(fs afero.Fs, format string) Options {
	return Options{
		Fs:          fs,
		RepoRoot:    "/repo",
		SourceRoots: []string{"force-app"},
		Format:      format,
		Registry:    builtin.NewRegistry(frozen),
	}
}

func TestAnalyzeJSON_TestRunToSonar(t *testing.T) {
	fs := newRepo(t, map[string]string{
		"/repo/force-app/classes/AccountHandler.cls": "public class AccountHandler {\n}\n",
	})

	result, err := AnalyzeJSON(context.Background(), []byte(accountHandlerRun), baseOptions(fs, sonar.Name))
	require.NoError(t, err)

	assert.Equal(t, model.ShapePerTestRun, result.Shape)
	assert.Equal(t, 1, result.FilesProcessed)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, ".xml", result.Extension)

	doc, ok := result.Document.(*sonar.Coverage)
	require.True(t, ok, "document is %T", result.Document)
	require.Len(t, doc.Files, 1)
	assert.True(t, strings.HasSuffix(doc.Files[0].Path, "AccountHandler.cls"))
	assert.Equal(t, []sonar.LineToCover{
		{LineNumber: 1, Covered: true},
		{LineNumber: 2, Covered: false},
		{LineNumber: 3, Covered: true},
	}, doc.Files[0].Lines)

	assert.Contains(t, result.Text, `<file path="force-app/classes/AccountHandler.cls">`)
	assert.Contains(t, result.Text, `<lineToCover lineNumber="2" covered="false"/>`)
}

func TestAnalyzeJSON_UnresolvedFileWarns(t *testing.T) {
	fs := newRepo(t, map[string]string{
		"/repo/force-app/classes/AccountHandler.cls": "public class AccountHandler {}\n",
	})
	opts := baseOptions(fs, sonar.Name)
	opts.SourceRoots = []string{}

	result, err := AnalyzeJSON(context.Background(), []byte(accountHandlerRun), opts)
	require.NoError(t, err)

	assert.Equal(t, 0, result.FilesProcessed)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "AccountHandler")
	assert.Contains(t, result.Warnings[0], ErrFileUnresolved.Error())
	assert.Equal(t, EmptyResultWarning, result.Warnings[1])

	doc := result.Document.(*sonar.Coverage)
	assert.Empty(t, doc.Files)
}

func TestAnalyzeJSON_DeployPayloadRemapsLines(t *testing.T) {
	fs := newRepo(t, map[string]string{
		"/repo/force-app/classes/Remapped.cls": "a\nb\nc\n",
	})
	raw := `{"no-map/Remapped":{"path":"no-map/Remapped","fnMap":{},"branchMap":{},"f":{},"b":{},` +
		`"s":{"1":1,"2":0,"7":3},` +
		`"statementMap":{` +
		`"1":{"start":{"line":1,"column":0},"end":{"line":1,"column":0}},` +
		`"2":{"start":{"line":2,"column":0},"end":{"line":2,"column":0}},` +
		`"7":{"start":{"line":7,"column":0},"end":{"line":7,"column":0}}}}}`

	result, err := AnalyzeJSON(context.Background(), []byte(raw), baseOptions(fs, sonar.Name))
	require.NoError(t, err)

	assert.Equal(t, model.ShapePerDeploy, result.Shape)
	assert.Equal(t, 1, result.FilesProcessed)
	doc := result.Document.(*sonar.Coverage)
	require.Len(t, doc.Files, 1)
	assert.Equal(t, "force-app/classes/Remapped.cls", doc.Files[0].Path)
	assert.Equal(t, []sonar.LineToCover{
		{LineNumber: 1, Covered: true},
		{LineNumber: 2, Covered: false},
		{LineNumber: 3, Covered: true},
	}, doc.Files[0].Lines)
}

func TestAnalyze_UnreadableSourceSkipsOnlyThatFile(t *testing.T) {
	payload := &model.Payload{
		Shape: model.ShapePerDeploy,
		Deploy: map[string]model.DeployRecord{
			"no-map/Good": {S: map[string]int{"1": 1}},
			"no-map/Bad":  {S: map[string]int{"1": 1}},
		},
	}
	opts := baseOptions(afero.NewMemMapFs(), sonar.Name)
	opts.Cache = pathcache.FromMap(map[string]string{
		"Good": "force-app/classes/Good.cls",
		"Bad":  "force-app/classes/Bad.cls",
	})
	opts.Reader = &MockFileReader{Counts: map[string]int{"/repo/force-app/classes/Good.cls": 4}}

	result, err := Analyze(context.Background(), payload, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesProcessed)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Bad.cls")
	assert.Contains(t, result.Warnings[0], ErrSourceFileUnreadable.Error())
}

func TestAnalyze_InvalidLineKey(t *testing.T) {
	payload := &model.Payload{
		Shape: model.ShapePerTestRun,
		TestRuns: []model.TestRunRecord{
			{ID: "1", Name: "Broken", Lines: map[string]int{"one": 1}},
		},
	}
	opts := baseOptions(afero.NewMemMapFs(), sonar.Name)
	opts.Cache = pathcache.FromMap(map[string]string{"Broken": "force-app/classes/Broken.cls"})

	result, err := Analyze(context.Background(), payload, opts)
	require.NoError(t, err)

	assert.Equal(t, 0, result.FilesProcessed)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "Broken")
	assert.Contains(t, result.Warnings[0], "is not a number")
}

func TestAnalyzeJSON_MalformedRecordSkipsOnlyThatRecord(t *testing.T) {
	testCases := []struct {
		name string
		json string
	}{
		{
			name: "deploy",
			json: `{
  "no-map/Good": {"path":"no-map/Good","fnMap":{},"branchMap":{},"f":{},"b":{},"s":{"1":1},"statementMap":{}},
  "no-map/Bad": {"path":"no-map/Bad","fnMap":{},"branchMap":{},"f":{},"b":{},"s":{"1":"oops"},"statementMap":{}}
}`,
		},
		{
			name: "test run",
			json: `[
  {"id":"1","name":"Good","totalLines":1,"lines":{"1":1},"totalCovered":1,"coveredPercent":100},
  {"id":"2","name":"Bad","totalLines":1,"lines":{"1":0.5},"totalCovered":0,"coveredPercent":0}
]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := newRepo(t, map[string]string{
				"/repo/force-app/classes/Good.cls": "public class Good {}\n",
				"/repo/force-app/classes/Bad.cls":  "public class Bad {}\n",
			})

			result, err := AnalyzeJSON(context.Background(), []byte(tc.json), baseOptions(fs, sonar.Name))
			require.NoError(t, err)

			assert.Equal(t, 1, result.FilesProcessed)
			require.Len(t, result.Warnings, 1)
			assert.Contains(t, result.Warnings[0], "Bad")
			assert.Contains(t, result.Warnings[0], parser.ErrMalformedRecord.Error())
			assert.Contains(t, result.Text, `path="force-app/classes/Good.cls"`)
		})
	}
}

func TestAnalyzeJSON_LineBeyondLimitWarns(t *testing.T) {
	fs := newRepo(t, map[string]string{
		"/repo/force-app/classes/Huge.cls": "public class Huge {}\n",
	})
	raw := `[{"id":"1","name":"Huge","totalLines":1,"lines":{"1125899906842624":1},"totalCovered":1,"coveredPercent":100}]`

	result, err := AnalyzeJSON(context.Background(), []byte(raw), baseOptions(fs, simplecov.Name))
	require.NoError(t, err)

	assert.Equal(t, 0, result.FilesProcessed)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], formatter.ErrInvalidInput.Error())
	assert.Equal(t, EmptyResultWarning, result.Warnings[1])
}

func TestAnalyze_RecordWarningsAreNotLoggedAtWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	opts := baseOptions(afero.NewMemMapFs(), sonar.Name)
	opts.SourceRoots = []string{}

	result, err := AnalyzeJSON(context.Background(), []byte(accountHandlerRun), opts)
	require.NoError(t, err)

	assert.Len(t, result.Warnings, 2)
	assert.Empty(t, buf.String())
}

func TestAnalyze_FilterExcludesSilently(t *testing.T) {
	payload := &model.Payload{
		Shape: model.ShapePerTestRun,
		TestRuns: []model.TestRunRecord{
			{ID: "1", Name: "Keep", Lines: map[string]int{"1": 1}},
			{ID: "2", Name: "KeepTest", Lines: map[string]int{"1": 1}},
		},
	}
	opts := baseOptions(afero.NewMemMapFs(), sonar.Name)
	opts.Cache = pathcache.FromMap(map[string]string{
		"Keep":     "force-app/classes/Keep.cls",
		"KeepTest": "force-app/classes/KeepTest.cls",
	})
	opts.Filter = &MockFilter{Excluded: map[string]bool{"KeepTest": true}}

	result, err := Analyze(context.Background(), payload, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesProcessed)
	assert.Empty(t, result.Warnings)
	doc := result.Document.(*sonar.Coverage)
	require.Len(t, doc.Files, 1)
	assert.Equal(t, "force-app/classes/Keep.cls", doc.Files[0].Path)
}

func TestAnalyze_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		format  string
		wantErr error
	}{
		{name: "unknown shape", raw: `42`, format: sonar.Name, wantErr: parser.ErrUnrecognizedInputShape},
		{name: "not json", raw: `{`, format: sonar.Name, wantErr: parser.ErrUnrecognizedInputShape},
		{name: "unknown format", raw: accountHandlerRun, format: "pdf", wantErr: formatter.ErrUnsupportedFormat},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AnalyzeJSON(context.Background(), []byte(tc.raw), baseOptions(afero.NewMemMapFs(), tc.format))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestAnalyze_MissingRegistry(t *testing.T) {
	payload := &model.Payload{Shape: model.ShapePerTestRun}
	_, err := Analyze(context.Background(), payload, Options{Format: sonar.Name})
	assert.Error(t, err)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyzeJSON(ctx, []byte(accountHandlerRun), baseOptions(afero.NewMemMapFs(), sonar.Name))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_ExtensionComesFromRegistry(t *testing.T) {
	fs := newRepo(t, map[string]string{
		"/repo/force-app/classes/AccountHandler.cls": "x\n",
	})
	for format, want := range map[string]string{
		"json-summary": ".json",
		"simplecov":    ".json",
		"lcovonly":     ".info",
		"html":         ".html",
		"cobertura":    ".xml",
	} {
		t.Run(format, func(t *testing.T) {
			result, err := AnalyzeJSON(context.Background(), []byte(accountHandlerRun), baseOptions(fs, format))
			require.NoError(t, err)
			assert.Equal(t, want, result.Extension)
			assert.NotEmpty(t, result.Text)
		})
	}
}

func TestAnalyze_OutputIndependentOfConcurrency(t *testing.T) {
	files := map[string]string{}
	var runs []string
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("Class%02d", i)
		files["/repo/force-app/classes/"+name+".cls"] = "a\nb\nc\n"
		runs = append(runs, fmt.Sprintf(`{"id":"%d","name":"%s","totalLines":3,"lines":{"1":1,"2":0,"3":%d},"totalCovered":1,"coveredPercent":50}`, i, name, i%2))
	}
	raw := []byte("[" + strings.Join(runs, ",") + "]")
	fs := newRepo(t, files)

	for _, format := range builtin.NewRegistry(frozen).AvailableFormats() {
		t.Run(format, func(t *testing.T) {
			serial := baseOptions(fs, format)
			serial.Concurrency = 1
			parallel := baseOptions(fs, format)
			parallel.Concurrency = MaxConcurrency

			a, err := AnalyzeJSON(context.Background(), raw, serial)
			require.NoError(t, err)
			b, err := AnalyzeJSON(context.Background(), raw, parallel)
			require.NoError(t, err)

			assert.Equal(t, 20, a.FilesProcessed)
			assert.Equal(t, a.Text, b.Text)
		})
	}
}

func TestDeployName(t *testing.T) {
	assert.Equal(t, "AccountHandler", DeployName("no-map/AccountHandler"))
	assert.Equal(t, "AccountHandler", DeployName("AccountHandler"))
	assert.Equal(t, "Trigger", DeployName("a/b/Trigger"))
}

func TestDefaultConcurrency(t *testing.T) {
	n := DefaultConcurrency()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, MaxConcurrency)
}
