package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorBayerl/sfcov/internal/formatter/builtin"
	"github.com/IgorBayerl/sfcov/internal/reportconfig"
)

func newProject(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/repo/sfdx-project.json":                    `{"packageDirectories":[{"path":"force-app","default":true}]}`,
		"/repo/force-app/classes/AccountHandler.cls": "public class AccountHandler {\n}\n",
		"/repo/force-app/classes/AccountTest.cls":    "@IsTest\nclass AccountTest {}\n",
		"/repo/coverage.json": `[` +
			`{"id":"1","name":"AccountHandler","totalLines":3,"lines":{"1":1,"2":0,"3":1},"totalCovered":2,"coveredPercent":66.67},` +
			`{"id":"2","name":"AccountTest","totalLines":1,"lines":{"1":1},"totalCovered":1,"coveredPercent":100}]`,
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestGenerate_WritesReport(t *testing.T) {
	fs := newProject(t)
	cfg := &reportconfig.ReportConfiguration{
		CoverageJSON: "/repo/coverage.json",
		OutputPath:   "/repo/out/coverage",
		Format:       "lcovonly",
		RepoRoot:     "/repo",
		ClassFilters: []string{"-*Test"},
	}
	require.NoError(t, cfg.Resolve(fs))

	registry := builtin.NewRegistry(func() time.Time { return time.Unix(0, 0) })
	outcome, err := NewReportContext(cfg, registry, fs).Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/repo/out/coverage.info", outcome.OutputFile)
	assert.Equal(t, 1, outcome.FilesProcessed)
	assert.Empty(t, outcome.Warnings)

	written, err := afero.ReadFile(fs, "/repo/out/coverage.info")
	require.NoError(t, err)
	assert.Equal(t, outcome.Text, string(written))
	assert.Contains(t, string(written), "SF:force-app/classes/AccountHandler.cls\n")
	assert.NotContains(t, string(written), "AccountTest")
}

func TestGenerate_Errors(t *testing.T) {
	registry := builtin.NewRegistry(nil)

	t.Run("missing coverage file", func(t *testing.T) {
		cfg := &reportconfig.ReportConfiguration{CoverageJSON: "/nope.json", OutputPath: "out.xml", Format: "sonar", RepoRoot: "/repo"}
		_, err := NewReportContext(cfg, registry, afero.NewMemMapFs()).Generate(context.Background())
		assert.Error(t, err)
	})

	t.Run("bad class filter", func(t *testing.T) {
		cfg := &reportconfig.ReportConfiguration{CoverageJSON: "/repo/coverage.json", OutputPath: "out.xml", Format: "sonar", RepoRoot: "/repo", ClassFilters: []string{"Account"}}
		_, err := NewReportContext(cfg, registry, newProject(t)).Generate(context.Background())
		assert.Error(t, err)
	})
}

func TestOutputFile(t *testing.T) {
	assert.Equal(t, "coverage.info", OutputFile("coverage", ".info"))
	assert.Equal(t, "coverage.xml", OutputFile("coverage.xml", ".json"))
	assert.Equal(t, "out/report.html", OutputFile("out/report", ".html"))
}
