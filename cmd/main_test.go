package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgorBayerl/sfcov/internal/formatter/builtin"
)

const coverageJSON = `[{"id":"1","name":"AccountHandler","totalLines":3,"lines":{"1":1,"2":0,"3":1},"totalCovered":2,"coveredPercent":66.67},` +
	`{"id":"2","name":"Missing","totalLines":1,"lines":{"1":1},"totalCovered":1,"coveredPercent":100}]`

func newTestApp(t *testing.T) *app {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range map[string]string{
		"/repo/sfdx-project.json":                    `{"packageDirectories":[{"path":"force-app"},{"path":"legacy"}]}`,
		"/repo/force-app/classes/AccountHandler.cls": "public class AccountHandler {\n}\n",
		"/repo/legacy/classes/Missing.cls":           "public class Missing {}\n",
		"/repo/coverage/coverage.json":               coverageJSON,
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return &app{
		fs:       fs,
		registry: builtin.NewRegistry(func() time.Time { return time.Unix(1700000000, 0) }),
		v:        viper.New(),
		getwd:    func() (string, error) { return "/repo/force-app/classes", nil },
	}
}

func run(t *testing.T, a *app, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestConvert_WritesReportWithRegistryExtension(t *testing.T) {
	a := newTestApp(t)

	stdout, stderr, err := run(t, a, "convert", "-j", "/repo/coverage/coverage.json", "-f", "cobertura", "-o", "/repo/out/cobertura")
	require.NoError(t, err)

	assert.Contains(t, stdout, "/repo/out/cobertura.xml")
	assert.Contains(t, stdout, "(2 files)")
	assert.Empty(t, stderr)

	report, err := afero.ReadFile(a.fs, "/repo/out/cobertura.xml")
	require.NoError(t, err)
	assert.Contains(t, string(report), `<!DOCTYPE coverage`)
	assert.Contains(t, string(report), `filename="force-app/classes/AccountHandler.cls"`)
}

func TestConvert_IgnoredPackageDirectoryWarns(t *testing.T) {
	a := newTestApp(t)

	stdout, stderr, err := run(t, a, "convert",
		"-j", "/repo/coverage/coverage.json",
		"-f", "lcovonly",
		"-o", "/repo/out/lcov",
		"-i", "legacy",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "/repo/out/lcov.info")
	assert.Contains(t, stdout, "(1 files)")
	assert.Contains(t, stderr, "Warning: the file name Missing was not found in any source root")

	report, err := afero.ReadFile(a.fs, "/repo/out/lcov.info")
	require.NoError(t, err)
	assert.Contains(t, string(report), "SF:force-app/classes/AccountHandler.cls\n")
	assert.NotContains(t, string(report), "Missing")
}

func TestConvert_FormatFromEnvironment(t *testing.T) {
	t.Setenv("SFCOV_FORMAT", "json-summary")
	a := newTestApp(t)

	_, _, err := run(t, a, "convert", "-j", "/repo/coverage/coverage.json", "-o", "/repo/out/summary")
	require.NoError(t, err)

	exists, err := afero.Exists(a.fs, "/repo/out/summary.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestConvert_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "missing coverage json", args: []string{"convert", "-f", "sonar"}},
		{name: "unknown format", args: []string{"convert", "-j", "/repo/coverage/coverage.json", "-f", "pdf"}},
		{name: "bad verbosity", args: []string{"convert", "-j", "/repo/coverage/coverage.json", "--verbosity", "loud"}},
		{name: "bad class filter", args: []string{"convert", "-j", "/repo/coverage/coverage.json", "--class-filters", "Account"}},
		{name: "positional argument", args: []string{"convert", "extra"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, newTestApp(t), tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestConvert_RepoRootNotFound(t *testing.T) {
	a := newTestApp(t)
	a.getwd = func() (string, error) { return "/elsewhere", nil }

	_, _, err := run(t, a, "convert", "-j", "/repo/coverage/coverage.json")
	assert.Error(t, err)
}

func TestFormats_ListsRegistrations(t *testing.T) {
	stdout, _, err := run(t, newTestApp(t), "formats")
	require.NoError(t, err)

	for _, want := range []string{"FORMAT", "sonar", "lcovonly", ".info", "json-summary", "html", ".html", "SonarQube"} {
		assert.Contains(t, stdout, want)
	}
}
