package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IgorBayerl/sfcov/internal/reportconfig"
	"github.com/IgorBayerl/sfcov/internal/reporting"
	"github.com/IgorBayerl/sfcov/internal/utils"
)

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a coverage JSON file into a report.",
		Example: `  sfcov convert -j coverage/coverage.json -f cobertura -o coverage/cobertura
  SFCOV_FORMAT=lcovonly sfcov convert -j coverage.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.configuration()
			if err != nil {
				return err
			}
			if err := cfg.Resolve(a.fs); err != nil {
				return err
			}

			outcome, err := reporting.NewReportContext(cfg, a.registry, a.fs).Generate(cmd.Context())
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			for _, w := range outcome.Warnings {
				fmt.Fprintln(stderr, warningStyle.Render("Warning: "+w))
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(
				fmt.Sprintf("The coverage report has been written to %s (%d files).", outcome.OutputFile, outcome.FilesProcessed)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("coverage-json", "j", "", "Path to the Apex coverage JSON file. (Required)")
	flags.StringP("output", "o", "coverage", "Output report path; the format's extension is added when missing.")
	flags.StringP("format", "f", "sonar", "Report format (run 'sfcov formats' to list them).")
	flags.StringP("repo-root", "r", "", "Salesforce DX project root (default: nearest parent with sfdx-project.json).")
	flags.StringP("ignore-package-directories", "i", "", "Package directories to skip, comma or semicolon separated globs.")
	flags.String("class-filters", "", "Class filters, e.g. \"+Account*;-*Test\".")
	return cmd
}

// configuration assembles and validates the run configuration from flags
// and SFCOV_* environment variables.
func (a *app) configuration() (*reportconfig.ReportConfiguration, error) {
	cfg := &reportconfig.ReportConfiguration{
		CoverageJSON:             a.v.GetString("coverage-json"),
		OutputPath:               a.v.GetString("output"),
		Format:                   a.v.GetString("format"),
		RepoRoot:                 a.v.GetString("repo-root"),
		IgnorePackageDirectories: utils.SplitGlobList(a.v.GetString("ignore-package-directories"), ',', ';'),
		ClassFilters:             utils.SplitGlobList(a.v.GetString("class-filters"), ',', ';'),
		Verbosity:                a.v.GetString("verbosity"),
	}

	if cfg.RepoRoot == "" {
		wd, err := a.getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		root, err := utils.FindRepoRoot(a.fs, wd)
		if err != nil {
			return nil, err
		}
		cfg.RepoRoot = root
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
