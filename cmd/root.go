package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/IgorBayerl/sfcov/internal/formatter"
	"github.com/IgorBayerl/sfcov/internal/formatter/builtin"
	"github.com/IgorBayerl/sfcov/internal/logging"
)

const envPrefix = "SFCOV"

// app carries the dependencies shared by every command.
type app struct {
	fs       afero.Fs
	registry *formatter.Registry
	v        *viper.Viper
	getwd    func() (string, error)
}

func newApp() *app {
	return &app{
		fs:       afero.NewOsFs(),
		registry: builtin.NewRegistry(nil),
		v:        viper.New(),
		getwd:    os.Getwd,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "sfcov",
		Short:        "Convert Salesforce Apex coverage JSON into standard coverage reports.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			a.v.SetEnvPrefix(envPrefix)
			a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			a.v.AutomaticEnv()

			level, err := logging.ParseVerbosity(a.v.GetString("verbosity"))
			if err != nil {
				return err
			}
			slog.SetDefault(logging.NewLogger(cmd.ErrOrStderr(), level))
			return nil
		},
	}
	root.PersistentFlags().String("verbosity", "Warning", "Logging verbosity level (Verbose, Info, Warning, Error, Off)")

	root.AddCommand(newConvertCmd(a), newFormatsCmd(a))
	return root
}
