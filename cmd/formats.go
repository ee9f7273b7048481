package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newFormatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the available report formats.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render(column("FORMAT", 14)+column("EXT", 7)+"DESCRIPTION"))
			for _, reg := range a.registry.Registrations() {
				line := column(reg.Name, 14) + column(reg.Extension, 7) + reg.Description
				if platforms := a.registry.CompatiblePlatforms(reg.Name); len(platforms) > 0 {
					line += " " + mutedStyle.Render("("+strings.Join(platforms, ", ")+")")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
