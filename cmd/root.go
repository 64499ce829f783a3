// Package cmd implements the talos command-line interface.
package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"talos/bootstrap"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// NewRootCommand assembles the talos CLI.
func NewRootCommand(app *bootstrap.App) *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:   "talos",
		Short: "Schema-driven audit normalization",
		Long: `talos normalizes heterogeneous audit snapshots collected from many
hosts into typed fields, structured alerts and a rolled-up health status,
driven by declarative YAML schemas.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newRunCommand(app))
	root.AddCommand(newValidateCommand(app))
	root.AddCommand(newHostsCommand(app))
	root.AddCommand(newServeCommand(app))

	return root
}
