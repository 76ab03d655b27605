// Package cli implements the qpick command line: the web server, the
// terminal checkout and an offline order total calculator.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

// NewRootCmd builds the qpick command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "qpick",
		Short: "Storefront checkout server",
		Long: `qpick serves a storefront with a live checkout sidebar.

Configuration comes from built-in defaults, then the YAML file given with
--config, then QPICK_* environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")

	root.AddCommand(
		newServeCmd(opts, version),
		newTotalCmd(),
		newTUICmd(opts),
	)
	return root
}

// Execute runs the root command
func Execute(version string) {
	root := NewRootCmd(version)
	if err := root.Execute(); err != nil {
		NewColorPrinter(root.OutOrStdout(), root.ErrOrStderr()).Error("%v", err)
		os.Exit(1)
	}
}
