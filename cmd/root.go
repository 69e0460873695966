// Package cmd wires the extbuild command line.
package cmd

import (
	"context"

	"github.com/charmbracelet/fang"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// Metadata is injected by main at link time.
type Metadata struct {
	Version string
	Commit  string
	Date    string
}

var metadata Metadata

var rootCmd = &cobra.Command{
	Use:   "extbuild",
	Short: "Package the DocentAI browser extension",
	Long: `extbuild assembles the DocentAI browser extension into build/extension
and a zip archive ready for chrome://extensions or the Chrome Web Store.

Two build modes are available:
  dev   includes the screen-capture feature (manual installation)
  prod  excludes it (Chrome Web Store upload)`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			pterm.EnableDebugMessages()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print every file as it is archived")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(inspectCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context, m Metadata) error {
	metadata = m
	return fang.Execute(ctx, rootCmd, fang.WithVersion(m.Version))
}
