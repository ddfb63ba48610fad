// Package commands implements the sheetvoice CLI using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetvoice",
		Short: "sheetvoice - spoken-question answers from uploaded spreadsheets",
		Long: `sheetvoice serves a small web backend that answers free-text
questions from uploaded question/answer spreadsheets using fuzzy matching.

Examples:
  sheetvoice serve
  sheetvoice serve --config ./sheetvoice.yaml
  sheetvoice links`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newLinksCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
