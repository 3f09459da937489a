// Package commands implements the clawcmd CLI using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clawcmd",
		Short: "clawcmd - chat-command dispatch bot",
		Long: `clawcmd resolves chat messages into command invocations and runs a
demo Discord bot built on that dispatcher.

Examples:
  clawcmd serve
  clawcmd serve --config bot.yaml
  clawcmd prefix set 123456789012345678 "?"
  clawcmd token store`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newPrefixCmd(),
		newTokenCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "clawcmd.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
