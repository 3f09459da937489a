package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/bot"
	"github.com/jholhewres/clawcmd/pkg/clawcmd/prefixstore"
)

func newPrefixCmd() *cobra.Command {
	prefixCmd := &cobra.Command{
		Use:   "prefix",
		Short: "Manage per-guild command prefixes",
	}

	prefixCmd.AddCommand(
		&cobra.Command{
			Use:   "set <guild-id> <prefix>",
			Short: "Set a guild's command prefix",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				if err := store.Set(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("Prefix for guild %s set to %q.\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <guild-id>",
			Short: "Show a guild's command prefix",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				prefix, ok, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					fmt.Printf("Guild %s uses the default prefix.\n", args[0])
					return nil
				}
				fmt.Printf("Guild %s uses prefix %q.\n", args[0], prefix)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear <guild-id>",
			Short: "Reset a guild to the default prefix",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Printf("Prefix for guild %s cleared.\n", args[0])
				return nil
			},
		},
	)

	return prefixCmd
}

// openStore opens the prefix store configured in the config file.
func openStore(cmd *cobra.Command) (*prefixstore.Store, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := bot.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return prefixstore.Open(cfg.PrefixStorePath, nil)
}
