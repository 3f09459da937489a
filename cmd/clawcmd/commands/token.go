package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/bot"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the bot token in the OS keyring",
	}

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "store",
		Short: "Read a token from stdin and store it in the OS keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print("Bot token: ")
			reader := bufio.NewReader(os.Stdin)
			token, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading token: %w", err)
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("empty token")
			}
			if err := bot.StoreToken(token); err != nil {
				return fmt.Errorf("storing token: %w", err)
			}
			fmt.Println("Token stored.")
			return nil
		},
	})

	return tokenCmd
}
