package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/bot"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; the system environment still applies.
			_ = godotenv.Load()

			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := bot.LoadConfig(configPath)
			if err != nil {
				return err
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			logger := newLogger(cfg.LogLevel, verbose)

			b, err := bot.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting bot", "config", configPath)
			return b.Run(ctx)
		},
	}
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(level string, verbose bool) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
