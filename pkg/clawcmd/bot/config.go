// Package bot wires the dispatch core into a runnable Discord bot: it
// loads configuration, owns the discordgo session and the per-guild prefix
// store, and routes resolved invocations to command handlers.
package bot

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/dispatch"
)

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "clawcmd"

	// keyringToken is the keyring entry holding the bot token.
	keyringToken = "discord_token"
)

// Config holds the bot configuration, loaded from YAML.
type Config struct {
	// Token is the Discord bot token. Leave empty to resolve it from the
	// DISCORD_TOKEN environment variable or the OS keyring.
	Token string `yaml:"token"`

	// Dispatch holds the resolver settings (prefixes, case sensitivity,
	// owners, disabled commands, tokenization mode).
	Dispatch dispatch.Configuration `yaml:"dispatch"`

	// HelpNames are the names that invoke the built-in help, in
	// precedence order.
	HelpNames []string `yaml:"help_names"`

	// PrefixStorePath is the SQLite file holding per-guild prefixes.
	PrefixStorePath string `yaml:"prefix_store_path"`

	// FetchPermissions enables REST fallback for permission and role
	// lookups when the gateway state cache misses.
	FetchPermissions bool `yaml:"fetch_permissions"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults: "!" prefix,
// case-insensitive matching, help under "help" and "h".
func DefaultConfig() Config {
	cfg := dispatch.DefaultConfiguration()
	cfg.Prefixes = []string{"!"}
	cfg.CaseInsensitive = true
	return Config{
		Dispatch:        *cfg,
		HelpNames:       []string{"help", "h"},
		PrefixStorePath: "clawcmd.db",
		LogLevel:        "info",
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file is
// not an error; the defaults apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("bot: reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("bot: parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveToken resolves the bot token: config value, then the
// DISCORD_TOKEN environment variable, then the OS keyring.
func (c *Config) ResolveToken() (string, error) {
	if c.Token != "" {
		return c.Token, nil
	}
	if tok := os.Getenv("DISCORD_TOKEN"); tok != "" {
		return tok, nil
	}
	if tok, err := keyring.Get(keyringService, keyringToken); err == nil && tok != "" {
		return tok, nil
	}
	return "", fmt.Errorf("bot: no token: set token in config, DISCORD_TOKEN, or the %s keyring entry", keyringService)
}

// StoreToken saves the bot token to the OS keyring.
func StoreToken(token string) error {
	return keyring.Set(keyringService, keyringToken, token)
}
