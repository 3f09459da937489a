// Package prefixstore persists per-guild command prefixes in SQLite and
// exposes them to the dispatcher as a dynamic-prefix function, so each
// guild can pick its own invocation prefix at runtime.
package prefixstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/dispatch"
)

// Store is a SQLite-backed guild→prefix table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the prefix database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("prefixstore: opening %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS guild_prefixes (
			guild_id TEXT PRIMARY KEY,
			prefix   TEXT NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prefixstore: creating schema: %w", err)
	}

	return &Store{db: db, logger: logger.With("component", "prefixstore")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Set stores or replaces the prefix for a guild.
func (s *Store) Set(ctx context.Context, guildID, prefix string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO guild_prefixes (guild_id, prefix) VALUES (?, ?)",
		guildID, prefix)
	if err != nil {
		return fmt.Errorf("prefixstore: saving prefix for guild %s: %w", guildID, err)
	}
	return nil
}

// Get returns the prefix configured for a guild, if any.
func (s *Store) Get(ctx context.Context, guildID string) (string, bool, error) {
	var prefix string
	err := s.db.QueryRowContext(ctx,
		"SELECT prefix FROM guild_prefixes WHERE guild_id = ?", guildID).Scan(&prefix)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefixstore: loading prefix for guild %s: %w", guildID, err)
	}
	return prefix, true, nil
}

// Delete removes a guild's prefix, reverting it to the static defaults.
func (s *Store) Delete(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM guild_prefixes WHERE guild_id = ?", guildID)
	if err != nil {
		return fmt.Errorf("prefixstore: deleting prefix for guild %s: %w", guildID, err)
	}
	return nil
}

// DynamicPrefix returns a dispatch dynamic-prefix function that looks up
// the message's guild. Lookup failures are logged and degrade to "no
// prefix" so a flaky database never aborts a resolution.
func (s *Store) DynamicPrefix() dispatch.DynamicPrefixFunc {
	return func(ctx context.Context, msg dispatch.Message) (string, bool) {
		guildID := msg.GuildID()
		if guildID == "" {
			return "", false
		}
		prefix, ok, err := s.Get(ctx, guildID)
		if err != nil {
			s.logger.Warn("prefix lookup failed", "guild_id", guildID, "error", err)
			return "", false
		}
		return prefix, ok
	}
}
