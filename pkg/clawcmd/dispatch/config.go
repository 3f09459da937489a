// Package dispatch resolves raw chat messages into command invocations.
//
// Given a Configuration, a Registry built from static command/group
// declarations, and a message, the dispatcher strips the invocation prefix
// (mention, dynamic, or static), walks the registered name maps consuming
// tokens from a stream.Stream, gates every matched node on ownership,
// origin, permission bits and roles, and returns either an Invoke (a
// command with its group, or a help request) or an error saying why nothing
// may run. It performs no execution and no external mutation of its own;
// the only suspension points are dynamic-prefix functions and Roster
// lookups, both of which take a context.
package dispatch

import (
	"context"
	"strings"
)

// Message is the incoming chat message the dispatcher resolves. Adapters
// for concrete transports live outside this package (see pkg/clawcmd/discord).
type Message interface {
	// AuthorID is the id of the user who sent the message.
	AuthorID() string

	// ChannelID is the id of the channel the message arrived in.
	ChannelID() string

	// GuildID is the id of the guild the message arrived in, or empty
	// outside guilds.
	GuildID() string

	// IsPrivate reports whether the message is a direct message.
	IsPrivate() bool

	// Content is the raw message text.
	Content() string
}

// Roster resolves guild-scoped permission and role data for the gate. A
// lookup returns ok=false when the data is not available (for example a
// cold cache), in which case the corresponding checks are skipped rather
// than failed. A non-nil error aborts the resolution; return one only for
// real infrastructure failures.
type Roster interface {
	// UserPermissions returns the user's effective permission bits in the
	// channel.
	UserPermissions(ctx context.Context, guildID, channelID, userID string) (int64, bool, error)

	// MemberRoles returns the role ids held by the user in the guild.
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, bool, error)
}

// DynamicPrefixFunc computes a candidate prefix for a message, typically
// from external state such as a per-guild database row. Returning ok=false
// (or an empty string) means the function proposes no prefix. The function
// may block on I/O and must honor ctx cancellation.
type DynamicPrefixFunc func(ctx context.Context, msg Message) (string, bool)

// WithWhitespace controls whether whitespace is consumed after each kind of
// matched token.
type WithWhitespace struct {
	// Prefixes trims whitespace after a matched prefix.
	Prefixes bool `yaml:"prefixes"`

	// Groups trims whitespace after a matched group name.
	Groups bool `yaml:"groups"`

	// Commands trims whitespace after a matched command name.
	Commands bool `yaml:"commands"`
}

// Configuration holds the per-registry dispatch settings. It is read-only
// for the lifetime of a resolution; any number of resolutions may share one
// Configuration concurrently.
type Configuration struct {
	// Prefixes are the static invocation prefixes, tried in order.
	Prefixes []string `yaml:"prefixes"`

	// DynamicPrefixes are prefix resolvers tried, in registration order,
	// before the static prefixes. Not representable in config files.
	DynamicPrefixes []DynamicPrefixFunc `yaml:"-"`

	// OnMention is the bot's numeric user id; when set, a leading
	// <@id> or <@!id> mention acts as a prefix.
	OnMention string `yaml:"on_mention"`

	// CaseInsensitive lowercases registered names and probed tokens
	// identically. Names must be ASCII when enabled.
	CaseInsensitive bool `yaml:"case_insensitive"`

	// Owners lists user ids with owner status.
	Owners []string `yaml:"owners"`

	// AllowDM permits invocations from direct messages.
	AllowDM bool `yaml:"allow_dm"`

	// WithWhitespace controls whitespace trimming after matched tokens.
	WithWhitespace WithWhitespace `yaml:"with_whitespace"`

	// DisabledCommands lists command names that always refuse to resolve.
	DisabledCommands []string `yaml:"disabled_commands"`

	// BySpace selects whitespace-delimited token matching. When false,
	// names are matched by greedy longest-prefix probing, which allows
	// command names that run directly into their arguments.
	BySpace bool `yaml:"by_space"`
}

// DefaultConfiguration returns a Configuration with the defaults most bots
// want: DMs allowed, whitespace trimmed everywhere, whitespace-delimited
// tokens.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		AllowDM: true,
		WithWhitespace: WithWhitespace{
			Prefixes: true,
			Groups:   true,
			Commands: true,
		},
		BySpace: true,
	}
}

// fold normalizes a name or probe per the case sensitivity setting.
// Registration-time keys and lookup-time probes go through the same fold.
func (c *Configuration) fold(s string) string {
	if c.CaseInsensitive {
		return strings.ToLower(s)
	}
	return s
}

// isOwner reports whether the user id is in the owners set.
func (c *Configuration) isOwner(userID string) bool {
	for _, id := range c.Owners {
		if id == userID {
			return true
		}
	}
	return false
}

// isDisabled reports whether the already-folded probe names a disabled
// command.
func (c *Configuration) isDisabled(name string) bool {
	for _, d := range c.DisabledCommands {
		if c.fold(d) == name {
			return true
		}
	}
	return false
}
