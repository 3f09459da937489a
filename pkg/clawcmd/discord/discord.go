// Package discord adapts discordgo types to the dispatch interfaces: a
// MessageCreate event becomes a dispatch.Message and a Session becomes a
// dispatch.Roster backed by the gateway state cache, with an optional REST
// fallback.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/dispatch"
)

// Message wraps a discordgo message event as a dispatch.Message.
type Message struct {
	m *discordgo.MessageCreate
}

// WrapMessage wraps a message create event.
func WrapMessage(m *discordgo.MessageCreate) *Message {
	return &Message{m: m}
}

// AuthorID returns the sending user's id.
func (w *Message) AuthorID() string {
	if w.m.Author == nil {
		return ""
	}
	return w.m.Author.ID
}

// ChannelID returns the channel the message arrived in.
func (w *Message) ChannelID() string { return w.m.ChannelID }

// GuildID returns the guild id, or empty for direct messages.
func (w *Message) GuildID() string { return w.m.GuildID }

// IsPrivate reports whether the message is a direct message. Discord
// delivers DMs without a guild id.
func (w *Message) IsPrivate() bool { return w.m.GuildID == "" }

// Content returns the raw message text.
func (w *Message) Content() string { return w.m.Content }

// Event returns the wrapped event for callers that need the full payload.
func (w *Message) Event() *discordgo.MessageCreate { return w.m }

// Roster resolves permissions and roles from a discordgo session. Lookups
// hit the gateway state cache first; a miss either degrades the check
// (fetch disabled, matching a cache-only deployment) or falls back to the
// REST API.
type Roster struct {
	session *discordgo.Session
	fetch   bool
}

// NewRoster creates a roster over the session. With fetch enabled, cache
// misses fall back to REST calls; REST failures then abort the resolution
// instead of silently passing the gate.
func NewRoster(session *discordgo.Session, fetch bool) *Roster {
	return &Roster{session: session, fetch: fetch}
}

// UserPermissions returns the user's effective permission bits in the
// channel.
func (r *Roster) UserPermissions(ctx context.Context, guildID, channelID, userID string) (int64, bool, error) {
	perms, err := r.session.State.UserChannelPermissions(userID, channelID)
	if err == nil {
		return perms, true, nil
	}

	if !r.fetch {
		return 0, false, nil
	}

	perms, err = r.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, false, fmt.Errorf("discord: fetching permissions for %s in %s: %w", userID, channelID, err)
	}
	return perms, true, nil
}

// MemberRoles returns the role ids the user holds in the guild.
func (r *Roster) MemberRoles(ctx context.Context, guildID, userID string) ([]string, bool, error) {
	member, err := r.session.State.Member(guildID, userID)
	if err == nil {
		return member.Roles, true, nil
	}

	if !r.fetch {
		return nil, false, nil
	}

	member, err = r.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, false, fmt.Errorf("discord: fetching member %s in guild %s: %w", userID, guildID, err)
	}
	return member.Roles, true, nil
}

// Compile-time interface verification.
var (
	_ dispatch.Message = (*Message)(nil)
	_ dispatch.Roster  = (*Roster)(nil)
)
