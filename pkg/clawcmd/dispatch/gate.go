package dispatch

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/command"
)

// checkDiscrepancy gates a matched node. It runs once per matched group or
// command, after the name matched and before descending further.
//
// Checks run in order: owner restriction, DM restriction, guild
// restriction, then — only when the message is in a guild and the roster
// has data for it — permission bits and roles. A roster miss skips the
// guild checks instead of failing them; a roster error aborts the
// resolution.
func checkDiscrepancy(ctx context.Context, msg Message, cfg *Configuration, roster Roster, opts *command.Options) error {
	if opts.OwnersOnly && !cfg.isOwner(msg.AuthorID()) {
		return &DispatchError{Reason: ReasonOnlyForOwners}
	}

	if opts.OnlyIn == command.OnlyInDM && !msg.IsPrivate() {
		return &DispatchError{Reason: ReasonOnlyForDM}
	}

	if (!cfg.AllowDM || opts.OnlyIn == command.OnlyInGuild) && msg.IsPrivate() {
		return &DispatchError{Reason: ReasonOnlyForGuilds}
	}

	if roster == nil || msg.GuildID() == "" {
		return nil
	}

	perms, ok, err := roster.UserPermissions(ctx, msg.GuildID(), msg.ChannelID(), msg.AuthorID())
	if err != nil {
		return fmt.Errorf("dispatch: resolving permissions: %w", err)
	}
	if !ok {
		return nil
	}

	if perms&opts.RequiredPermissions != opts.RequiredPermissions &&
		!(opts.OwnerPrivilege && cfg.isOwner(msg.AuthorID())) {
		return &DispatchError{Reason: ReasonLackingPermissions, Permissions: opts.RequiredPermissions}
	}

	if perms&discordgo.PermissionAdministrator == 0 && len(opts.AllowedRoles) > 0 {
		roles, ok, err := roster.MemberRoles(ctx, msg.GuildID(), msg.AuthorID())
		if err != nil {
			return fmt.Errorf("dispatch: resolving roles: %w", err)
		}
		if ok && !hasAllowedRole(opts.AllowedRoles, roles) {
			return &DispatchError{Reason: ReasonLackingRole}
		}
	}

	return nil
}

// hasAllowedRole reports whether the member holds at least one allowed role.
func hasAllowedRole(allowed, held []string) bool {
	for _, a := range allowed {
		for _, h := range held {
			if a == h {
				return true
			}
		}
	}
	return false
}
