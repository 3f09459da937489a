// Package command holds the static command and group declarations the
// dispatcher resolves against. Declarations are plain data: they are built
// once at startup, handed to dispatch.NewRegistry, and never mutated
// afterwards, which is what makes concurrent resolutions against the same
// registry safe.
package command

// OnlyIn restricts where a command or group may be invoked.
type OnlyIn int

const (
	// OnlyInNone places no restriction on the message origin.
	OnlyInNone OnlyIn = iota

	// OnlyInGuild requires the message to come from a guild channel.
	OnlyInGuild

	// OnlyInDM requires the message to come from a direct message.
	OnlyInDM
)

// String returns the restriction name for logs and error text.
func (o OnlyIn) String() string {
	switch o {
	case OnlyInGuild:
		return "guild"
	case OnlyInDM:
		return "dm"
	default:
		return "none"
	}
}

// Options are the per-node restrictions checked by the dispatcher's
// permission gate each time the node's name matches. Commands and groups
// share the same shape.
type Options struct {
	// OwnersOnly restricts the node to user ids in Configuration.Owners.
	OwnersOnly bool

	// OnlyIn restricts the message origin (guild, DM, or no restriction).
	OnlyIn OnlyIn

	// RequiredPermissions is a permission bitset (discordgo.Permission*
	// values OR-ed together) the invoking user must hold in the channel.
	RequiredPermissions int64

	// OwnerPrivilege lets configured owners bypass RequiredPermissions.
	OwnerPrivilege bool

	// AllowedRoles lists role ids of which the invoking member must hold
	// at least one. Empty means no role restriction. Administrators
	// bypass this check.
	AllowedRoles []string

	// DefaultCommand is the fallback returned when no child token of a
	// group matches. Only consulted for groups.
	DefaultCommand *Command
}

// Command is a statically declared command. Sub commands are reachable by
// typing the parent's name (or an alias) first; input past a matched
// command that matches no sub command is left for the command as arguments.
type Command struct {
	// Name is the primary invocation name.
	Name string

	// Aliases are additional invocation names folded into the same map
	// entry as Name.
	Aliases []string

	// Options gate the command each time its name matches.
	Options Options

	// Sub lists nested commands, if any.
	Sub []*Command
}

// Group is a statically declared command group.
//
// A group with Prefixes is reachable only by typing one of them first; its
// sub groups and commands live behind that prefix. A group without Prefixes
// is "prefixless": its sub groups and commands are matched directly at the
// top level, with the group's own Options still enforced.
type Group struct {
	// Name identifies the group in logs and help output.
	Name string

	// Prefixes are the invocation names of the group. Empty means
	// prefixless.
	Prefixes []string

	// Options gate the group each time it participates in a match.
	Options Options

	// Commands are the group's direct commands.
	Commands []*Command

	// SubGroups are nested groups.
	SubGroups []*Group
}
