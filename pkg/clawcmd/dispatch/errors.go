package dispatch

import "fmt"

// DispatchReason classifies why a matched node refused to run.
type DispatchReason int

const (
	// ReasonOnlyForOwners means the node is restricted to configured owners.
	ReasonOnlyForOwners DispatchReason = iota

	// ReasonOnlyForDM means the node only runs in direct messages.
	ReasonOnlyForDM

	// ReasonOnlyForGuilds means the node only runs in guild channels.
	ReasonOnlyForGuilds

	// ReasonLackingPermissions means the user misses required permission bits.
	ReasonLackingPermissions

	// ReasonLackingRole means the user holds none of the allowed roles.
	ReasonLackingRole

	// ReasonCommandDisabled means the probed name is in the disabled set.
	ReasonCommandDisabled
)

// String returns the reason name.
func (r DispatchReason) String() string {
	switch r {
	case ReasonOnlyForOwners:
		return "only for owners"
	case ReasonOnlyForDM:
		return "only for DMs"
	case ReasonOnlyForGuilds:
		return "only for guilds"
	case ReasonLackingPermissions:
		return "lacking permissions"
	case ReasonLackingRole:
		return "lacking role"
	case ReasonCommandDisabled:
		return "command disabled"
	default:
		return "unknown"
	}
}

// DispatchError reports that a name matched but the node may not run. It is
// terminal for the branch that produced it: siblings at the same level are
// not tried, though later top-level candidates still are.
type DispatchError struct {
	// Reason classifies the rejection.
	Reason DispatchReason

	// Permissions carries the required bitset for ReasonLackingPermissions.
	Permissions int64

	// Command carries the probed name for ReasonCommandDisabled.
	Command string
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	switch e.Reason {
	case ReasonLackingPermissions:
		return fmt.Sprintf("dispatch: lacking permissions 0x%x", e.Permissions)
	case ReasonCommandDisabled:
		return fmt.Sprintf("dispatch: command %q is disabled", e.Command)
	default:
		return "dispatch: " + e.Reason.String()
	}
}

// UnknownCommandError reports that no registered name matched the input at
// some level. It is recoverable: callers react by trying the next sibling,
// falling back to a parent command or a default command, or moving on to
// the next top-level candidate.
type UnknownCommandError struct {
	// Probe is the candidate token that failed to match. Only meaningful
	// when Probed is true.
	Probe string

	// Probed is true when a command-level probe failed (the token exists
	// and becomes arguments of the parent on fallback) and false when a
	// group-level probe failed.
	Probed bool
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	if e.Probed {
		return fmt.Sprintf("dispatch: unknown command %q", e.Probe)
	}
	return "dispatch: unknown command"
}
