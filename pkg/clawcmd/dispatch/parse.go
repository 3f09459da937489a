package dispatch

import (
	"context"
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/command"
	"github.com/jholhewres/clawcmd/pkg/clawcmd/stream"
)

// Invoke is a successful resolution: either a command under its group, or
// a help request.
type Invoke struct {
	// Group is the group the command resolved under. Nil for help.
	Group *command.Group

	// Command is the resolved command. Nil for help.
	Command *command.Command

	// Help is the matched help name. Non-empty means a help invocation.
	Help string
}

// IsHelp reports whether the invocation is a help request.
func (i *Invoke) IsHelp() bool { return i.Help != "" }

// tryParse probes a name map at the cursor without moving it.
//
// In by-space mode the probe is the whole token up to the next whitespace.
// Otherwise the probe starts at the map's longest key length and shrinks
// one rune at a time down to the shortest until the map hits, which lets
// names run directly into their arguments. The caller advances the cursor
// only on a hit.
func tryParse[E any](st *stream.Stream, m *nameMap[E], bySpace bool, fold func(string) string) (string, E, bool) {
	if bySpace {
		n := fold(st.PeekUntil(unicode.IsSpace))
		e, ok := m.get(n)
		return n, e, ok
	}

	n := fold(st.PeekFor(m.MaxLength()))
	for {
		if e, ok := m.get(n); ok {
			return n, e, true
		}
		if utf8.RuneCountInString(n) <= m.MinLength() {
			var zero E
			return n, zero, false
		}
		_, size := utf8.DecodeLastRuneInString(n)
		n = n[:len(n)-size]
	}
}

// parseCommand resolves one command level and recurses into sub commands.
//
// The disabled set is consulted on the probed token before a match is even
// required, so a disabled name short-circuits the branch. After a match the
// cursor advances, whitespace is optionally trimmed, and the gate runs; a
// rejection propagates and is never masked by siblings. A sub-level failure
// that captured a probe falls back to the current command — the deeper text
// is arguments, not a sub command.
func parseCommand(ctx context.Context, msg Message, st *stream.Stream, cfg *Configuration, roster Roster, m *CommandMap) (*command.Command, error) {
	n, node, ok := tryParse(st, &m.nameMap, cfg.BySpace, cfg.fold)

	if cfg.isDisabled(n) {
		return nil, &DispatchError{Reason: ReasonCommandDisabled, Command: n}
	}

	if !ok {
		return nil, &UnknownCommandError{Probe: n, Probed: true}
	}

	st.Increment(len(n))
	if cfg.WithWhitespace.Commands {
		st.TakeWhile(unicode.IsSpace)
	}

	if err := checkDiscrepancy(ctx, msg, cfg, roster, &node.cmd.Options); err != nil {
		return nil, err
	}

	if node.sub.IsEmpty() {
		return node.cmd, nil
	}

	cmd, err := parseCommand(ctx, msg, st, cfg, roster, node.sub)
	var unknown *UnknownCommandError
	if errors.As(err, &unknown) && unknown.Probed {
		return node.cmd, nil
	}
	return cmd, err
}

// parseGroup resolves one group level and recurses into sub groups. A
// sub-level miss (no deeper group name present) settles on this group with
// its own command map; everything else propagates unchanged.
func parseGroup(ctx context.Context, msg Message, st *stream.Stream, cfg *Configuration, roster Roster, m *GroupMap) (*command.Group, *CommandMap, error) {
	n, node, ok := tryParse(st, &m.nameMap, cfg.BySpace, cfg.fold)

	if !ok {
		return nil, nil, &UnknownCommandError{}
	}

	st.Increment(len(n))
	if cfg.WithWhitespace.Groups {
		st.TakeWhile(unicode.IsSpace)
	}

	if err := checkDiscrepancy(ctx, msg, cfg, roster, &node.group.Options); err != nil {
		return nil, nil, err
	}

	if node.sub.IsEmpty() {
		return node.group, node.commands, nil
	}

	g, cmds, err := parseGroup(ctx, msg, st, cfg, roster, node.sub)
	var unknown *UnknownCommandError
	if errors.As(err, &unknown) && !unknown.Probed {
		return node.group, node.commands, nil
	}
	return g, cmds, err
}

// handleCommand resolves a command under g, falling back to the group's
// default command on any failure when one is declared.
func handleCommand(ctx context.Context, msg Message, st *stream.Stream, cfg *Configuration, roster Roster, m *CommandMap, g *command.Group) (*Invoke, error) {
	cmd, err := parseCommand(ctx, msg, st, cfg, roster, m)
	if err != nil {
		if dc := g.Options.DefaultCommand; dc != nil {
			return &Invoke{Group: g, Command: dc}, nil
		}
		return nil, err
	}
	return &Invoke{Group: g, Command: cmd}, nil
}

// handleGroup resolves a group from m and then a command from the resolved
// group's own command map.
func handleGroup(ctx context.Context, msg Message, st *stream.Stream, cfg *Configuration, roster Roster, m *GroupMap) (*Invoke, error) {
	g, cmds, err := parseGroup(ctx, msg, st, cfg, roster, m)
	if err != nil {
		return nil, err
	}
	return handleCommand(ctx, msg, st, cfg, roster, cmds, g)
}

// ParseCommand resolves the text at the cursor, after any prefix has been
// consumed, against the registry.
//
// Registered help names take precedence over everything: the first help
// name present at the cursor, compared case-folded at exact rune length,
// yields a help invocation even when a command shares the name.
//
// Top-level candidates are then tried in registration order. Prefixed
// groups resolve group-then-command. Prefixless groups try their sub
// groups, then their own commands, with the group's own gate enforced on
// success of either; a gate rejection there aborts the loop outright. The
// first success wins. Otherwise the error of the last attempted candidate
// is returned — dispatch rejections from earlier candidates are
// deliberately overwritten by later attempts, whatever their outcome.
func ParseCommand(ctx context.Context, msg Message, st *stream.Stream, reg *Registry, cfg *Configuration, roster Roster, helpNames []string) (*Invoke, error) {
	for _, name := range helpNames {
		n := cfg.fold(st.PeekFor(utf8.RuneCountInString(name)))
		if cfg.fold(name) == n {
			st.Increment(len(n))
			st.TakeWhile(unicode.IsSpace)
			return &Invoke{Help: name}, nil
		}
	}

	var last error = &UnknownCommandError{}

	for _, entry := range reg.entries {
		if entry.prefixed != nil {
			inv, err := handleGroup(ctx, msg, st, cfg, roster, entry.prefixed)
			if err == nil {
				return inv, nil
			}
			last = err
			continue
		}

		inv, err := handleGroup(ctx, msg, st, cfg, roster, entry.subGroups)
		if err == nil {
			if gerr := checkDiscrepancy(ctx, msg, cfg, roster, &entry.group.Options); gerr != nil {
				return nil, gerr
			}
			return inv, nil
		}

		inv, err = handleCommand(ctx, msg, st, cfg, roster, entry.commands, entry.group)
		if err == nil {
			if gerr := checkDiscrepancy(ctx, msg, cfg, roster, &entry.group.Options); gerr != nil {
				return nil, gerr
			}
			return inv, nil
		}

		last = err
	}

	return nil, last
}
