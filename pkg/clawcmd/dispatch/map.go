package dispatch

import (
	"fmt"
	"unicode/utf8"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/command"
)

// nameMap is the shared shape of CommandMap and GroupMap: normalized name →
// node, with the shortest and longest key lengths (in runes) tracked to
// bound greedy probing.
type nameMap[E any] struct {
	entries map[string]E
	minLen  int
	maxLen  int
}

func newNameMap[E any]() nameMap[E] {
	return nameMap[E]{entries: make(map[string]E)}
}

func (m *nameMap[E]) insert(name string, e E) {
	n := utf8.RuneCountInString(name)
	if m.minLen == 0 || n < m.minLen {
		m.minLen = n
	}
	if n > m.maxLen {
		m.maxLen = n
	}
	m.entries[name] = e
}

func (m *nameMap[E]) get(name string) (E, bool) {
	e, ok := m.entries[name]
	return e, ok
}

// MinLength returns the rune length of the shortest registered name.
func (m *nameMap[E]) MinLength() int { return m.minLen }

// MaxLength returns the rune length of the longest registered name.
func (m *nameMap[E]) MaxLength() int { return m.maxLen }

// IsEmpty reports whether no names are registered.
func (m *nameMap[E]) IsEmpty() bool { return len(m.entries) == 0 }

// commandNode pairs a command with the map of its sub commands.
type commandNode struct {
	cmd *command.Command
	sub *CommandMap
}

// CommandMap maps normalized command names and aliases to commands and
// their sub-command maps.
type CommandMap struct {
	nameMap[*commandNode]
}

// groupNode pairs a group with the maps of its sub groups and direct
// commands.
type groupNode struct {
	group    *command.Group
	sub      *GroupMap
	commands *CommandMap
}

// GroupMap maps normalized group prefixes to groups with their sub-group
// and command maps.
type GroupMap struct {
	nameMap[*groupNode]
}

// registryEntry is one top-level resolution candidate. Exactly one of two
// shapes applies: a prefixed group exposes itself through the prefixed map
// (keyed by its own prefixes), a prefixless group exposes its sub groups
// and commands directly.
type registryEntry struct {
	group     *command.Group
	prefixed  *GroupMap
	subGroups *GroupMap
	commands  *CommandMap
}

// Registry holds the top-level candidates in registration order. It is
// built once and read-only afterwards.
type Registry struct {
	entries []*registryEntry
}

// NewRegistry builds the name maps for the given groups under the
// configuration's normalization rules. Registration order is resolution
// order. It fails on empty or duplicate names, on nested groups without
// prefixes, and on non-ASCII names when case folding is enabled.
func NewRegistry(cfg *Configuration, groups ...*command.Group) (*Registry, error) {
	r := &Registry{}
	for _, g := range groups {
		if len(g.Prefixes) > 0 {
			gm := &GroupMap{nameMap: newNameMap[*groupNode]()}
			if err := addGroup(cfg, gm, g); err != nil {
				return nil, err
			}
			r.entries = append(r.entries, &registryEntry{group: g, prefixed: gm})
			continue
		}
		sub, err := newGroupMap(cfg, g.SubGroups)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
		cmds, err := newCommandMap(cfg, g.Commands)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
		r.entries = append(r.entries, &registryEntry{group: g, subGroups: sub, commands: cmds})
	}
	return r, nil
}

// newCommandMap builds a CommandMap for cmds and, recursively, their subs.
func newCommandMap(cfg *Configuration, cmds []*command.Command) (*CommandMap, error) {
	m := &CommandMap{nameMap: newNameMap[*commandNode]()}
	for _, c := range cmds {
		sub, err := newCommandMap(cfg, c.Sub)
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", c.Name, err)
		}
		node := &commandNode{cmd: c, sub: sub}
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			key, err := normalizeKey(cfg, name)
			if err != nil {
				return nil, fmt.Errorf("command %q: %w", c.Name, err)
			}
			if _, dup := m.get(key); dup {
				return nil, fmt.Errorf("command name %q registered twice", key)
			}
			m.insert(key, node)
		}
	}
	return m, nil
}

// newGroupMap builds a GroupMap for nested groups, all of which must carry
// prefixes to be reachable.
func newGroupMap(cfg *Configuration, groups []*command.Group) (*GroupMap, error) {
	m := &GroupMap{nameMap: newNameMap[*groupNode]()}
	for _, g := range groups {
		if len(g.Prefixes) == 0 {
			return nil, fmt.Errorf("nested group %q has no prefixes", g.Name)
		}
		if err := addGroup(cfg, m, g); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// addGroup registers g under each of its prefixes.
func addGroup(cfg *Configuration, m *GroupMap, g *command.Group) error {
	sub, err := newGroupMap(cfg, g.SubGroups)
	if err != nil {
		return fmt.Errorf("group %q: %w", g.Name, err)
	}
	cmds, err := newCommandMap(cfg, g.Commands)
	if err != nil {
		return fmt.Errorf("group %q: %w", g.Name, err)
	}
	node := &groupNode{group: g, sub: sub, commands: cmds}
	for _, name := range g.Prefixes {
		key, err := normalizeKey(cfg, name)
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		if _, dup := m.get(key); dup {
			return fmt.Errorf("group prefix %q registered twice", key)
		}
		m.insert(key, node)
	}
	return nil
}

// normalizeKey folds a registration-time name exactly like lookup-time
// probes. Folding can change the byte length of non-ASCII text while the
// cursor advances by probed byte lengths, so names must stay ASCII when
// case folding is on.
func normalizeKey(cfg *Configuration, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty name")
	}
	if cfg.CaseInsensitive {
		for _, r := range name {
			if r >= utf8.RuneSelf {
				return "", fmt.Errorf("name %q must be ASCII under case-insensitive matching", name)
			}
		}
	}
	return cfg.fold(name), nil
}
