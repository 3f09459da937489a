package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/jholhewres/clawcmd/pkg/clawcmd/command"
	"github.com/jholhewres/clawcmd/pkg/clawcmd/stream"
)

// testMessage is a minimal in-memory Message.
type testMessage struct {
	author  string
	channel string
	guild   string
	private bool
	content string
}

func (m *testMessage) AuthorID() string  { return m.author }
func (m *testMessage) ChannelID() string { return m.channel }
func (m *testMessage) GuildID() string   { return m.guild }
func (m *testMessage) IsPrivate() bool   { return m.private }
func (m *testMessage) Content() string   { return m.content }

func guildMessage(content string) *testMessage {
	return &testMessage{author: "user", channel: "chan", guild: "guild", content: content}
}

// fakeRoster returns fixed permission and role data.
type fakeRoster struct {
	perms   int64
	permsOK bool
	roles   []string
	rolesOK bool
	err     error
}

func (f *fakeRoster) UserPermissions(context.Context, string, string, string) (int64, bool, error) {
	return f.perms, f.permsOK, f.err
}

func (f *fakeRoster) MemberRoles(context.Context, string, string) ([]string, bool, error) {
	return f.roles, f.rolesOK, f.err
}

func testConfig() *Configuration {
	cfg := DefaultConfiguration()
	cfg.Prefixes = []string{"!"}
	cfg.CaseInsensitive = true
	return cfg
}

func mustRegistry(t *testing.T, cfg *Configuration, groups ...*command.Group) *Registry {
	t.Helper()
	reg, err := NewRegistry(cfg, groups...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

// parseAt strips the prefix and resolves, returning the invocation, the
// remaining arguments, and the error.
func parseAt(t *testing.T, cfg *Configuration, reg *Registry, roster Roster, help []string, msg *testMessage) (*Invoke, string, error) {
	t.Helper()
	st := stream.New(msg.content)
	if _, ok := Prefix(context.Background(), msg, st, cfg); !ok {
		t.Fatalf("Prefix: no prefix in %q", msg.content)
	}
	inv, err := ParseCommand(context.Background(), msg, st, reg, cfg, roster, help)
	return inv, st.Rest(), err
}

func TestParseCommand_CaseInsensitivePing(t *testing.T) {
	t.Parallel()

	ping := &command.Command{Name: "ping"}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{ping}})

	inv, rest, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!PING"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != ping {
		t.Errorf("Command = %v, want ping", inv.Command)
	}
	if rest != "" {
		t.Errorf("rest = %q, want empty", rest)
	}
}

func TestParseCommand_ArgumentsRemain(t *testing.T) {
	t.Parallel()

	echo := &command.Command{Name: "echo"}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{echo}})

	inv, rest, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!echo hello world"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != echo {
		t.Errorf("Command = %v, want echo", inv.Command)
	}
	if rest != "hello world" {
		t.Errorf("rest = %q, want %q", rest, "hello world")
	}
}

func TestParseCommand_AliasResolves(t *testing.T) {
	t.Parallel()

	status := &command.Command{Name: "status", Aliases: []string{"uptime"}}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{status}})

	inv, _, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!uptime"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != status {
		t.Errorf("Command = %v, want status", inv.Command)
	}
}

func TestParseCommand_GreedyLongestMatch(t *testing.T) {
	t.Parallel()

	a := &command.Command{Name: "a"}
	ab := &command.Command{Name: "ab"}
	cfg := testConfig()
	cfg.BySpace = false
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{a, ab}})

	// "abc": the longest registered name wins, "c" becomes arguments.
	inv, rest, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!abc"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != ab {
		t.Errorf("Command = %q, want %q", inv.Command.Name, "ab")
	}
	if rest != "c" {
		t.Errorf("rest = %q, want %q", rest, "c")
	}
}

func TestParseCommand_GreedyShrinksToShortest(t *testing.T) {
	t.Parallel()

	a := &command.Command{Name: "a"}
	ab := &command.Command{Name: "ab"}
	cfg := testConfig()
	cfg.BySpace = false
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{a, ab}})

	inv, rest, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!ax"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != a {
		t.Errorf("Command = %q, want %q", inv.Command.Name, "a")
	}
	if rest != "x" {
		t.Errorf("rest = %q, want %q", rest, "x")
	}
}

func TestParseCommand_BySpaceTakesWholeToken(t *testing.T) {
	t.Parallel()

	a := &command.Command{Name: "a"}
	ab := &command.Command{Name: "ab"}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{a, ab}})

	inv, rest, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!ab c"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != ab {
		t.Errorf("Command = %q, want %q", inv.Command.Name, "ab")
	}
	if rest != "c" {
		t.Errorf("rest = %q, want %q", rest, "c")
	}

	// "abc" is one token and matches nothing.
	_, _, err = parseAt(t, cfg, reg, nil, nil, guildMessage("!abc"))
	var unknown *UnknownCommandError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownCommandError", err)
	}
	if !unknown.Probed || unknown.Probe != "abc" {
		t.Errorf("unknown = %+v, want probed %q", unknown, "abc")
	}
}

func TestParseCommand_DisabledCommandShortCircuits(t *testing.T) {
	t.Parallel()

	ping := &command.Command{Name: "ping"}
	cfg := testConfig()
	cfg.DisabledCommands = []string{"ping"}
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{ping}})

	_, _, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!ping"))
	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("err = %v, want DispatchError", err)
	}
	if dispatchErr.Reason != ReasonCommandDisabled || dispatchErr.Command != "ping" {
		t.Errorf("err = %+v, want disabled %q", dispatchErr, "ping")
	}
}

func TestParseCommand_DisabledAppliesToUnregisteredProbe(t *testing.T) {
	t.Parallel()

	// The disabled set is consulted on the probed token before a match is
	// required.
	ping := &command.Command{Name: "ping"}
	cfg := testConfig()
	cfg.DisabledCommands = []string{"ghost"}
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{ping}})

	_, _, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!ghost"))
	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("err = %v, want DispatchError", err)
	}
	if dispatchErr.Reason != ReasonCommandDisabled {
		t.Errorf("Reason = %v, want command disabled", dispatchErr.Reason)
	}
}

func TestParseCommand_SubCommandResolves(t *testing.T) {
	t.Parallel()

	add := &command.Command{Name: "add"}
	note := &command.Command{Name: "note", Sub: []*command.Command{add}}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{note}})

	inv, rest, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!note add milk"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != add {
		t.Errorf("Command = %q, want %q", inv.Command.Name, "add")
	}
	if rest != "milk" {
		t.Errorf("rest = %q, want %q", rest, "milk")
	}
}

func TestParseCommand_SubCommandMissFallsBackToParent(t *testing.T) {
	t.Parallel()

	// "!note milk": "milk" matches no sub command, so it stays with the
	// parent as arguments.
	add := &command.Command{Name: "add"}
	note := &command.Command{Name: "note", Sub: []*command.Command{add}}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{note}})

	inv, rest, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!note milk"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != note {
		t.Errorf("Command = %q, want %q", inv.Command.Name, "note")
	}
	if rest != "milk" {
		t.Errorf("rest = %q, want %q", rest, "milk")
	}
}

func TestParseCommand_SubCommandDispatchErrorPropagates(t *testing.T) {
	t.Parallel()

	// A gate rejection on a matched sub command is not masked by the
	// parent fallback.
	add := &command.Command{Name: "add", Options: command.Options{OwnersOnly: true}}
	note := &command.Command{Name: "note", Sub: []*command.Command{add}}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{note}})

	_, _, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!note add"))
	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("err = %v, want DispatchError", err)
	}
	if dispatchErr.Reason != ReasonOnlyForOwners {
		t.Errorf("Reason = %v, want only for owners", dispatchErr.Reason)
	}
}

func TestParseCommand_PrefixedGroup(t *testing.T) {
	t.Parallel()

	kick := &command.Command{Name: "kick"}
	mod := &command.Group{Name: "mod", Prefixes: []string{"mod", "m"}, Commands: []*command.Command{kick}}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, mod)

	for _, input := range []string{"!mod kick bob", "!m kick bob"} {
		inv, rest, err := parseAt(t, cfg, reg, nil, nil, guildMessage(input))
		if err != nil {
			t.Fatalf("ParseCommand(%q): %v", input, err)
		}
		if inv.Group != mod || inv.Command != kick {
			t.Errorf("ParseCommand(%q) = %v/%v, want mod/kick", input, inv.Group, inv.Command)
		}
		if rest != "bob" {
			t.Errorf("rest = %q, want %q", rest, "bob")
		}
	}
}

func TestParseCommand_NestedGroupSettlesOnParent(t *testing.T) {
	t.Parallel()

	// The group name alone, with no deeper group token, resolves to the
	// group's own command map.
	list := &command.Command{Name: "list"}
	inner := &command.Group{Name: "inner", Prefixes: []string{"inner"}, Commands: []*command.Command{list}}
	show := &command.Command{Name: "show"}
	outer := &command.Group{
		Name:      "outer",
		Prefixes:  []string{"outer"},
		Commands:  []*command.Command{show},
		SubGroups: []*command.Group{inner},
	}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, outer)

	inv, _, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!outer show"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Group != outer || inv.Command != show {
		t.Errorf("got %v/%v, want outer/show", inv.Group, inv.Command)
	}

	inv, _, err = parseAt(t, cfg, reg, nil, nil, guildMessage("!outer inner list"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Group != inner || inv.Command != list {
		t.Errorf("got %v/%v, want inner/list", inv.Group, inv.Command)
	}
}

func TestParseCommand_DefaultCommandFallback(t *testing.T) {
	t.Parallel()

	get := &command.Command{Name: "get"}
	set := &command.Command{Name: "set"}
	prefix := &command.Group{
		Name:     "prefix",
		Prefixes: []string{"prefix"},
		Options:  command.Options{DefaultCommand: get},
		Commands: []*command.Command{get, set},
	}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, prefix)

	// No child token at all.
	inv, _, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!prefix"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != get {
		t.Errorf("Command = %v, want default %q", inv.Command, "get")
	}

	// An unmatched child token also falls back.
	inv, rest, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!prefix bogus"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != get {
		t.Errorf("Command = %v, want default %q", inv.Command, "get")
	}
	if rest != "bogus" {
		t.Errorf("rest = %q, want %q", rest, "bogus")
	}
}

func TestParseCommand_HelpPrecedence(t *testing.T) {
	t.Parallel()

	// A command literally named "h" loses to the registered help name.
	h := &command.Command{Name: "h"}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{h}})

	inv, _, err := parseAt(t, cfg, reg, nil, []string{"help", "h"}, guildMessage("!h"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if !inv.IsHelp() || inv.Help != "h" {
		t.Errorf("Invoke = %+v, want Help(%q)", inv, "h")
	}
}

func TestParseCommand_HelpCaseFolded(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general"})

	inv, _, err := parseAt(t, cfg, reg, nil, []string{"help"}, guildMessage("!HELP"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Help != "help" {
		t.Errorf("Help = %q, want %q", inv.Help, "help")
	}
}

func TestParseCommand_CandidateLoopTriesAllGroups(t *testing.T) {
	t.Parallel()

	ban := &command.Command{Name: "ban"}
	first := &command.Group{Name: "first", Prefixes: []string{"first"}}
	second := &command.Group{Name: "second", Prefixes: []string{"second"}, Commands: []*command.Command{ban}}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, first, second)

	inv, _, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!second ban"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Group != second || inv.Command != ban {
		t.Errorf("got %v/%v, want second/ban", inv.Group, inv.Command)
	}
}

// TestParseCommand_LastErrorWins_LaterSuccess covers the intentional
// last-error-wins candidate loop: a permission rejection on an earlier
// group is overridden by a later group's success.
func TestParseCommand_LastErrorWins_LaterSuccess(t *testing.T) {
	t.Parallel()

	kick := &command.Command{
		Name:    "kick",
		Options: command.Options{RequiredPermissions: discordgo.PermissionKickMembers},
	}
	restricted := &command.Group{Name: "restricted", Commands: []*command.Command{kick}}

	fallback := &command.Command{Name: "fallback"}
	catchall := &command.Group{Name: "catchall", Options: command.Options{DefaultCommand: fallback}}

	cfg := testConfig()
	reg := mustRegistry(t, cfg, restricted, catchall)
	roster := &fakeRoster{perms: 0, permsOK: true}

	inv, _, err := parseAt(t, cfg, reg, roster, nil, guildMessage("!kick bob"))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if inv.Command != fallback {
		t.Errorf("Command = %v, want catchall fallback", inv.Command)
	}
}

// TestParseCommand_LastErrorWins_LaterFailure covers the flip side: the
// reported reason is the last candidate's failure, overwriting the earlier
// permission rejection.
func TestParseCommand_LastErrorWins_LaterFailure(t *testing.T) {
	t.Parallel()

	kick := &command.Command{
		Name:    "kick",
		Options: command.Options{RequiredPermissions: discordgo.PermissionKickMembers},
	}
	restricted := &command.Group{Name: "restricted", Commands: []*command.Command{kick}}

	fallback := &command.Command{Name: "fallback"}
	dmOnly := &command.Group{
		Name:    "dmonly",
		Options: command.Options{OnlyIn: command.OnlyInDM, DefaultCommand: fallback},
	}

	cfg := testConfig()
	reg := mustRegistry(t, cfg, restricted, dmOnly)
	roster := &fakeRoster{perms: 0, permsOK: true}

	_, _, err := parseAt(t, cfg, reg, roster, nil, guildMessage("!kick bob"))
	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("err = %v, want DispatchError", err)
	}
	if dispatchErr.Reason != ReasonOnlyForDM {
		t.Errorf("Reason = %v, want only for DMs (last failure wins)", dispatchErr.Reason)
	}
}

func TestParseCommand_UnknownEverywhere(t *testing.T) {
	t.Parallel()

	ping := &command.Command{Name: "ping"}
	cfg := testConfig()
	reg := mustRegistry(t, cfg, &command.Group{Name: "general", Commands: []*command.Command{ping}})

	_, _, err := parseAt(t, cfg, reg, nil, nil, guildMessage("!nosuch"))
	var unknown *UnknownCommandError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownCommandError", err)
	}
}

func TestTryParse_FailedProbeLeavesCursor(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	m, err := newCommandMap(cfg, []*command.Command{{Name: "ping"}})
	if err != nil {
		t.Fatalf("newCommandMap: %v", err)
	}

	for _, bySpace := range []bool{true, false} {
		st := stream.New("pong args")
		before := st.Offset()
		_, _, ok := tryParse(st, &m.nameMap, bySpace, cfg.fold)
		if ok {
			t.Fatalf("bySpace=%v: unexpected match", bySpace)
		}
		if st.Offset() != before {
			t.Errorf("bySpace=%v: offset = %d, want %d", bySpace, st.Offset(), before)
		}
	}
}

func TestTryParse_EmptyMap(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	m, err := newCommandMap(cfg, nil)
	if err != nil {
		t.Fatalf("newCommandMap: %v", err)
	}

	for _, bySpace := range []bool{true, false} {
		st := stream.New("anything")
		_, _, ok := tryParse(st, &m.nameMap, bySpace, cfg.fold)
		if ok {
			t.Errorf("bySpace=%v: match on empty map", bySpace)
		}
	}
}
