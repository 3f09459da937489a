package bot

import (
	"path/filepath"
	"strings"
	"testing"
)

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PrefixStorePath = filepath.Join(t.TempDir(), "prefixes.db")
	b, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { b.prefixes.Close() })
	return b
}

func TestNew_RegistersHandlersForAllCommands(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)
	for _, g := range b.groups {
		for _, c := range g.Commands {
			if _, ok := b.handlers[c]; !ok {
				t.Errorf("command %q has no handler", c.Name)
			}
		}
	}
}

func TestHelpText_ListsCommands(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)
	help := b.helpText()
	for _, want := range []string{"ping", "status", "prefix"} {
		if !strings.Contains(help, want) {
			t.Errorf("help text missing %q:\n%s", want, help)
		}
	}
}

func TestNew_StoreDynamicPrefixRegistered(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)
	if len(b.dispatchCfg.DynamicPrefixes) == 0 {
		t.Error("prefix store not registered as dynamic prefix")
	}
}
