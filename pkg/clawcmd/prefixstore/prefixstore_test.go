package prefixstore

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "guild-1"); err != nil || ok {
		t.Fatalf("Get on empty store = %v/%v, want miss", ok, err)
	}

	if err := store.Set(ctx, "guild-1", "?"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	prefix, ok, err := store.Get(ctx, "guild-1")
	if err != nil || !ok {
		t.Fatalf("Get = %v/%v, want hit", ok, err)
	}
	if prefix != "?" {
		t.Errorf("prefix = %q, want %q", prefix, "?")
	}

	// Set replaces.
	if err := store.Set(ctx, "guild-1", "$"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	prefix, _, _ = store.Get(ctx, "guild-1")
	if prefix != "$" {
		t.Errorf("prefix after replace = %q, want %q", prefix, "$")
	}

	if err := store.Delete(ctx, "guild-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "guild-1"); ok {
		t.Error("Get after Delete = hit, want miss")
	}
}

type testMessage struct {
	guild string
}

func (m *testMessage) AuthorID() string  { return "user" }
func (m *testMessage) ChannelID() string { return "chan" }
func (m *testMessage) GuildID() string   { return m.guild }
func (m *testMessage) IsPrivate() bool   { return m.guild == "" }
func (m *testMessage) Content() string   { return "" }

func TestStore_DynamicPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "guild-1", "?"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	fn := store.DynamicPrefix()

	if p, ok := fn(ctx, &testMessage{guild: "guild-1"}); !ok || p != "?" {
		t.Errorf("DynamicPrefix = %q/%v, want ?/true", p, ok)
	}
	if _, ok := fn(ctx, &testMessage{guild: "guild-2"}); ok {
		t.Error("DynamicPrefix for unconfigured guild = true, want false")
	}
	if _, ok := fn(ctx, &testMessage{}); ok {
		t.Error("DynamicPrefix for DM = true, want false")
	}
}
