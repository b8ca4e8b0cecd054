package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestSQLiteKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")

	kv, err := NewSQLiteKV(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	if _, ok, err := kv.Get(ctx, StorageKey); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, StorageKey, []byte("one")); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := kv.Set(ctx, StorageKey, []byte("two")); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	v, err := kv.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if v != schemaVersion {
		t.Errorf("expected schema version %d, got %d", schemaVersion, v)
	}
	kv.Close()

	reopened, err := NewSQLiteKV(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, StorageKey)
	if err != nil || !ok || string(got) != "two" {
		t.Fatalf("expected persisted value two, got %q ok=%v err=%v", got, ok, err)
	}

	if err := reopened.Delete(ctx, StorageKey); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, ok, _ := reopened.Get(ctx, StorageKey); ok {
		t.Errorf("expected key to be gone after delete")
	}
}

func TestSQLiteBackedStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	kv, err := OpenKV(DefaultConfig())
	if err != nil {
		t.Fatalf("failed to open kv: %v", err)
	}
	s := NewStore(kv, zerolog.Nop())
	s.Append(ctx, NewUserMessage("first"))
	s.Append(ctx, NewUserMessage("second"))
	kv.Close()

	kv2, err := OpenKV(DefaultConfig())
	if err != nil {
		t.Fatalf("failed to reopen kv: %v", err)
	}
	defer kv2.Close()
	s2 := NewStore(kv2, zerolog.Nop())
	s2.Hydrate(ctx)

	msgs := s2.Messages()
	if len(msgs) != 2 || msgs[1].Content != "second" {
		t.Fatalf("expected both messages after restart, got %+v", msgs)
	}
}
