package guildconfig

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"despawner/internal/storage"

	"go.uber.org/zap"
)

func TestGetMaterializesDefault(t *testing.T) {
	backend := storage.NewMemoryBackend()
	store := New(context.Background(), backend, zap.NewNop())

	cfg := store.Get(context.Background(), "g1")
	if cfg != Default() {
		t.Fatalf("expected default config, got %+v", cfg)
	}

	var doc map[string]map[string]any
	if err := json.Unmarshal(mustLoad(t, backend), &doc); err != nil {
		t.Fatalf("decode persisted doc: %v", err)
	}
	if _, ok := doc["g1"]; !ok {
		t.Fatalf("expected g1 to be persisted")
	}
	if len(doc["g1"]) != len(Keys) {
		t.Fatalf("expected %d keys, got %d", len(Keys), len(doc["g1"]))
	}
}

func TestUpdateRejectsInvalidEnum(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ctx := context.Background()
	store := New(ctx, backend, zap.NewNop())
	before := store.Get(ctx, "g1")
	saves := backend.Saves()

	err := store.Update(ctx, "g1", KeyIDBanBehavior, "noop")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if backend.Saves() != saves {
		t.Fatalf("expected no persistence on invalid update")
	}
	if store.Get(ctx, "g1") != before {
		t.Fatalf("config changed after rejected update")
	}
}

func TestUpdateRejectsUnknownKey(t *testing.T) {
	store := New(context.Background(), storage.NewMemoryBackend(), zap.NewNop())
	err := store.Update(context.Background(), "g1", "appeal_link", "https://example.com")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Key != "appeal_link" {
		t.Fatalf("expected unknown setting error, got %v", err)
	}
}

func TestUpdateCoercesBoolStrings(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := New(ctx, backend, zap.NewNop())

	if err := store.Update(ctx, "g1", KeyDMOnBan, "no"); err != nil {
		t.Fatalf("update no: %v", err)
	}
	if store.Get(ctx, "g1").DMOnBan {
		t.Fatalf("expected dm_on_ban false")
	}
	if err := store.Update(ctx, "g1", KeyDMOnBan, "yes"); err != nil {
		t.Fatalf("update yes: %v", err)
	}
	if !store.Get(ctx, "g1").DMOnBan {
		t.Fatalf("expected dm_on_ban true")
	}
	if err := store.Update(ctx, "g1", KeyDMOnBan, "maybe"); err == nil {
		t.Fatalf("expected maybe to be rejected")
	}
	if !store.Get(ctx, "g1").DMOnBan {
		t.Fatalf("rejected update must not change state")
	}
}

func TestReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := New(ctx, backend, zap.NewNop())

	if err := store.Update(ctx, "g1", KeyKeywordBanBehavior, "notify"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Update(ctx, "g1", KeyLogBans, false); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Update(ctx, "g2", KeyIDBanBehavior, "IGNORE"); err != nil {
		t.Fatalf("update: %v", err)
	}

	reloaded := New(ctx, backend, zap.NewNop())
	for _, guildID := range []string{"g1", "g2"} {
		if got, want := reloaded.Get(ctx, guildID), store.Get(ctx, guildID); got != want {
			t.Fatalf("guild %s: expected %+v, got %+v", guildID, want, got)
		}
	}
	if reloaded.Get(ctx, "g2").IDBanBehavior != BehaviorIgnore {
		t.Fatalf("expected normalized ignore behavior")
	}
}

func TestLoadRepairsSchemaDrift(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	backend.Put(documentKey, []byte(`{
		"g1": {"id_ban_behavior": "notify", "appeal_link": "x", "dm_on_ban": "bogus"},
		"g2": "not an object"
	}`))

	store := New(ctx, backend, zap.NewNop())
	cfg := store.Get(ctx, "g1")
	if cfg.IDBanBehavior != BehaviorNotify {
		t.Fatalf("expected notify preserved, got %s", cfg.IDBanBehavior)
	}
	if !cfg.DMOnBan {
		t.Fatalf("expected invalid dm_on_ban to fall back to default")
	}
	if store.Get(ctx, "g2") != Default() {
		t.Fatalf("expected g2 reset to default")
	}

	var doc map[string]map[string]any
	if err := json.Unmarshal(mustLoad(t, backend), &doc); err != nil {
		t.Fatalf("decode repaired doc: %v", err)
	}
	if _, ok := doc["g1"]["appeal_link"]; ok {
		t.Fatalf("expected unknown key pruned on disk")
	}
	if len(doc["g1"]) != len(Keys) {
		t.Fatalf("expected all keys backfilled, got %v", doc["g1"])
	}
}

func TestLoadMalformedDocumentStartsFresh(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	backend.Put(documentKey, []byte(`{not json`))

	store := New(ctx, backend, zap.NewNop())
	if store.Get(ctx, "g1") != Default() {
		t.Fatalf("expected default config")
	}
}

func TestUpdatePersistenceFailureKeepsMemoryAhead(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := New(ctx, backend, zap.NewNop())
	store.Get(ctx, "g1")

	backend.FailSaves(errors.New("disk full"))
	err := store.Update(ctx, "g1", KeyNotifyStaff, false)
	var perr *storage.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if store.Get(ctx, "g1").NotifyStaff {
		t.Fatalf("expected in-memory value to reflect the update")
	}
}

func mustLoad(t *testing.T, backend storage.Backend) []byte {
	t.Helper()
	data, err := backend.Load(context.Background(), documentKey)
	if err != nil {
		t.Fatalf("load %s: %v", documentKey, err)
	}
	return data
}
