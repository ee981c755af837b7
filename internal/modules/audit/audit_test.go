package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"despawner/internal/storage"

	"go.uber.org/zap"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

func TestRecordKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	log := NewLogger(storage.NewMemoryBackend(), zap.NewNop())
	start := time.Unix(1_700_000_000, 0)

	for i, target := range []string{"1", "2", "3"} {
		log.WithClock(fakeClock{now: start.Add(time.Duration(i) * time.Minute)})
		if err := log.Record(ctx, "g1", ActionIDBan, "banned "+target, target); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries := log.Recent(ctx, "g1")
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"1", "2", "3"} {
		if entries[i].TargetID != want {
			t.Fatalf("entry %d: expected target %s, got %s", i, want, entries[i].TargetID)
		}
	}
	if len(log.Recent(ctx, "g2")) != 0 {
		t.Fatalf("expected guild logs to be separate")
	}
}

func TestRecordPrunesOldEntries(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	log := NewLogger(backend, zap.NewNop())
	start := time.Unix(1_700_000_000, 0)

	log.WithClock(fakeClock{now: start})
	_ = log.Record(ctx, "g1", ActionIDBan, "old", "1")
	log.WithClock(fakeClock{now: start.Add(23 * time.Hour)})
	_ = log.Record(ctx, "g1", ActionIDBan, "recent", "2")
	log.WithClock(fakeClock{now: start.Add(24 * time.Hour)})
	_ = log.Record(ctx, "g1", ActionIDBan, "new", "3")

	entries := log.Recent(ctx, "g1")
	if len(entries) != 2 || entries[0].Details != "recent" || entries[1].Details != "new" {
		t.Fatalf("unexpected entries after prune: %+v", entries)
	}

	// the pruned entry is gone from the stored document too
	reloaded := NewLogger(backend, zap.NewNop())
	reloaded.WithClock(fakeClock{now: start})
	if got := len(reloaded.Recent(ctx, "g1")); got != 2 {
		t.Fatalf("expected 2 persisted entries, got %d", got)
	}
}

func TestMalformedLogStartsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	backend.Put(key("g1"), []byte("{not json"))
	log := NewLogger(backend, zap.NewNop())

	if err := log.Record(ctx, "g1", ActionKeywordBan, "keyword", "9"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := len(log.Recent(ctx, "g1")); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
}

func TestRecordPersistenceFailure(t *testing.T) {
	backend := storage.NewMemoryBackend()
	backend.FailSaves(errors.New("read-only"))
	log := NewLogger(backend, zap.NewNop())

	err := log.Record(context.Background(), "g1", ActionIDBan, "x", "1")
	var perr *storage.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}
