package counter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"despawner/internal/storage"

	"go.uber.org/zap"
)

func TestIncrementPersists(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	c := New(backend, zap.NewNop())

	if got := c.Current(ctx); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	for i := int64(1); i <= 3; i++ {
		got, err := c.Increment(ctx)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}

	data, err := backend.Load(ctx, documentKey)
	if err != nil || string(data) != "3" {
		t.Fatalf("expected persisted 3, got %q (%v)", data, err)
	}
	if got := New(backend, zap.NewNop()).Current(ctx); got != 3 {
		t.Fatalf("expected reload to see 3, got %d", got)
	}
}

func TestIncrementContinuesFromFile(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	backend.Put(documentKey, []byte("41\n"))

	got, err := New(backend, zap.NewNop()).Increment(ctx)
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %d (%v)", got, err)
	}
}

func TestMalformedCountStartsAtZero(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	backend.Put(documentKey, []byte("lots"))

	got, err := New(backend, zap.NewNop()).Increment(ctx)
	if err != nil || got != 1 {
		t.Fatalf("expected 1, got %d (%v)", got, err)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	c := New(backend, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Increment(ctx)
		}()
	}
	wg.Wait()

	if got := c.Current(ctx); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestIncrementPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	c := New(backend, zap.NewNop())
	backend.FailSaves(errors.New("disk full"))

	got, err := c.Increment(ctx)
	var perr *storage.PersistenceError
	if !errors.As(err, &perr) || got != 1 {
		t.Fatalf("expected PersistenceError with count 1, got %d (%v)", got, err)
	}
	// the process keeps counting from what it last wrote
	if got := c.Current(ctx); got != 1 {
		t.Fatalf("expected 1 held in memory, got %d", got)
	}
}
