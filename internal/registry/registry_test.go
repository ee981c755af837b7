package registry

import (
	"context"
	"errors"
	"testing"

	"despawner/internal/storage"

	"go.uber.org/zap"
)

func TestChannelsSetAndReload(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	channels := NewChannels(ctx, backend, zap.NewNop())

	if _, ok := channels.Get("g1"); ok {
		t.Fatalf("expected no channel before set")
	}
	if _, err := channels.Set(ctx, "g1", "998877665544"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reloaded := NewChannels(ctx, backend, zap.NewNop())
	got, ok := reloaded.Get("g1")
	if !ok || got != "998877665544" {
		t.Fatalf("expected persisted channel, got %q", got)
	}
}

func TestChannelsRejectNonSnowflake(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	channels := NewChannels(ctx, backend, zap.NewNop())

	if _, err := channels.Set(ctx, "g1", "#general"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if backend.Saves() != 0 {
		t.Fatalf("expected no persistence for invalid value")
	}
}

func TestChannelsAcceptNumericDocument(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	backend.Put(channelsKey, []byte(`{"g1": 123456789012345678, "g2": "bad", "g3": null}`))

	channels := NewChannels(ctx, backend, zap.NewNop())
	if got, _ := channels.Get("g1"); got != "123456789012345678" {
		t.Fatalf("expected numeric channel id preserved exactly, got %q", got)
	}
	if _, ok := channels.Get("g2"); ok {
		t.Fatalf("expected invalid entry dropped")
	}
	if _, ok := channels.Get("g3"); ok {
		t.Fatalf("expected null entry dropped")
	}
}

func TestAppealsNormalizeAndClear(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	appeals := NewAppeals(ctx, backend, zap.NewNop())

	link, err := appeals.Set(ctx, "g1", "Forms.Example.com/appeal?utm_source=discord")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if link != "https://forms.example.com/appeal" {
		t.Fatalf("unexpected link %q", link)
	}
	if err := appeals.Clear(ctx, "g1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := NewAppeals(ctx, backend, zap.NewNop()).Get("g1"); ok {
		t.Fatalf("expected cleared link to stay cleared after reload")
	}
}

func TestMalformedDocumentStartsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	backend.Put(appealsKey, []byte(`[1,2,3]`))

	appeals := NewAppeals(ctx, backend, zap.NewNop())
	if _, ok := appeals.Get("g1"); ok {
		t.Fatalf("expected empty registry")
	}
}

func TestSetPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	appeals := NewAppeals(ctx, backend, zap.NewNop())
	backend.FailSaves(errors.New("read-only fs"))

	_, err := appeals.Set(ctx, "g1", "https://example.com")
	var perr *storage.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if got, _ := appeals.Get("g1"); got != "https://example.com" {
		t.Fatalf("expected in-memory value ahead of disk, got %q", got)
	}
}
