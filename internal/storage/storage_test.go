package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	ctx := context.Background()

	if _, err := backend.Load(ctx, "channels.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := backend.Save(ctx, "logs/1_actions.json", []byte(`[]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := backend.Save(ctx, "logs/1_actions.json", []byte(`[{"type":"Ban"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := backend.Load(ctx, "logs/1_actions.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `[{"type":"Ban"}]` {
		t.Fatalf("unexpected body %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "logs", "1_actions.json")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestFileBackendRejectsEscapingKey(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	err = backend.Save(context.Background(), "../outside.json", []byte("{}"))
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if perr.Key != "../outside.json" {
		t.Fatalf("unexpected key %q", perr.Key)
	}
}

func TestFileBackendHonoursCancelledContext(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = backend.Save(ctx, "channels.json", []byte("{}"))
	var perr *PersistenceError
	if !errors.As(err, &perr) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled PersistenceError, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "channels.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected nothing written, got %v", err)
	}
	if _, err := backend.Load(ctx, "channels.json"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSQLiteBackendUpsert(t *testing.T) {
	backend, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer backend.Close()

	if err := backend.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// migrations are idempotent
	if err := backend.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	ctx := context.Background()
	if _, err := backend.Load(ctx, "ban_count.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := backend.Save(ctx, "ban_count.txt", []byte("1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := backend.Save(ctx, "ban_count.txt", []byte("2")); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := backend.Load(ctx, "ban_count.txt")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != "2" {
		t.Fatalf("expected 2, got %q", got)
	}
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("DESPAWNER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DESPAWNER_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	backend, err := NewPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("new postgres: %v", err)
	}
	defer backend.Close()

	if err := backend.Save(ctx, "test/doc.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := backend.Load(ctx, "test/doc.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "redis"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
