package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Load when no document exists under the key.
var ErrNotFound = errors.New("document not found")

// PersistenceError reports a failed write. The caller's in-memory state may
// already be ahead of what is on disk.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Backend is a whole-document key-value store. Keys are slash separated
// relative names such as "guild_configs.json" or "logs/123_actions.json".
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close()
}

const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver      string
	DataDir     string
	SQLitePath  string
	PostgresDSN string
}

func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(opts.Driver) {
	case "", DriverFile:
		return NewFileBackend(opts.DataDir)
	case DriverMemory:
		return NewMemoryBackend(), nil
	case DriverSQLite:
		backend, err := NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := backend.Migrate(); err != nil {
			backend.Close()
			return nil, err
		}
		return backend, nil
	case DriverPostgres:
		return NewPostgres(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
