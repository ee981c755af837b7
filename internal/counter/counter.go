package counter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"despawner/internal/storage"

	"go.uber.org/zap"
)

const documentKey = "ban_count.txt"

// Counter is the process-wide number of bans performed. Each increment reads
// the persisted value, so an edit made to the file while the process runs is
// picked up on the next ban.
type Counter struct {
	mu      sync.Mutex
	backend storage.Backend
	logger  *zap.Logger
	last    int64
}

func New(backend storage.Backend, logger *zap.Logger) *Counter {
	return &Counter{backend: backend, logger: logger}
}

// Increment adds one ban and returns the new total. On a persistence failure
// the new total is still returned together with the error.
func (c *Counter) Increment(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.read(ctx) + 1
	c.last = next
	if err := c.backend.Save(ctx, documentKey, []byte(strconv.FormatInt(next, 10))); err != nil {
		return next, err
	}
	return next, nil
}

func (c *Counter) Current(ctx context.Context) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read(ctx)
}

// read returns the persisted count, falling back to the last value this
// process wrote when the document is missing or unreadable.
func (c *Counter) read(ctx context.Context) int64 {
	data, err := c.backend.Load(ctx, documentKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("ban count load failed", zap.Error(err))
		}
		return c.last
	}
	value, err := parse(data)
	if err != nil {
		c.logger.Warn("ban count malformed", zap.Error(err))
		return c.last
	}
	if value < c.last {
		return c.last
	}
	return value
}

func parse(data []byte) (int64, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ban count %q: %w", text, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative ban count %d", value)
	}
	return value, nil
}
