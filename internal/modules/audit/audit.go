package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"despawner/internal/storage"

	"go.uber.org/zap"
)

// Retention is how long an entry stays in a guild's log.
const Retention = 24 * time.Hour

// Action types shown as the log embed title.
const (
	ActionIDBan      = "ID Ban"
	ActionKeywordBan = "Keyword Ban"
)

type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Details   string    `json:"details"`
	TargetID  string    `json:"target_id,omitempty"`
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Logger keeps one rolling action log document per guild.
type Logger struct {
	mu      sync.Mutex
	backend storage.Backend
	logger  *zap.Logger
	clock   Clock
}

func NewLogger(backend storage.Backend, logger *zap.Logger) *Logger {
	return &Logger{backend: backend, logger: logger, clock: realClock{}}
}

func (l *Logger) WithClock(clock Clock) {
	l.clock = clock
}

// Record appends an entry, drops everything older than Retention and writes
// the guild's log back.
func (l *Logger) Record(ctx context.Context, guildID, actionType, details, targetID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	entries := append(l.load(ctx, guildID), Entry{
		Timestamp: now,
		Type:      actionType,
		Details:   details,
		TargetID:  targetID,
	})
	entries = prune(entries, now)

	l.logger.Info("action",
		zap.String("guild_id", guildID),
		zap.String("type", actionType),
		zap.String("target_id", targetID),
		zap.String("details", details),
	)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode action log: %w", err)
	}
	return l.backend.Save(ctx, key(guildID), data)
}

// Recent returns the guild's entries from the last Retention window in
// insertion order.
func (l *Logger) Recent(ctx context.Context, guildID string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return prune(l.load(ctx, guildID), l.clock.Now())
}

func (l *Logger) load(ctx context.Context, guildID string) []Entry {
	data, err := l.backend.Load(ctx, key(guildID))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Warn("action log load failed", zap.String("guild_id", guildID), zap.Error(err))
		}
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("action log malformed, starting empty", zap.String("guild_id", guildID), zap.Error(err))
		return nil
	}
	return entries
}

func prune(entries []Entry, now time.Time) []Entry {
	kept := entries[:0]
	for _, entry := range entries {
		if now.Sub(entry.Timestamp) < Retention {
			kept = append(kept, entry)
		}
	}
	return kept
}

func key(guildID string) string {
	return "logs/" + guildID + "_actions.json"
}
