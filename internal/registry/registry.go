package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"despawner/internal/storage"
	"despawner/internal/utils"

	"go.uber.org/zap"
)

const (
	channelsKey = "channels.json"
	appealsKey  = "appeal_links.json"
)

var ErrInvalidValue = errors.New("invalid registry value")

// Store maps a guild to a single string value and persists the whole mapping
// after every change.
type Store struct {
	mu        sync.RWMutex
	key       string
	backend   storage.Backend
	logger    *zap.Logger
	normalize func(string) (string, error)
	values    map[string]string
}

// NewChannels returns the registry of per-guild output channels.
func NewChannels(ctx context.Context, backend storage.Backend, logger *zap.Logger) *Store {
	return load(ctx, channelsKey, backend, logger, func(value string) (string, error) {
		if !utils.IsSnowflake(value) {
			return "", fmt.Errorf("%w: channel id %q", ErrInvalidValue, value)
		}
		return value, nil
	})
}

// NewAppeals returns the registry of per-guild appeal links.
func NewAppeals(ctx context.Context, backend storage.Backend, logger *zap.Logger) *Store {
	return load(ctx, appealsKey, backend, logger, func(value string) (string, error) {
		link, err := utils.NormalizeLink(value)
		if err != nil {
			return "", fmt.Errorf("%w: appeal link %q", ErrInvalidValue, value)
		}
		return link, nil
	})
}

func load(ctx context.Context, key string, backend storage.Backend, logger *zap.Logger, normalize func(string) (string, error)) *Store {
	s := &Store{
		key:       key,
		backend:   backend,
		logger:    logger.With(zap.String("registry", key)),
		normalize: normalize,
		values:    make(map[string]string),
	}

	data, err := backend.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("registry load failed, starting empty", zap.Error(err))
		}
		return s
	}

	// older documents stored channel ids as numbers
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		s.logger.Error("registry document malformed, starting empty", zap.Error(err))
		return s
	}
	for guildID, value := range raw {
		var text string
		switch v := value.(type) {
		case string:
			text = v
		case json.Number:
			text = v.String()
		default:
			s.logger.Warn("registry entry dropped", zap.String("guild_id", guildID))
			continue
		}
		if text == "" {
			continue
		}
		normalized, err := s.normalize(text)
		if err != nil {
			s.logger.Warn("registry entry dropped", zap.String("guild_id", guildID), zap.Error(err))
			continue
		}
		s.values[guildID] = normalized
	}
	return s
}

func (s *Store) Get(guildID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[guildID]
	return value, ok
}

// Set validates and stores the value, returning its normalized form.
func (s *Store) Set(ctx context.Context, guildID, value string) (string, error) {
	normalized, err := s.normalize(value)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[guildID] = normalized
	return normalized, s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[guildID]; !ok {
		return nil
	}
	delete(s.values, guildID)
	return s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	return s.backend.Save(ctx, s.key, data)
}
