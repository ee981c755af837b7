package guildconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"despawner/internal/storage"

	"go.uber.org/zap"
)

const documentKey = "guild_configs.json"

// Store holds every guild's configuration and rewrites the whole document on
// each mutation.
type Store struct {
	mu      sync.Mutex
	backend storage.Backend
	logger  *zap.Logger
	configs map[string]GuildConfig
}

// New loads the configuration document. Missing or malformed documents fall
// back to an empty set; entries that drifted from the schema are repaired and
// written back.
func New(ctx context.Context, backend storage.Backend, logger *zap.Logger) *Store {
	s := &Store{backend: backend, logger: logger, configs: make(map[string]GuildConfig)}

	data, err := backend.Load(ctx, documentKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Info("creating guild config document")
		s.persistLogged(ctx)
		return s
	case err != nil:
		logger.Error("guild config load failed, using defaults", zap.Error(err))
		return s
	}

	configs, repaired, err := decode(data)
	if err != nil {
		logger.Error("guild config document malformed, starting fresh", zap.Error(err))
		s.persistLogged(ctx)
		return s
	}
	s.configs = configs
	if repaired {
		logger.Info("guild config schema repaired", zap.Int("guilds", len(configs)))
		s.persistLogged(ctx)
	}
	return s
}

// Get returns the guild's configuration, materializing the default if needed.
func (s *Store) Get(ctx context.Context, guildID string) GuildConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg, ok := s.configs[guildID]; ok {
		return cfg
	}
	cfg := Default()
	s.configs[guildID] = cfg
	s.persistLogged(ctx)
	return cfg
}

// Update validates and applies a single setting. Validation failures return a
// *ValidationError and leave state untouched. A persistence failure is
// returned after the in-memory value has already changed.
func (s *Store) Update(ctx context.Context, guildID, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[guildID]
	if !ok {
		cfg = Default()
	}
	if err := cfg.apply(key, value); err != nil {
		return err
	}
	s.configs[guildID] = cfg
	return s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) error {
	data, err := json.MarshalIndent(s.configs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode guild configs: %w", err)
	}
	return s.backend.Save(ctx, documentKey, data)
}

func (s *Store) persistLogged(ctx context.Context) {
	if err := s.persist(ctx); err != nil {
		s.logger.Error("guild config save failed", zap.Error(err))
	}
}

// decode parses the raw document, pruning unknown keys, backfilling missing
// ones and replacing values that cannot be coerced with their defaults.
func decode(data []byte) (map[string]GuildConfig, bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}

	configs := make(map[string]GuildConfig, len(raw))
	repaired := false
	for guildID, body := range raw {
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
			configs[guildID] = Default()
			repaired = true
			continue
		}
		cfg := Default()
		for key, value := range fields {
			if !IsKey(key) {
				repaired = true
				continue
			}
			if err := cfg.apply(key, value); err != nil || !canonical(cfg, key, value) {
				repaired = true
			}
		}
		for _, key := range Keys {
			if _, ok := fields[key]; !ok {
				repaired = true
			}
		}
		configs[guildID] = cfg
	}
	return configs, repaired, nil
}

// canonical reports whether the stored value already has the exact form the
// store would write.
func canonical(cfg GuildConfig, key string, value any) bool {
	want, _ := cfg.Value(key)
	switch v := value.(type) {
	case bool:
		return fmt.Sprintf("%t", v) == want
	case string:
		return (key == KeyIDBanBehavior || key == KeyKeywordBanBehavior) && v == want
	default:
		return false
	}
}
