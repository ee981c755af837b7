package denylist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"despawner/internal/utils"

	"go.uber.org/zap"
)

// Store is the set of banned member identifiers loaded from a CSV file.
// Reload builds a fresh set and swaps it in, so readers never observe a
// partially loaded list.
type Store struct {
	mu     sync.RWMutex
	path   string
	ids    map[string]struct{}
	logger *zap.Logger
}

func New(path string, logger *zap.Logger) *Store {
	return &Store{path: path, ids: make(map[string]struct{}), logger: logger}
}

// Reload re-reads the backing file. A missing file yields an empty set; a
// malformed file leaves the previous set in place and returns the error.
func (s *Store) Reload() (int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("denylist file not found, using empty list", zap.String("path", s.path))
			s.swap(make(map[string]struct{}))
			return 0, nil
		}
		s.logger.Error("denylist open failed", zap.String("path", s.path), zap.Error(err))
		return s.Len(), fmt.Errorf("open denylist: %w", err)
	}
	defer f.Close()

	ids, err := Parse(f)
	if err != nil {
		s.logger.Error("denylist parse failed, keeping previous list", zap.String("path", s.path), zap.Error(err))
		return s.Len(), err
	}
	s.swap(ids)
	s.logger.Info("denylist loaded", zap.String("path", s.path), zap.Int("entries", len(ids)))
	return len(ids), nil
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[strings.TrimSpace(id)]
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Store) swap(ids map[string]struct{}) {
	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()
}

// Parse reads delimited records and returns the set of valid identifiers.
// When the first record has an "id" column it is treated as a header and that
// column is used; otherwise the first column holds the identifier.
func Parse(r io.Reader) (map[string]struct{}, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	ids := make(map[string]struct{})
	column := 0
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse denylist: %w", err)
		}
		if first {
			first = false
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
			if idx := headerColumn(record); idx >= 0 {
				column = idx
				continue
			}
		}
		if column >= len(record) {
			continue
		}
		id := strings.TrimSpace(record[column])
		if !utils.IsSnowflake(id) {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

func headerColumn(record []string) int {
	for i, field := range record {
		if strings.EqualFold(strings.TrimSpace(field), "id") {
			return i
		}
	}
	return -1
}
