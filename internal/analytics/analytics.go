package analytics

import (
	"context"
	"sort"
	"time"

	"despawner/internal/modules/audit"
)

type Service struct {
	log *audit.Logger
}

func New(log *audit.Logger) *Service {
	return &Service{log: log}
}

type Report struct {
	Total   int
	ByType  map[string]int
	Entries []audit.Entry
	Oldest  time.Time
	Newest  time.Time
}

// Types returns the action types present in the report, most frequent first.
func (r Report) Types() []string {
	types := make([]string, 0, len(r.ByType))
	for kind := range r.ByType {
		types = append(types, kind)
	}
	sort.Slice(types, func(i, j int) bool {
		if r.ByType[types[i]] != r.ByType[types[j]] {
			return r.ByType[types[i]] > r.ByType[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}

// Report summarizes the guild's action log over the retention window.
func (s *Service) Report(ctx context.Context, guildID string) Report {
	entries := s.log.Recent(ctx, guildID)

	report := Report{ByType: make(map[string]int), Entries: entries}
	for _, entry := range entries {
		report.Total++
		report.ByType[entry.Type]++
		if report.Oldest.IsZero() || entry.Timestamp.Before(report.Oldest) {
			report.Oldest = entry.Timestamp
		}
		if entry.Timestamp.After(report.Newest) {
			report.Newest = entry.Timestamp
		}
	}
	return report
}
