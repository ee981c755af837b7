package analytics

import (
	"context"
	"testing"
	"time"

	"despawner/internal/modules/audit"
	"despawner/internal/storage"

	"go.uber.org/zap"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

func TestReportCountsByType(t *testing.T) {
	ctx := context.Background()
	log := audit.NewLogger(storage.NewMemoryBackend(), zap.NewNop())
	start := time.Unix(1_700_000_000, 0)

	log.WithClock(fakeClock{now: start})
	_ = log.Record(ctx, "g1", audit.ActionIDBan, "a", "1")
	log.WithClock(fakeClock{now: start.Add(time.Hour)})
	_ = log.Record(ctx, "g1", audit.ActionKeywordBan, "b", "2")
	log.WithClock(fakeClock{now: start.Add(2 * time.Hour)})
	_ = log.Record(ctx, "g1", audit.ActionKeywordBan, "c", "3")

	report := New(log).Report(ctx, "g1")
	if report.Total != 3 {
		t.Fatalf("expected 3, got %d", report.Total)
	}
	if report.ByType[audit.ActionKeywordBan] != 2 || report.ByType[audit.ActionIDBan] != 1 {
		t.Fatalf("unexpected counts %v", report.ByType)
	}
	if types := report.Types(); types[0] != audit.ActionKeywordBan {
		t.Fatalf("expected most frequent type first, got %v", types)
	}
	if !report.Oldest.Equal(start) || !report.Newest.Equal(start.Add(2*time.Hour)) {
		t.Fatalf("unexpected range %v - %v", report.Oldest, report.Newest)
	}
}

func TestReportEmptyGuild(t *testing.T) {
	log := audit.NewLogger(storage.NewMemoryBackend(), zap.NewNop())
	report := New(log).Report(context.Background(), "g1")
	if report.Total != 0 || len(report.Types()) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
