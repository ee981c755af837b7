package moderation

import (
	"context"
	"testing"
)

func TestScanReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ids("111", "444"))
	f.engine.SetSelfID("999")

	members := []Member{
		{ID: "999", DisplayName: "Despawner"},
		{ID: "111", DisplayName: "spawnist"},
		{ID: "222", Nickname: "darkship"},
		{ID: "333", DisplayName: "friendly"},
		{ID: "444"},
	}
	report, err := f.engine.Scan(ctx, guildID, members)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if report.Checked != 4 {
		t.Fatalf("expected 4 checked (self skipped), got %d", report.Checked)
	}
	if report.DenylistSize != 2 {
		t.Fatalf("expected denylist size 2, got %d", report.DenylistSize)
	}
	if len(report.IDMatches) != 2 || len(report.KeywordMatches) != 1 {
		t.Fatalf("unexpected matches id=%v keyword=%v", report.IDMatches, report.KeywordMatches)
	}
	if report.Banned != 3 {
		t.Fatalf("expected 3 bans, got %d", report.Banned)
	}
	// 111 matches both lists and is banned once, for its id
	want := []string{"111", "222", "444"}
	for i, id := range want {
		if f.platform.bans[i] != id {
			t.Fatalf("expected bans in member order %v, got %v", want, f.platform.bans)
		}
	}
	if f.platform.reasons[0] != "Despawner banned 111" {
		t.Fatalf("expected id ban reason, got %q", f.platform.reasons[0])
	}
	if got := f.bans.Current(ctx); got != 3 {
		t.Fatalf("expected ban counter 3, got %d", got)
	}
}

func TestScanStopsOnCancel(t *testing.T) {
	f := newFixture(t, ids("111"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.engine.Scan(ctx, guildID, []Member{{ID: "111"}})
	if err == nil {
		t.Fatalf("expected context error")
	}
	if report.Checked != 0 || len(f.platform.bans) != 0 {
		t.Fatalf("expected nothing processed, got %+v", report)
	}
}
