package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

func newEntry(sender string, analyzedAt time.Time, ttl time.Duration) *core.HistoryEntry {
	return &core.HistoryEntry{
		Sender:     sender,
		Subject:    "subject",
		Level:      core.RiskSuspicious,
		Score:      55,
		NumURLs:    2,
		AnalyzedAt: analyzedAt,
		ExpiresAt:  analyzedAt.Add(ttl),
	}
}

func TestMemoryHistory_RecentNewestFirst(t *testing.T) {
	t.Parallel()
	h := NewMemoryHistory(zap.NewNop(), time.Hour)
	defer h.Stop()

	now := time.Now()
	for i := 0; i < 5; i++ {
		sender := fmt.Sprintf("sender-%d@example.com", i)
		if err := h.Record(context.Background(), newEntry(sender, now.Add(time.Duration(i)*time.Minute), time.Hour)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := h.Recent(context.Background(), 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Sender != "sender-4@example.com" {
		t.Errorf("first entry = %s, want the newest", entries[0].Sender)
	}
}

func TestMemoryHistory_ExpiredEntriesHidden(t *testing.T) {
	t.Parallel()
	h := NewMemoryHistory(zap.NewNop(), time.Hour)
	defer h.Stop()

	now := time.Now()
	h.Record(context.Background(), newEntry("stale@example.com", now.Add(-2*time.Hour), time.Hour))
	h.Record(context.Background(), newEntry("fresh@example.com", now, time.Hour))

	entries, err := h.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Sender != "fresh@example.com" {
		t.Errorf("entries = %+v, want only the unexpired one", entries)
	}
}

func TestMemoryHistory_CleanupDropsExpired(t *testing.T) {
	t.Parallel()
	h := NewMemoryHistory(zap.NewNop(), time.Hour)
	defer h.Stop()

	now := time.Now()
	h.Record(context.Background(), newEntry("stale@example.com", now.Add(-2*time.Hour), time.Hour))
	h.Record(context.Background(), newEntry("fresh@example.com", now, time.Hour))

	if err := h.Cleanup(context.Background()); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) != 1 {
		t.Errorf("kept %d entries after cleanup, want 1", len(h.entries))
	}
}
