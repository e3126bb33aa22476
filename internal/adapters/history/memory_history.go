// Package history provides write-only audit storage for completed
// analysis verdicts. The engine never reads history while analyzing.
package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// MemoryHistory is an in-memory implementation of the HistoryRepository interface
type MemoryHistory struct {
	entries     []*core.HistoryEntry
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryHistory creates a new in-memory history store
func NewMemoryHistory(logger *zap.Logger, cleanupFreq time.Duration) *MemoryHistory {
	h := &MemoryHistory{
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go h.startCleanupTask()

	return h
}

// Record stores an audit entry for a finished analysis
func (h *MemoryHistory) Record(ctx context.Context, entry *core.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	return nil
}

// Recent returns up to limit entries, newest first
func (h *MemoryHistory) Recent(ctx context.Context, limit int) ([]*core.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	out := make([]*core.HistoryEntry, 0, limit)
	for i := len(h.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if now.After(h.entries[i].ExpiresAt) {
			continue
		}
		out = append(out, h.entries[i])
	}
	return out, nil
}

// Cleanup removes expired entries
func (h *MemoryHistory) Cleanup(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	kept := h.entries[:0]
	expiredCount := 0
	for _, entry := range h.entries {
		if now.After(entry.ExpiresAt) {
			expiredCount++
			continue
		}
		kept = append(kept, entry)
	}
	h.entries = kept

	h.logger.Debug("Cleaned up expired history entries", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (h *MemoryHistory) startCleanupTask() {
	ticker := time.NewTicker(h.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.Cleanup(context.Background()); err != nil {
				h.logger.Error("Failed to clean up history", zap.Error(err))
			}
		case <-h.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task
func (h *MemoryHistory) Stop() {
	close(h.stopCh)
}
