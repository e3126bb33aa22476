package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// SQLiteHistory is a SQLite implementation of the HistoryRepository interface
type SQLiteHistory struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteHistory creates a new SQLite history store
func NewSQLiteHistory(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdict_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender TEXT,
			subject TEXT,
			level TEXT,
			score REAL,
			num_urls INTEGER,
			analyzed_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_history_expires_at ON verdict_history(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	h := &SQLiteHistory{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go h.startCleanupTask()

	return h, nil
}

// Record stores an audit entry for a finished analysis
func (h *SQLiteHistory) Record(ctx context.Context, entry *core.HistoryEntry) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO verdict_history (sender, subject, level, score, num_urls, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Sender, entry.Subject, string(entry.Level), entry.Score, entry.NumURLs,
		entry.AnalyzedAt.Format(time.RFC3339), entry.ExpiresAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]*core.HistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT sender, subject, level, score, num_urls, analyzed_at, expires_at
		FROM verdict_history
		WHERE expires_at > datetime('now')
		ORDER BY analyzed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*core.HistoryEntry
	for rows.Next() {
		var entry core.HistoryEntry
		var level, analyzedAt, expiresAt string
		if err := rows.Scan(&entry.Sender, &entry.Subject, &level, &entry.Score,
			&entry.NumURLs, &analyzedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entry.Level = core.RiskLevel(level)
		if entry.AnalyzedAt, err = time.Parse(time.RFC3339, analyzedAt); err != nil {
			h.logger.Warn("Failed to parse analyzed_at timestamp", zap.Error(err))
		}
		if entry.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
			h.logger.Warn("Failed to parse expires_at timestamp", zap.Error(err))
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Cleanup removes expired entries
func (h *SQLiteHistory) Cleanup(ctx context.Context) error {
	result, err := h.db.ExecContext(ctx, `
		DELETE FROM verdict_history
		WHERE expires_at <= datetime('now')
	`)
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		h.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		h.logger.Debug("Cleaned up expired history entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (h *SQLiteHistory) startCleanupTask() {
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

// Stop stops the background cleanup task and closes the database connection
func (h *SQLiteHistory) Stop() {
	close(h.stopCh)
	if err := h.db.Close(); err != nil {
		h.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
