package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// MySQLHistory is a MySQL implementation of the HistoryRepository interface
type MySQLHistory struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLHistory creates a new MySQL history store
func NewMySQLHistory(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLHistory, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdict_history (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			sender VARCHAR(255),
			subject VARCHAR(998),
			level VARCHAR(16),
			score FLOAT,
			num_urls INT,
			analyzed_at DATETIME,
			expires_at DATETIME,
			INDEX idx_history_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	h := &MySQLHistory{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go h.startCleanupTask()

	return h, nil
}

// Record stores an audit entry for a finished analysis
func (h *MySQLHistory) Record(ctx context.Context, entry *core.HistoryEntry) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO verdict_history (sender, subject, level, score, num_urls, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Sender, entry.Subject, string(entry.Level), entry.Score, entry.NumURLs,
		entry.AnalyzedAt.UTC().Format("2006-01-02 15:04:05"),
		entry.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (h *MySQLHistory) Recent(ctx context.Context, limit int) ([]*core.HistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT sender, subject, level, score, num_urls, analyzed_at, expires_at
		FROM verdict_history
		WHERE expires_at > UTC_TIMESTAMP()
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
		entry.AnalyzedAt, err = time.Parse("2006-01-02 15:04:05", analyzedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse analyzed_at timestamp: %w", err)
		}
		entry.ExpiresAt, err = time.Parse("2006-01-02 15:04:05", expiresAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expires_at timestamp: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Cleanup removes expired entries
func (h *MySQLHistory) Cleanup(ctx context.Context) error {
	result, err := h.db.ExecContext(ctx, `
		DELETE FROM verdict_history
		WHERE expires_at <= UTC_TIMESTAMP()
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
func (h *MySQLHistory) startCleanupTask() {
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
func (h *MySQLHistory) Stop() {
	close(h.stopCh)
	if err := h.db.Close(); err != nil {
		h.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
