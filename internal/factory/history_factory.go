package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/adapters/history"
	"github.com/mikey/phishing-link-analyzer/internal/config"
	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// HistoryFactory creates verdict history repositories based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryRepository creates a history repository based on the configuration
func (f *HistoryFactory) CreateHistoryRepository() (core.HistoryRepository, error) {
	historyCfg := f.cfg.GetHistory()

	switch historyCfg.Type {
	case "memory":
		return history.NewMemoryHistory(f.logger, historyCfg.CleanupFrequency), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(historyCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return history.NewSQLiteHistory(historyCfg.SQLitePath, f.logger, historyCfg.CleanupFrequency)
	case "mysql":
		return history.NewMySQLHistory(historyCfg.MySQLDSN, f.logger, historyCfg.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported history type: %s", historyCfg.Type)
	}
}

// GetHistoryTTL returns the configured history TTL
func (f *HistoryFactory) GetHistoryTTL() time.Duration {
	return f.cfg.GetHistory().TTL
}

// IsHistoryEnabled returns whether verdict history is enabled
func (f *HistoryFactory) IsHistoryEnabled() bool {
	return f.cfg.GetHistory().Enabled
}
