package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/adapters/fetcher"
	"github.com/mikey/phishing-link-analyzer/internal/config"
	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// FetcherFactory creates page fetchers based on configuration
type FetcherFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFetcherFactory creates a new fetcher factory
func NewFetcherFactory(cfg *config.Config, logger *zap.Logger) *FetcherFactory {
	return &FetcherFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFetcher creates a page fetcher based on the configuration. A nil
// fetcher with nil error means page fetching is disabled.
func (f *FetcherFactory) CreateFetcher() (core.PageFetcher, error) {
	fetcherCfg := f.cfg.GetFetcher()
	if !fetcherCfg.Enabled {
		return nil, nil
	}

	return fetcher.NewHTTPFetcher(
		fetcherCfg.Endpoints,
		fetcherCfg.Timeout,
		fetcherCfg.MaxBodySize,
		fetcherCfg.UserAgent,
		f.logger,
	), nil
}

// IsFetchingEnabled returns whether destination pages are fetched
func (f *FetcherFactory) IsFetchingEnabled() bool {
	return f.cfg.GetFetcher().Enabled
}
