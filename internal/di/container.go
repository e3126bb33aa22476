package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/adapters/eml"
	"github.com/mikey/phishing-link-analyzer/internal/analyzer"
	"github.com/mikey/phishing-link-analyzer/internal/config"
	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/extract"
	"github.com/mikey/phishing-link-analyzer/internal/factory"
	"github.com/mikey/phishing-link-analyzer/internal/ignore"
	"github.com/mikey/phishing-link-analyzer/internal/logging"
	"github.com/mikey/phishing-link-analyzer/internal/ports"
	"github.com/mikey/phishing-link-analyzer/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFetcherFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register message parser
	if err := container.Provide(eml.NewParser); err != nil {
		return nil, err
	}

	// Register ignore filter and URL extractor
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *ignore.Filter {
		extraDomains := cfg.GetStringSlice("analysis.ignored_domains")
		if len(extraDomains) > 0 {
			logger.Info("Loaded extra ignored domains", zap.Strings("domains", extraDomains))
		}
		return ignore.NewFilter(extraDomains, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(extract.New); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register page fetcher
	if err := container.Provide(func(f *factory.FetcherFactory) (core.PageFetcher, error) {
		return f.CreateFetcher()
	}); err != nil {
		return nil, err
	}

	// Register history repository
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryRepository, error) {
		if !f.IsHistoryEnabled() {
			return nil, nil
		}
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(func(
		extractor *extract.Extractor,
		pageFetcher core.PageFetcher,
		emailClassifier core.Classifier,
		historyRepo core.HistoryRepository,
		logger *zap.Logger,
		fetcherFactory *factory.FetcherFactory,
		historyFactory *factory.HistoryFactory,
	) *analyzer.Service {
		return analyzer.NewService(
			extractor,
			pageFetcher,
			emailClassifier,
			historyRepo,
			logger,
			fetcherFactory.IsFetchingEnabled(),
			historyFactory.IsHistoryEnabled(),
			historyFactory.GetHistoryTTL(),
		)
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
