package classifier

import (
	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/config"
	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/utils"
)

// Factory creates new instances of the HTTP prediction client
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for HTTP prediction clients
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new HTTP prediction client
func (f *Factory) CreateClassifier() (core.Classifier, error) {
	httpCfg := f.cfg.GetHTTPClassifier()

	return NewHTTPClassifier(
		httpCfg.Endpoint,
		httpCfg.Timeout,
		httpCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}
