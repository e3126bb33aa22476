package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/adapters/bedrock"
	"github.com/mikey/phishing-link-analyzer/internal/adapters/classifier"
	"github.com/mikey/phishing-link-analyzer/internal/adapters/gemini"
	"github.com/mikey/phishing-link-analyzer/internal/adapters/openai"
	"github.com/mikey/phishing-link-analyzer/internal/config"
	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/utils"
)

// ClassifierFactory creates content classifiers
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a classifier based on the configuration. A nil
// classifier with nil error means classification is disabled.
func (f *ClassifierFactory) CreateClassifier() (core.Classifier, error) {
	classifierCfg := f.cfg.GetClassifier()
	if !classifierCfg.Enabled {
		return nil, nil
	}

	switch classifierCfg.Provider {
	case "http":
		factory := classifier.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", classifierCfg.Provider)
	}
}
