package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/adapters/eml"
	"github.com/mikey/phishing-link-analyzer/internal/adapters/filter"
	"github.com/mikey/phishing-link-analyzer/internal/analyzer"
	"github.com/mikey/phishing-link-analyzer/internal/config"
	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/ports"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *analyzer.Service
	parser  *eml.Parser
	history core.HistoryRepository
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *analyzer.Service,
	parser *eml.Parser,
	history core.HistoryRepository,
) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		parser:  parser,
		history: history,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "cli":
		return filter.NewCliFilter(f.service, f.logger, f.cfg.GetBool("cli.verbose"))
	case "http":
		return filter.NewHTTPFilter(
			f.service,
			f.parser,
			f.history,
			f.logger,
			f.cfg.GetString("server.listen_address"),
		), nil
	case "postfix":
		return filter.NewPostfixFilter(
			f.service,
			f.parser,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetBool("server.block_dangerous"),
			f.cfg.GetString("server.headers.status"),
			f.cfg.GetString("server.headers.score"),
			f.cfg.GetString("server.headers.level"),
			f.cfg.GetString("postfix.address"),
			f.cfg.GetInt("postfix.port"),
			f.cfg.GetBool("postfix.enabled"),
			f.cfg.GetString("server.subject_prefix"),
			f.cfg.GetBool("server.modify_subject"),
		), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
