package di

import (
	"flag"
	"time"

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

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Classifier flags
	Provider        string
	PredictEndpoint string
	MaxTokens       int
	Temperature     float64
	TopP            float64
	MaxBodySize     int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Fetch flags
	NoFetch      bool
	FetchTimeout time.Duration

	// Input flags
	InputFile      string
	ReportedAsSpam bool
	Verbose        bool
	JSONLog        bool
	ConfigFile     string

	// Extraction flags
	IgnoredDomains string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Classifier flags
	flag.StringVar(&flags.Provider, "provider", "none", "Classifier provider (none, http, bedrock, gemini, openai)")
	flag.StringVar(&flags.PredictEndpoint, "predict-endpoint", "http://localhost:8000", "Base URL of the HTTP prediction service")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for model response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for model generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for model generation")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum email body size to send to the classifier")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	// Fetch flags
	flag.BoolVar(&flags.NoFetch, "no-fetch", false, "Skip fetching destination pages")
	flag.DurationVar(&flags.FetchTimeout, "fetch-timeout", 10*time.Second, "Timeout per fetch endpoint attempt")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.BoolVar(&flags.ReportedAsSpam, "reported-as-spam", false, "Treat the email as user-reported spam")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	// Extraction flags
	flag.StringVar(&flags.IgnoredDomains, "ignored-domains", "", "Comma-separated extra domains to ignore")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
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
		return ignore.NewFilter(cfg.GetStringSlice("analysis.ignored_domains"), logger)
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

	// Register analysis service with no history for one-shot runs
	if err := container.Provide(func(
		extractor *extract.Extractor,
		pageFetcher core.PageFetcher,
		emailClassifier core.Classifier,
		logger *zap.Logger,
		fetcherFactory *factory.FetcherFactory,
	) *analyzer.Service {
		return analyzer.NewService(
			extractor,
			pageFetcher,
			emailClassifier,
			nil,
			logger,
			fetcherFactory.IsFetchingEnabled(),
			false,
			time.Duration(0),
		)
	}); err != nil {
		return nil, err
	}

	// Register nil history for the filter factory
	if err := container.Provide(func() core.HistoryRepository { return nil }); err != nil {
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

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)

	v.Set("classifier.provider", flags.Provider)
	if flags.Provider == "none" {
		v.Set("classifier.enabled", false)
	}

	switch flags.Provider {
	case "http":
		v.Set("http_classifier.endpoint", flags.PredictEndpoint)
		v.Set("http_classifier.max_body_size", flags.MaxBodySize)
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
		v.Set("bedrock.max_body_size", flags.MaxBodySize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
		v.Set("gemini.max_body_size", flags.MaxBodySize)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
		v.Set("openai.max_body_size", flags.MaxBodySize)
	}

	if flags.NoFetch {
		v.Set("fetcher.enabled", false)
	}
	v.Set("fetcher.timeout", flags.FetchTimeout.String())

	if flags.IgnoredDomains != "" {
		v.Set("analysis.ignored_domains", flags.IgnoredDomains)
	}

	// One-shot runs keep no history
	v.Set("history.enabled", false)

	return config.NewFromViper(v)
}
