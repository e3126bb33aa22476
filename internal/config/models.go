package config

import "time"

// ClassifierConfig selects the content-classifier backend
type ClassifierConfig struct {
	Provider string
	Enabled  bool
}

// HTTPClassifierConfig represents the configuration for the HTTP prediction service
type HTTPClassifierConfig struct {
	Endpoint    string
	Timeout     time.Duration
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// FetcherConfig represents the configuration for the page fetcher
type FetcherConfig struct {
	Enabled     bool
	Endpoints   []string
	Timeout     time.Duration
	MaxBodySize int64
	UserAgent   string
}

// HistoryConfig represents the configuration for verdict history storage
type HistoryConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// GetClassifier returns the classifier selection configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider: c.GetString("classifier.provider"),
		Enabled:  c.GetBool("classifier.enabled"),
	}
}

// GetHTTPClassifier returns the HTTP prediction service configuration
func (c *Config) GetHTTPClassifier() HTTPClassifierConfig {
	timeout, err := c.GetDuration("http_classifier.timeout")
	if err != nil {
		timeout = 30 * time.Second
	}
	return HTTPClassifierConfig{
		Endpoint:    c.GetString("http_classifier.endpoint"),
		Timeout:     timeout,
		MaxBodySize: c.GetInt("http_classifier.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetFetcher returns the page fetcher configuration
func (c *Config) GetFetcher() FetcherConfig {
	timeout, err := c.GetDuration("fetcher.timeout")
	if err != nil {
		timeout = 10 * time.Second
	}
	return FetcherConfig{
		Enabled:     c.GetBool("fetcher.enabled"),
		Endpoints:   c.GetStringSlice("fetcher.endpoints"),
		Timeout:     timeout,
		MaxBodySize: int64(c.GetInt("fetcher.max_body_size")),
		UserAgent:   c.GetString("fetcher.user_agent"),
	}
}

// GetHistory returns the verdict history configuration
func (c *Config) GetHistory() HistoryConfig {
	ttl, err := c.GetDuration("history.ttl")
	if err != nil {
		ttl = 7 * 24 * time.Hour
	}
	cleanupFreq, err := c.GetDuration("history.cleanup_frequency")
	if err != nil {
		cleanupFreq = time.Hour
	}
	return HistoryConfig{
		Type:             c.GetString("history.type"),
		Enabled:          c.GetBool("history.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanupFreq,
		SQLitePath:       c.GetString("history.sqlite_path"),
		MySQLDSN:         c.GetString("history.mysql_dsn"),
	}
}
