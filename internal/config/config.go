// Package config loads application configuration from file and environment
// and owns the global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Health     HealthConfig     `yaml:"health" mapstructure:"health"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Research   ResearchConfig   `yaml:"research" mapstructure:"research"`
	Schema     SchemaConfig     `yaml:"schema" mapstructure:"schema"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GoogleConfig holds Google Programmable Search settings.
type GoogleConfig struct {
	Key      string  `yaml:"key" mapstructure:"key"`
	EngineID string  `yaml:"engine_id" mapstructure:"engine_id"`
	RPS      float64 `yaml:"rps" mapstructure:"rps"`
}

// JinaConfig holds Jina AI Search settings.
type JinaConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	SearchBaseURL string  `yaml:"search_base_url" mapstructure:"search_base_url"`
	RPS           float64 `yaml:"rps" mapstructure:"rps"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	Model   string  `yaml:"model" mapstructure:"model"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	GeneratorModel string `yaml:"generator_model" mapstructure:"generator_model"`
	ExtractorModel string `yaml:"extractor_model" mapstructure:"extractor_model"`
}

// NotionConfig holds Notion API credentials and the research queue database.
type NotionConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	QueueDB string `yaml:"queue_db" mapstructure:"queue_db"`
}

// CacheConfig configures the search result cache.
type CacheConfig struct {
	TTLDays int `yaml:"ttl_days" mapstructure:"ttl_days"`
}

// HealthConfig configures the provider circuit breakers.
type HealthConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	BaseBackoffSecs  int `yaml:"base_backoff_secs" mapstructure:"base_backoff_secs"`
	MaxBackoffSecs   int `yaml:"max_backoff_secs" mapstructure:"max_backoff_secs"`
}

// PricingConfig holds per-tier query pricing.
type PricingConfig struct {
	Free     float64 `yaml:"free" mapstructure:"free"`
	Cheap    float64 `yaml:"cheap" mapstructure:"cheap"`
	Standard float64 `yaml:"standard" mapstructure:"standard"`
	Premium  float64 `yaml:"premium" mapstructure:"premium"`
}

// ResearchConfig bounds a research run.
type ResearchConfig struct {
	MaxIterations    int     `yaml:"max_iterations" mapstructure:"max_iterations"`
	BudgetUSD        float64 `yaml:"budget_usd" mapstructure:"budget_usd"`
	Concurrency      int     `yaml:"concurrency" mapstructure:"concurrency"`
	MinResults       int     `yaml:"min_results" mapstructure:"min_results"`
	MaxProviders     int     `yaml:"max_providers" mapstructure:"max_providers"`
	TopGaps          int     `yaml:"top_gaps" mapstructure:"top_gaps"`
	QualityThreshold float64 `yaml:"quality_threshold" mapstructure:"quality_threshold"`
}

// SchemaConfig points at an optional required-field schema override.
type SchemaConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BatchConfig configures batch processing from the Notion queue.
type BatchConfig struct {
	MaxConcurrentCompanies int `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "research.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_companies", 3)
	v.SetDefault("cache.ttl_days", 30)
	v.SetDefault("health.failure_threshold", 3)
	v.SetDefault("health.base_backoff_secs", 30)
	v.SetDefault("health.max_backoff_secs", 900)
	v.SetDefault("google.rps", 1)
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.rps", 1)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("firecrawl.rps", 0.5)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("perplexity.rps", 0.5)
	v.SetDefault("anthropic.generator_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.extractor_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("pricing.free", 0)
	v.SetDefault("pricing.cheap", 0.005)
	v.SetDefault("pricing.standard", 0.01)
	v.SetDefault("pricing.premium", 0.03)
	v.SetDefault("research.max_iterations", 3)
	v.SetDefault("research.budget_usd", 1.00)
	v.SetDefault("research.concurrency", 5)
	v.SetDefault("research.min_results", 8)
	v.SetDefault("research.max_providers", 0)
	v.SetDefault("research.top_gaps", 5)
	v.SetDefault("research.quality_threshold", 85)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
