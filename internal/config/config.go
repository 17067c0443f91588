package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briefing-engine/briefing/internal/core"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration recognized by the core, trimmed to the
// components SPEC_FULL §2 names: sources, content/research preferences,
// clustering, citations and cache.
type Config struct {
	App                App                `mapstructure:"app"`
	AI                 AI                 `mapstructure:"ai"`
	Sources            []SourceEntry      `mapstructure:"sources"`
	ContentPreferences ContentPreferences `mapstructure:"content_preferences"`
	ResearchPreferences ResearchPreferences `mapstructure:"research_preferences"`
	Clustering         Clustering         `mapstructure:"clustering"`
	Citations          Citations          `mapstructure:"citations"`
	Cache              Cache              `mapstructure:"cache"`
	Logging            Logging            `mapstructure:"logging"`
	FocusAreas         []string           `mapstructure:"focus_areas"`
	ExcludeTopics      []string           `mapstructure:"exclude_topics"`
	PreferredSources   []string           `mapstructure:"preferred_sources"`
}

// App holds general application configuration.
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// AI holds LLM/embedding provider configuration.
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini generation + embedding configuration.
type GeminiConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	Timeout        string  `mapstructure:"timeout"`
	MaxTokens      int32   `mapstructure:"max_tokens"`
	Temperature    float32 `mapstructure:"temperature"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	BatchSize      int     `mapstructure:"batch_size"`
	// EmbeddingDimension is the configured model's fixed output width,
	// used as the Embedder's zero-vector fallback dimension (spec §4.3
	// invariant 2: vectors must be unit-norm or, on fallback, the right
	// shape for the clusterer's distance math). gemini-embedding-001's
	// native dimension is 3072.
	EmbeddingDimension int `mapstructure:"embedding_dimension"`
}

// SourceEntry is the on-disk form of core.SourceConfig (spec §6 "Source
// config document").
type SourceEntry struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
	Type string `mapstructure:"type"`
}

// ContentPreferences mirrors spec §6's preferences document keys.
type ContentPreferences struct {
	MinArticleAgeHours    int  `mapstructure:"min_article_age_hours"`
	MaxArticlesPerSection int  `mapstructure:"max_articles_per_section"`
	HybridResearchRanking bool `mapstructure:"hybrid_research_ranking"`
}

// ResearchPreferences mirrors spec §6's research preferences keys.
type ResearchPreferences struct {
	MaxResearchPapers  int      `mapstructure:"max_research_papers"`
	ResearchCategories []string `mapstructure:"research_categories"`
}

// Clustering holds the threshold and DBSCAN eps-sweep parameters that
// spec §9's Open Question requires be configurable rather than hard-coded.
type Clustering struct {
	Algorithm   string  `mapstructure:"algorithm"` // "threshold" or "dbscan"
	Threshold   float64 `mapstructure:"threshold"`
	EpsStep     float64 `mapstructure:"eps_step"`
	EpsCount    int     `mapstructure:"eps_count"`
	MinSamples  int     `mapstructure:"min_samples"`
	CorpusDays  int     `mapstructure:"corpus_days"`
	TodayDays   int     `mapstructure:"today_days"`
}

// Citations holds the Citation Analyzer's (C7) tunables.
type Citations struct {
	DatabasePath    string        `mapstructure:"database_path"`
	MaxAgeDays      int           `mapstructure:"max_age_days"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	InterCallDelay  time.Duration `mapstructure:"inter_call_delay"`
	TopN            int           `mapstructure:"top_n"`
	MinCitations    int           `mapstructure:"min_citations"`
	FetchConcurrency int          `mapstructure:"fetch_concurrency"`
}

// Cache holds the Article Cache's (C2) tunables.
type Cache struct {
	Directory     string `mapstructure:"directory"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Logging holds structured-logging configuration consumed by
// internal/logger.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load reads configuration from a file (if given), environment variables,
// and a `.env` file, applying defaults for anything unset. A missing or
// invalid source list is a config error (core.ErrConfigInvalid) — the one
// class of error that aborts before any I/O, per spec §7.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".briefing")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration, loading it with defaults if
// necessary.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return cfg
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".briefing-cache")

	viper.SetDefault("ai.gemini.model", "gemini-flash-lite-latest")
	viper.SetDefault("ai.gemini.timeout", "30s")
	viper.SetDefault("ai.gemini.max_tokens", 8192)
	viper.SetDefault("ai.gemini.temperature", 0.7)
	viper.SetDefault("ai.gemini.embedding_model", "gemini-embedding-001")
	viper.SetDefault("ai.gemini.batch_size", 20)
	viper.SetDefault("ai.gemini.embedding_dimension", 3072)

	viper.SetDefault("content_preferences.min_article_age_hours", 0)
	viper.SetDefault("content_preferences.hybrid_research_ranking", false)

	viper.SetDefault("research_preferences.max_research_papers", 10)
	viper.SetDefault("research_preferences.research_categories", []string{"cs.AI", "cs.LG"})

	viper.SetDefault("clustering.algorithm", "threshold")
	viper.SetDefault("clustering.threshold", 0.575)
	viper.SetDefault("clustering.eps_step", 0.01)
	viper.SetDefault("clustering.eps_count", 30)
	viper.SetDefault("clustering.min_samples", 2)
	viper.SetDefault("clustering.corpus_days", 3)
	viper.SetDefault("clustering.today_days", 1)

	viper.SetDefault("citations.database_path", ".briefing-cache/citations.db")
	viper.SetDefault("citations.max_age_days", 30)
	viper.SetDefault("citations.call_timeout", "30s")
	viper.SetDefault("citations.inter_call_delay", "500ms")
	viper.SetDefault("citations.top_n", 10)
	viper.SetDefault("citations.min_citations", 2)
	viper.SetDefault("citations.fetch_concurrency", 2)

	viper.SetDefault("cache.directory", ".briefing-cache")
	viper.SetDefault("cache.retention_days", 7)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

func validateConfig(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("%w: no sources configured", core.ErrConfigInvalid)
	}
	for _, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("%w: source entry missing name", core.ErrConfigInvalid)
		}
		switch s.Type {
		case "rss", "scrape", "tldr", "hn-daily":
		default:
			return fmt.Errorf("%w: source %q has unknown type %q", core.ErrConfigInvalid, s.Name, s.Type)
		}
		if s.URL == "" && s.Type != "tldr" && s.Type != "hn-daily" {
			return fmt.Errorf("%w: source %q requires a url for type %q", core.ErrConfigInvalid, s.Name, s.Type)
		}
	}
	if cfg.Clustering.Threshold <= 0 || cfg.Clustering.Threshold > 1 {
		return fmt.Errorf("%w: clustering threshold must be in (0, 1], got %f", core.ErrConfigInvalid, cfg.Clustering.Threshold)
	}
	return nil
}
