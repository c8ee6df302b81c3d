// Package config loads and validates link enrichment configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/link-enricher/internal/classifier"
	"github.com/JakeFAU/link-enricher/internal/sites"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Auth       AuthConfig        `mapstructure:"auth"`
	Enricher   EnricherConfig    `mapstructure:"enricher"`
	HTTP       HTTPConfig        `mapstructure:"http"`
	Headless   HeadlessConfig    `mapstructure:"headless"`
	News       NewsConfig        `mapstructure:"news"`
	Social     SocialConfig      `mapstructure:"social"`
	Classifier classifier.Config `mapstructure:"classifier"`
	Cache      CacheConfig       `mapstructure:"cache"`
	Debug      DebugConfig       `mapstructure:"debug"`
	Storage    StorageConfig     `mapstructure:"storage"`
	DB         DBConfig          `mapstructure:"db"`
	PubSub     PubSubConfig      `mapstructure:"pubsub"`
	Logging    LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// EnricherConfig governs the worker pool and batch behavior.
type EnricherConfig struct {
	Workers               int `mapstructure:"workers"`
	QueueDepth            int `mapstructure:"queue_depth"`
	ContentLimit          int `mapstructure:"content_limit"`
	MinTextChars          int `mapstructure:"min_text_chars"`
	NotesMaxChars         int `mapstructure:"notes_max_chars"`
	BatchTimeoutSeconds   int `mapstructure:"batch_timeout_seconds"`
	BackendTimeoutSeconds int `mapstructure:"backend_timeout_seconds"`
}

// HTTPConfig configures outbound fetching.
type HTTPConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	PerHostRPS     float64 `mapstructure:"per_host_rps"`
	PerHostBurst   int     `mapstructure:"per_host_burst"`
	RespectRobots  bool    `mapstructure:"respect_robots"`
	MaxBodyBytes   int     `mapstructure:"max_body_bytes"`
	PrimeSession   bool    `mapstructure:"prime_session"`
}

// HeadlessConfig configures the headless rendering used by the social backend.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
	SettleDelayMs int  `mapstructure:"settle_delay_ms"`
}

// NewsConfig tunes the news backend.
type NewsConfig struct {
	Language     string `mapstructure:"language"`
	MinStopWords int    `mapstructure:"min_stop_words"`
}

// SocialConfig lists social domains and the CSS selectors holding post text.
// Domains are a list rather than a map because viper splits keys on dots.
type SocialConfig struct {
	Domains []SocialDomain `mapstructure:"domains"`
}

// SocialDomain is one social table entry. A plain domain also matches
// subdomains; prefix it with "=" for exact hosts.
type SocialDomain struct {
	Domain    string   `mapstructure:"domain"`
	Selectors []string `mapstructure:"selectors"`
}

// Table builds the domain table used by the strategy chain.
func (s SocialConfig) Table() *sites.Table {
	entries := make(map[string][]string, len(s.Domains))
	for _, d := range s.Domains {
		entries[d.Domain] = d.Selectors
	}
	return sites.NewTable(entries)
}

func defaultSocialDomains() []map[string]any {
	table := sites.DefaultSelectors()
	domains := make([]string, 0, len(table))
	for domain := range table {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	out := make([]map[string]any, 0, len(domains))
	for _, domain := range domains {
		out = append(out, map[string]any{"domain": domain, "selectors": table[domain]})
	}
	return out
}

// CacheConfig controls the successful-link cache.
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// DebugConfig toggles debug dumps.
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// StorageConfig selects where debug dumps are written.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls access to the link outcome table.
type DBConfig struct {
	DSN                string `mapstructure:"dsn"`
	Table              string `mapstructure:"table"`
	MaxConns           int32  `mapstructure:"max_conns"`
	MinConns           int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Storage backends.
const (
	StorageMemory = "memory"
	StorageLocal  = "local"
	StorageGCS    = "gcs"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENRICHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := classifier.DefaultConfig()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 120)
	v.SetDefault("enricher.workers", 4)
	v.SetDefault("enricher.queue_depth", 64)
	v.SetDefault("enricher.content_limit", 5000)
	v.SetDefault("enricher.min_text_chars", 50)
	v.SetDefault("enricher.notes_max_chars", 100)
	v.SetDefault("enricher.batch_timeout_seconds", 0)
	v.SetDefault("enricher.backend_timeout_seconds", 15)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.timeout_seconds", 12)
	v.SetDefault("http.per_host_rps", 2.0)
	v.SetDefault("http.per_host_burst", 2)
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("http.max_body_bytes", 5<<20)
	v.SetDefault("http.prime_session", true)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 20)
	v.SetDefault("headless.settle_delay_ms", 1500)
	v.SetDefault("news.language", "pt")
	v.SetDefault("news.min_stop_words", 3)
	v.SetDefault("social.domains", defaultSocialDomains())
	v.SetDefault("classifier.keyword_density", defaults.KeywordDensity)
	v.SetDefault("classifier.short_keyword_chars", defaults.ShortKeywordChars)
	v.SetDefault("classifier.topical_min_terms", defaults.TopicalMinTerms)
	v.SetDefault("classifier.topical_chars", defaults.TopicalChars)
	v.SetDefault("classifier.short_error_chars", defaults.ShortErrorChars)
	v.SetDefault("classifier.footer_min_terms", defaults.FooterMinTerms)
	v.SetDefault("classifier.footer_chars", defaults.FooterChars)
	v.SetDefault("cache.ttl_seconds", 900)
	v.SetDefault("debug.enabled", false)
	v.SetDefault("storage.backend", StorageMemory)
	v.SetDefault("storage.local_dir", "./dumps")
	v.SetDefault("storage.prefix", "link_enrichment")
	v.SetDefault("db.table", "link_extractions")
	v.SetDefault("db.auto_migrate", false)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be > 0")
	}
	if c.Enricher.Workers <= 0 {
		return errors.New("enricher.workers must be > 0")
	}
	if c.Enricher.QueueDepth < 0 {
		return errors.New("enricher.queue_depth must be >= 0")
	}
	if c.Enricher.ContentLimit <= 0 {
		return errors.New("enricher.content_limit must be > 0")
	}
	if c.Enricher.BackendTimeoutSeconds <= 0 {
		return errors.New("enricher.backend_timeout_seconds must be > 0")
	}
	if c.Enricher.BatchTimeoutSeconds < 0 {
		return errors.New("enricher.batch_timeout_seconds must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.New("http.timeout_seconds must be > 0")
	}
	if c.HTTP.PerHostRPS < 0 {
		return errors.New("http.per_host_rps must be >= 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return errors.New("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return errors.New("auth.api_key must be set when auth is enabled")
	}
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageLocal:
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return errors.New("storage.local_dir must be set for the local backend")
		}
	case StorageGCS:
		if strings.TrimSpace(c.Storage.GCSBucket) == "" {
			return errors.New("storage.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of memory, local, gcs", c.Storage.Backend)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return errors.New("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// BackendTimeout is the per-backend call budget.
func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.Enricher.BackendTimeoutSeconds) * time.Second
}

// BatchTimeout is the optional whole-batch budget; zero disables it.
func (c Config) BatchTimeout() time.Duration {
	return time.Duration(c.Enricher.BatchTimeoutSeconds) * time.Second
}

// FetchTimeout is the network timeout applied by fetchers.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// CacheTTL is how long successful links stay cached; zero disables the cache.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
