package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// Config is the full configuration surface consumed by the pipeline. The
// core applies these values verbatim; it does not validate their provenance.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Cache     CacheConfig             `yaml:"cache"`
	Scheduler SchedulerConfig         `yaml:"scheduler"`
	Collector CollectorConfig         `yaml:"collector"`
	Sources   map[string]SourceConfig `yaml:"sources"`
	Filters   FiltersConfig           `yaml:"filters"`
	Archive   ArchiveConfig           `yaml:"archive"`
}

// ServerConfig configures the read-API HTTP server.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	IdleTimeoutSec  int    `yaml:"idle_timeout_sec"`

	// Request rate limiting across all API routes.
	RateLimitEnabled bool `yaml:"rate_limit_enabled"`
	MaxRequests      int  `yaml:"max_requests"`
	WindowSec        int  `yaml:"window_sec"`
}

// CacheConfig configures the response cache in front of read endpoints.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // "memory" or "redis"
	TTLSec     int    `yaml:"ttl_sec"`
	MaxEntries int64  `yaml:"max_entries"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// SchedulerConfig holds the intervals of the three periodic jobs.
type SchedulerConfig struct {
	CollectionIntervalSec int `yaml:"collection_interval_sec"`
	CleaningIntervalSec   int `yaml:"cleaning_interval_sec"`
	MonitoringIntervalSec int `yaml:"monitoring_interval_sec"`

	// Delay before a finished collection chains into cleaning.
	ChainDelayMs int `yaml:"chain_delay_ms"`
}

// CollectionInterval returns the collection job period.
func (c SchedulerConfig) CollectionInterval() time.Duration {
	return time.Duration(c.CollectionIntervalSec) * time.Second
}

// CleaningInterval returns the cleaning job period.
func (c SchedulerConfig) CleaningInterval() time.Duration {
	return time.Duration(c.CleaningIntervalSec) * time.Second
}

// MonitoringInterval returns the monitoring job period.
func (c SchedulerConfig) MonitoringInterval() time.Duration {
	return time.Duration(c.MonitoringIntervalSec) * time.Second
}

// ChainDelay returns the collection-to-cleaning chain delay.
func (c SchedulerConfig) ChainDelay() time.Duration {
	return time.Duration(c.ChainDelayMs) * time.Millisecond
}

// CollectorConfig tunes the collection cycle itself.
type CollectorConfig struct {
	// Pause between keyword searches against the same source.
	KeywordDelayMs int `yaml:"keyword_delay_ms"`
	// Dedupe drops posts sharing (source, id) within one cycle. Optional
	// hardening, off by default.
	Dedupe bool `yaml:"dedupe"`
}

// KeywordDelay returns the inter-keyword pause.
func (c CollectorConfig) KeywordDelay() time.Duration {
	return time.Duration(c.KeywordDelayMs) * time.Millisecond
}

// SourceConfig configures one platform integration.
type SourceConfig struct {
	Enabled          bool     `yaml:"enabled"`
	MaxResults       int      `yaml:"max_results"`
	Keywords         []string `yaml:"keywords"`
	TrendingCategory string   `yaml:"trending_category"`
	RateLimitMs      int      `yaml:"rate_limit_ms"` // min inter-request interval
	TimeoutSec       int      `yaml:"timeout_sec"`   // per-request deadline
}

// RateLimit returns the minimum inter-request interval.
func (c SourceConfig) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

// Timeout returns the per-request deadline.
func (c SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// FiltersConfig holds content quality filters shared by the cleaner and the
// validator, plus the credibility threshold and engagement weights.
type FiltersConfig struct {
	MinTitleLength   int      `yaml:"min_title_length"`
	MaxTitleLength   int      `yaml:"max_title_length"`
	MinContentLength int      `yaml:"min_content_length"`
	MaxContentLength int      `yaml:"max_content_length"`
	RequireImages    bool     `yaml:"require_images"`
	ExcludeKeywords  []string `yaml:"exclude_keywords"`

	MinCredibility    int                `yaml:"min_credibility"`
	EngagementWeights map[string]float64 `yaml:"engagement_weights"`
}

// ArchiveConfig configures the optional Postgres archive.
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DSN        string `yaml:"dsn"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Timeout returns the per-query deadline.
func (c ArchiveConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Default returns the built-in configuration: xiaohongshu enabled with the
// standard keyword sweep, weibo and douyin present but disabled.
func Default() Config {
	cfg := Config{
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8080,
			ReadTimeoutSec:   10,
			WriteTimeoutSec:  10,
			IdleTimeoutSec:   60,
			RateLimitEnabled: true,
			MaxRequests:      100,
			WindowSec:        60,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLSec:     300,
			MaxEntries: 1024,
		},
		Scheduler: SchedulerConfig{
			CollectionIntervalSec: 300,
			CleaningIntervalSec:   3600,
			MonitoringIntervalSec: 60,
			ChainDelayMs:          1000,
		},
		Collector: CollectorConfig{
			KeywordDelayMs: 2000,
		},
		Sources: map[string]SourceConfig{
			string(models.SourceXiaohongshu): {
				Enabled:    true,
				MaxResults: 50,
				Keywords: []string{
					"内购", "员工折扣", "企业采购",
					"限时优惠", "品牌折扣", "员工福利",
					"内部价", "员工专享", "企业福利",
				},
				TrendingCategory: "shopping",
				RateLimitMs:      1000,
				TimeoutSec:       10,
			},
			string(models.SourceWeibo): {
				Enabled:     false,
				MaxResults:  30,
				Keywords:    []string{"内购", "员工折扣"},
				RateLimitMs: 1000,
				TimeoutSec:  10,
			},
			string(models.SourceDouyin): {
				Enabled:     false,
				MaxResults:  30,
				Keywords:    []string{"内购", "员工折扣"},
				RateLimitMs: 1000,
				TimeoutSec:  10,
			},
		},
		Filters: FiltersConfig{
			MinTitleLength:   5,
			MaxTitleLength:   200,
			MinContentLength: 10,
			MaxContentLength: 2000,
			ExcludeKeywords:  []string{"广告", "推广", "营销"},
			MinCredibility:   60,
			EngagementWeights: map[string]float64{
				"likes":    0.3,
				"comments": 0.2,
				"shares":   0.2,
				"collects": 0.3,
			},
		},
		Archive: ArchiveConfig{
			TimeoutSec: 5,
		},
	}
	return cfg
}

// Load reads YAML configuration from path and fills unset values with
// defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

// applyDefaults backfills zero values left by a partial config file.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = def.Cache.Backend
	}
	if cfg.Cache.TTLSec == 0 {
		cfg.Cache.TTLSec = def.Cache.TTLSec
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = def.Cache.MaxEntries
	}
	if cfg.Scheduler.CollectionIntervalSec == 0 {
		cfg.Scheduler.CollectionIntervalSec = def.Scheduler.CollectionIntervalSec
	}
	if cfg.Scheduler.CleaningIntervalSec == 0 {
		cfg.Scheduler.CleaningIntervalSec = def.Scheduler.CleaningIntervalSec
	}
	if cfg.Scheduler.MonitoringIntervalSec == 0 {
		cfg.Scheduler.MonitoringIntervalSec = def.Scheduler.MonitoringIntervalSec
	}
	if cfg.Scheduler.ChainDelayMs == 0 {
		cfg.Scheduler.ChainDelayMs = def.Scheduler.ChainDelayMs
	}
	if cfg.Filters.MinTitleLength == 0 {
		cfg.Filters.MinTitleLength = def.Filters.MinTitleLength
	}
	if cfg.Filters.MaxTitleLength == 0 {
		cfg.Filters.MaxTitleLength = def.Filters.MaxTitleLength
	}
	if cfg.Filters.MinContentLength == 0 {
		cfg.Filters.MinContentLength = def.Filters.MinContentLength
	}
	if cfg.Filters.MaxContentLength == 0 {
		cfg.Filters.MaxContentLength = def.Filters.MaxContentLength
	}
	if cfg.Filters.MinCredibility == 0 {
		cfg.Filters.MinCredibility = def.Filters.MinCredibility
	}
	if cfg.Sources == nil {
		cfg.Sources = def.Sources
	}
	for name, sc := range cfg.Sources {
		if sc.MaxResults == 0 {
			sc.MaxResults = 20
		}
		if sc.RateLimitMs == 0 {
			sc.RateLimitMs = 1000
		}
		if sc.TimeoutSec == 0 {
			sc.TimeoutSec = 10
		}
		cfg.Sources[name] = sc
	}
}
