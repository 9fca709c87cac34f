package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.RateLimitEnabled)
	assert.Equal(t, 100, cfg.Server.MaxRequests)
	assert.Equal(t, 60, cfg.Server.WindowSec)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())

	assert.Equal(t, 5*time.Minute, cfg.Scheduler.CollectionInterval())
	assert.Equal(t, time.Hour, cfg.Scheduler.CleaningInterval())
	assert.Equal(t, time.Minute, cfg.Scheduler.MonitoringInterval())
	assert.Equal(t, time.Second, cfg.Scheduler.ChainDelay())
	assert.Equal(t, 2*time.Second, cfg.Collector.KeywordDelay())
	assert.False(t, cfg.Collector.Dedupe)

	xhs := cfg.Sources[string(models.SourceXiaohongshu)]
	assert.True(t, xhs.Enabled)
	assert.Equal(t, 50, xhs.MaxResults)
	assert.Len(t, xhs.Keywords, 9)
	assert.Contains(t, xhs.Keywords, "内购")
	assert.Contains(t, xhs.Keywords, "员工专享")
	assert.Equal(t, "shopping", xhs.TrendingCategory)
	assert.Equal(t, time.Second, xhs.RateLimit())
	assert.Equal(t, 10*time.Second, xhs.Timeout())

	assert.False(t, cfg.Sources[string(models.SourceWeibo)].Enabled)
	assert.False(t, cfg.Sources[string(models.SourceDouyin)].Enabled)

	assert.Equal(t, 5, cfg.Filters.MinTitleLength)
	assert.Equal(t, 200, cfg.Filters.MaxTitleLength)
	assert.Equal(t, 10, cfg.Filters.MinContentLength)
	assert.Equal(t, 2000, cfg.Filters.MaxContentLength)
	assert.Equal(t, []string{"广告", "推广", "营销"}, cfg.Filters.ExcludeKeywords)
	assert.Equal(t, 60, cfg.Filters.MinCredibility)
	assert.InDelta(t, 0.3, cfg.Filters.EngagementWeights["likes"], 1e-9)

	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Archive.Timeout())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_PartialFileBackfillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9090
cache:
  backend: redis
  redis_addr: localhost:6379
scheduler:
  collection_interval_sec: 120
sources:
  xiaohongshu:
    enabled: true
    keywords: ["内购"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "host backfilled from defaults")
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 300, cfg.Cache.TTLSec, "ttl backfilled from defaults")
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.CollectionInterval())
	assert.Equal(t, time.Hour, cfg.Scheduler.CleaningInterval(), "cleaning interval backfilled")

	xhs := cfg.Sources[string(models.SourceXiaohongshu)]
	assert.Equal(t, []string{"内购"}, xhs.Keywords)
	assert.Equal(t, 20, xhs.MaxResults, "unset source fields get generic defaults")
	assert.Equal(t, time.Second, xhs.RateLimit())
	assert.Equal(t, 10*time.Second, xhs.Timeout())

	assert.Equal(t, 5, cfg.Filters.MinTitleLength)
	assert.Equal(t, 60, cfg.Filters.MinCredibility)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}
