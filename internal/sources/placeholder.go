package sources

import (
	"context"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// PlaceholderClient stands in for platforms whose real integration has not
// shipped yet (weibo, douyin). Fetches always serve synthetic data shaped
// like real platform output; callers gate on IsActive, which reports the
// configured Enabled flag. The default configuration keeps these platforms
// disabled.
type PlaceholderClient struct {
	source   models.Source
	cfg      config.SourceConfig
	throttle *Throttle
}

// NewPlaceholderClient creates a placeholder integration for a platform.
func NewPlaceholderClient(source models.Source, cfg config.SourceConfig) *PlaceholderClient {
	return &PlaceholderClient{
		source:   source,
		cfg:      cfg,
		throttle: NewThrottle(cfg.RateLimit()),
	}
}

// Source identifies the platform.
func (c *PlaceholderClient) Source() models.Source { return c.source }

// IsActive reports the static capability flag from configuration.
func (c *PlaceholderClient) IsActive() bool { return c.cfg.Enabled }

// FetchByKeyword serves synthetic posts shaped like real platform output.
func (c *PlaceholderClient) FetchByKeyword(ctx context.Context, keyword string, limit int) []models.Post {
	if err := c.throttle.Wait(ctx); err != nil {
		return SyntheticPosts(c.source, keyword, limit)
	}
	return SyntheticPosts(c.source, keyword, limit)
}

// FetchTrending serves synthetic posts for the trending path.
func (c *PlaceholderClient) FetchTrending(ctx context.Context, category string, limit int) []models.Post {
	if err := c.throttle.Wait(ctx); err != nil {
		return SyntheticPosts(c.source, "热门商品", limit)
	}
	return SyntheticPosts(c.source, "热门商品", limit)
}
