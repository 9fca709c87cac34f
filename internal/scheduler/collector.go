package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/metrics"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/sources"
)

// Collector runs the fetch phase of a collection cycle across all configured
// source clients. Sources are independent: one platform failing or panicking
// never blocks the others.
type Collector struct {
	cfg      config.Config
	clients  []sources.Client
	registry *metrics.Registry
}

// NewCollector creates a collector over the given source clients.
func NewCollector(cfg config.Config, clients []sources.Client, registry *metrics.Registry) *Collector {
	return &Collector{cfg: cfg, clients: clients, registry: registry}
}

// CollectAll fetches from every active source concurrently and returns the
// combined batch.
func (c *Collector) CollectAll(ctx context.Context) []models.Post {
	grouped := make([][]models.Post, len(c.clients))
	done := make(chan int, len(c.clients))
	launched := 0

	for i, client := range c.clients {
		if !client.IsActive() {
			log.Debug().Str("source", string(client.Source())).Msg("Source disabled, skipping")
			continue
		}
		launched++
		go func(idx int, cl sources.Client) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("source", string(cl.Source())).Interface("panic", r).
						Msg("Source collection panicked")
					c.registry.StageErrors.WithLabelValues("collection").Inc()
				}
				done <- idx
			}()
			grouped[idx] = c.CollectSource(ctx, cl)
		}(i, client)
	}

	for i := 0; i < launched; i++ {
		<-done
	}

	var all []models.Post
	for _, posts := range grouped {
		all = append(all, posts...)
	}
	if c.cfg.Collector.Dedupe {
		all = dedupe(all)
	}

	log.Info().Int("sources", launched).Int("posts", len(all)).Msg("Collection cycle fetched")
	return all
}

// CollectSource runs the keyword sweep and trending fetch for one source.
// The configured keyword delay paces consecutive searches.
func (c *Collector) CollectSource(ctx context.Context, client sources.Client) []models.Post {
	name := string(client.Source())
	sc := c.cfg.Sources[name]

	var posts []models.Post
	for i, keyword := range sc.Keywords {
		if i > 0 && !sleepCtx(ctx, c.cfg.Collector.KeywordDelay()) {
			log.Warn().Str("source", name).Msg("Keyword sweep cancelled")
			break
		}
		posts = append(posts, client.FetchByKeyword(ctx, keyword, sc.MaxResults)...)
	}

	if sc.TrendingCategory != "" && ctx.Err() == nil {
		posts = append(posts, client.FetchTrending(ctx, sc.TrendingCategory, sc.MaxResults)...)
	}

	synthetic := 0
	for _, p := range posts {
		if p.Synthetic {
			synthetic++
		}
	}
	c.registry.PostsCollected.WithLabelValues(name).Add(float64(len(posts)))
	c.registry.SyntheticPosts.WithLabelValues(name).Add(float64(synthetic))

	log.Info().Str("source", name).Int("posts", len(posts)).Int("synthetic", synthetic).
		Msg("Source collection finished")
	return posts
}

// ActiveSources lists the platforms whose clients are currently enabled.
func (c *Collector) ActiveSources() []models.Source {
	var active []models.Source
	for _, client := range c.clients {
		if client.IsActive() {
			active = append(active, client.Source())
		}
	}
	return active
}

// ClientFor returns the client serving the named source.
func (c *Collector) ClientFor(source models.Source) (sources.Client, bool) {
	for _, client := range c.clients {
		if client.Source() == source {
			return client, true
		}
	}
	return nil, false
}

// dedupe drops posts sharing an ID with an earlier post in the batch,
// keeping first occurrence order.
func dedupe(posts []models.Post) []models.Post {
	seen := make(map[string]struct{}, len(posts))
	out := posts[:0]
	for _, p := range posts {
		key := string(p.Source) + "/" + p.ID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// sleepCtx waits for d unless ctx is cancelled first. It reports whether the
// full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
