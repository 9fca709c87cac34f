// Package service is the application facade behind the HTTP API: read views
// computed from the store and served through the response cache, plus the
// non-idempotent operations (manual collection, review, export, refresh).
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/archive"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/cache"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/metrics"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/scheduler"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/store"
)

// Response cache keys, one per read endpoint.
const (
	cacheKeyDashboard    = "dashboard"
	cacheKeyMonitoring   = "monitoring"
	cacheKeySourcePrefix = "source:"
)

// sourceItemsCap bounds the per-platform drill-down payload.
const sourceItemsCap = 50

// Service exposes the application operations to the transport layer.
type Service struct {
	cfg      config.Config
	store    *store.Store
	cache    cache.ResponseCache
	sched    *scheduler.Scheduler
	monitor  *metrics.Monitor
	registry *metrics.Registry
	archive  *archive.Archive // nil when archiving is disabled
}

// New creates the service facade. archive may be nil.
func New(cfg config.Config, st *store.Store, c cache.ResponseCache, sched *scheduler.Scheduler, monitor *metrics.Monitor, registry *metrics.Registry, arch *archive.Archive) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		cache:    c,
		sched:    sched,
		monitor:  monitor,
		registry: registry,
		archive:  arch,
	}
}

// Dashboard returns the aggregate overview, served from the response cache
// within its TTL.
func (s *Service) Dashboard(ctx context.Context) (models.DashboardSummary, error) {
	var out models.DashboardSummary
	err := s.cached(ctx, cacheKeyDashboard, &out, func() any {
		return s.computeDashboard()
	})
	return out, err
}

// SourceDetail returns the per-platform drill-down for a known source.
func (s *Service) SourceDetail(ctx context.Context, source models.Source) (models.SourceSummary, error) {
	var out models.SourceSummary
	if !source.Valid() {
		return out, fmt.Errorf("unknown source: %s", source)
	}
	err := s.cached(ctx, cacheKeySourcePrefix+string(source), &out, func() any {
		return s.computeSourceSummary(source)
	})
	return out, err
}

// SystemMonitoring returns the latest system health snapshot.
func (s *Service) SystemMonitoring(ctx context.Context) (models.SystemMetrics, error) {
	var out models.SystemMetrics
	err := s.cached(ctx, cacheKeyMonitoring, &out, func() any {
		if v, ok := s.store.Value(scheduler.ValueSystemMetrics); ok {
			if snap, ok := v.(models.SystemMetrics); ok {
				return snap
			}
		}
		return s.monitor.Last()
	})
	return out, err
}

// JobStatuses reports the scheduler's job states.
func (s *Service) JobStatuses() []scheduler.JobStatus {
	return s.sched.Status()
}

// TriggerCollection runs an on-demand collection for one source, archives the
// resulting classified batch and invalidates the response cache.
func (s *Service) TriggerCollection(ctx context.Context, source models.Source) models.OpResult {
	result := s.sched.TriggerCollection(ctx, source)
	if !result.Success {
		return result
	}

	s.invalidate(ctx)
	s.archiveClassified(ctx)
	return result
}

// SubmitReview applies a review decision to one classified post. Transitions
// are forward-only: a post that already left pending cannot be re-reviewed.
func (s *Service) SubmitReview(ctx context.Context, itemID string, action models.ReviewStatus, comment string) models.OpResult {
	if itemID == "" {
		return models.OpResult{Success: false, Message: "审核提交失败", Error: "missing item id"}
	}
	switch action {
	case models.StatusApproved, models.StatusRejected, models.StatusPublished:
	default:
		return models.OpResult{Success: false, Message: "审核提交失败", Error: fmt.Sprintf("invalid review action: %s", action)}
	}

	found := false
	allowed := false
	s.store.UpdatePosts(store.KeyClassified, func(posts []models.Post) []models.Post {
		for i := range posts {
			if posts[i].ID != itemID {
				continue
			}
			found = true
			if !posts[i].Status.CanTransition(action) {
				return posts
			}
			allowed = true
			posts[i].Status = action
			posts[i].ReviewComment = comment
			posts[i].ReviewTime = time.Now().Format(time.RFC3339)
			return posts
		}
		return posts
	})

	if !found {
		return models.OpResult{Success: false, Message: "审核提交失败", Error: fmt.Sprintf("item not found: %s", itemID)}
	}
	if !allowed {
		return models.OpResult{Success: false, Message: "审核提交失败", Error: "item is not pending review"}
	}

	if s.archive != nil {
		if err := s.archive.RecordReview(ctx, itemID, action, comment); err != nil {
			log.Warn().Err(err).Str("item", itemID).Msg("Review audit archive failed")
		}
	}
	s.invalidate(ctx)

	log.Info().Str("item", itemID).Str("action", string(action)).Msg("Review submitted")
	return models.OpResult{Success: true, Message: "审核提交成功"}
}

// ExportReport renders the current pipeline state as a report. Supported
// formats are "json" (canonical, pretty-printed) and "csv" (a projection of
// the classified collection). An empty format defaults to JSON.
func (s *Service) ExportReport(ctx context.Context, format, dateRange string) ([]byte, string, error) {
	if dateRange == "" {
		dateRange = "last7days"
	}

	report := models.Report{
		GeneratedAt: time.Now().Format(time.RFC3339),
		DateRange:   dateRange,
		Summary:     s.computeDashboard(),
		Details: models.ReportDetails{
			Raw:        s.store.Posts(store.KeyRaw),
			Cleaned:    s.store.Posts(store.KeyCleaned),
			Classified: s.store.Posts(store.KeyClassified),
		},
	}

	switch format {
	case "", "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode report: %w", err)
		}
		return data, "application/json", nil
	case "csv":
		data, err := reportCSV(report.Details.Classified)
		if err != nil {
			return nil, "", err
		}
		return data, "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported report format: %s", format)
	}
}

// RefreshData clears the response cache and rebuilds the dashboard view so
// the next read is served fresh.
func (s *Service) RefreshData(ctx context.Context) models.OpResult {
	s.invalidate(ctx)
	if _, err := s.Dashboard(ctx); err != nil {
		return models.OpResult{Success: false, Message: "刷新数据失败", Error: err.Error()}
	}
	return models.OpResult{Success: true, Message: "数据已刷新"}
}

// cached serves key from the response cache, computing and storing the value
// on a miss. A corrupt cache entry is treated as a miss.
func (s *Service) cached(ctx context.Context, key string, out any, compute func() any) error {
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		if err := json.Unmarshal(data, out); err == nil {
			s.registry.CacheHits.WithLabelValues(key).Inc()
			return nil
		}
	} else if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Response cache read failed")
	}
	s.registry.CacheMisses.WithLabelValues(key).Inc()

	data, err := json.Marshal(compute())
	if err != nil {
		return fmt.Errorf("failed to encode %s view: %w", key, err)
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.Cache.TTL()); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Response cache write failed")
	}
	return json.Unmarshal(data, out)
}

// invalidate drops every cached view.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("Response cache clear failed")
	}
}

// archiveClassified persists the current classified snapshot when archiving
// is enabled.
func (s *Service) archiveClassified(ctx context.Context) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SavePosts(ctx, s.store.Posts(store.KeyClassified)); err != nil {
		log.Warn().Err(err).Msg("Classified batch archive failed")
	}
}

func (s *Service) computeDashboard() models.DashboardSummary {
	classified := s.store.Posts(store.KeyClassified)

	pending, published := 0, 0
	for _, p := range classified {
		switch p.Status {
		case models.StatusPending:
			pending++
		case models.StatusPublished:
			published++
		}
	}

	names := make([]string, 0, 3)
	for _, src := range s.sched.ActiveSources() {
		names = append(names, src.DisplayName())
	}

	return models.DashboardSummary{
		TotalData:       s.store.Len(store.KeyRaw),
		ProcessedData:   s.store.Len(store.KeyCleaned),
		PendingData:     pending,
		PublishedData:   published,
		LastUpdate:      time.Now().Format(time.RFC3339),
		ActivePlatforms: strings.Join(names, "、"),
		AvgProcessTime:  round1(rand.Float64()*2 + 1),
		AccuracyRate:    round1(rand.Float64()*5 + 93),
	}
}

func (s *Service) computeSourceSummary(source models.Source) models.SourceSummary {
	raw := s.store.Posts(store.KeyRaw)

	var posts []models.Post
	for _, p := range raw {
		if p.Source == source {
			posts = append(posts, p)
		}
	}

	discount, highCred, recent := 0, 0, 0
	dayAgo := time.Now().Add(-24 * time.Hour).UnixMilli()
	for _, p := range posts {
		if p.DiscountInfo != nil {
			discount++
		}
		if p.Credibility >= 80 {
			highCred++
		}
		if p.PublishTime >= dayAgo {
			recent++
		}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishTime > posts[j].PublishTime
	})
	items := posts
	if len(items) > sourceItemsCap {
		items = items[:sourceItemsCap]
	}

	return models.SourceSummary{
		Source:          source,
		Total:           len(posts),
		DiscountItems:   discount,
		HighCredibility: highCred,
		RecentItems:     recent,
		Items:           items,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
