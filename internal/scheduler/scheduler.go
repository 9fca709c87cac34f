// Package scheduler drives the ingestion pipeline: a periodic collection job
// that fetches from every source and chains into cleaning, a slower cleaning
// job that re-runs the processing stages on their own cadence, and a
// monitoring job that refreshes the system health snapshot.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/metrics"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/pipeline"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/store"
)

// Job names.
const (
	JobCollection = "collection"
	JobCleaning   = "cleaning"
	JobMonitoring = "monitoring"
)

// ValueSystemMetrics is the store key holding the latest monitoring snapshot.
const ValueSystemMetrics = "system_metrics"

// JobStatus describes one scheduled job.
type JobStatus struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	LastRun  time.Time     `json:"lastRun"`
	Running  bool          `json:"running"`
}

// Scheduler owns the periodic jobs and the manual collection trigger. Each
// job is single-flight: a tick that arrives while the previous run is still
// going is skipped, not queued.
type Scheduler struct {
	cfg        config.Config
	store      *store.Store
	collector  *Collector
	cleaner    *pipeline.Cleaner
	classifier *pipeline.Classifier
	validator  *pipeline.Validator
	monitor    *metrics.Monitor
	registry   *metrics.Registry

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight map[string]bool
	lastRun  map[string]time.Time
}

// New creates a scheduler over the shared store and pipeline stages.
func New(cfg config.Config, st *store.Store, collector *Collector, monitor *metrics.Monitor, registry *metrics.Registry) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		store:      st,
		collector:  collector,
		cleaner:    pipeline.NewCleaner(cfg.Filters),
		classifier: pipeline.NewClassifier(),
		validator:  pipeline.NewValidator(cfg.Filters),
		monitor:    monitor,
		registry:   registry,
		inFlight:   make(map[string]bool),
		lastRun:    make(map[string]time.Time),
	}
}

// Start launches the periodic jobs. Collection and monitoring run once
// immediately; cleaning waits for its first tick since collection already
// chains into it. Start is a no-op when the scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("Scheduler already running")
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	log.Info().
		Dur("collection_interval", s.cfg.Scheduler.CollectionInterval()).
		Dur("cleaning_interval", s.cfg.Scheduler.CleaningInterval()).
		Dur("monitoring_interval", s.cfg.Scheduler.MonitoringInterval()).
		Msg("Scheduler starting")

	s.spawn(ctx, JobMonitoring, s.cfg.Scheduler.MonitoringInterval(), true, s.runMonitoring)
	s.spawn(ctx, JobCollection, s.cfg.Scheduler.CollectionInterval(), true, func(ctx context.Context) {
		s.runCollection(ctx, "scheduled")
	})
	s.spawn(ctx, JobCleaning, s.cfg.Scheduler.CleaningInterval(), false, s.runProcessing)
}

// StopAll cancels every job and waits for in-flight runs to finish.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	log.Info().Msg("Scheduler stopped")
}

// Status reports each job's cadence and last completed run.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	intervals := map[string]time.Duration{
		JobCollection: s.cfg.Scheduler.CollectionInterval(),
		JobCleaning:   s.cfg.Scheduler.CleaningInterval(),
		JobMonitoring: s.cfg.Scheduler.MonitoringInterval(),
	}
	statuses := make([]JobStatus, 0, len(intervals))
	for _, name := range []string{JobCollection, JobCleaning, JobMonitoring} {
		statuses = append(statuses, JobStatus{
			Name:     name,
			Interval: intervals[name],
			LastRun:  s.lastRun[name],
			Running:  s.inFlight[name],
		})
	}
	return statuses
}

// TriggerCollection runs an on-demand collection for a single source and
// merges the result into the raw collection, replacing only that source's
// posts. The processing stages run immediately afterwards.
func (s *Scheduler) TriggerCollection(ctx context.Context, source models.Source) models.OpResult {
	client, ok := s.collector.ClientFor(source)
	if !ok {
		return models.OpResult{
			Success: false,
			Error:   fmt.Sprintf("unknown source: %s", source),
		}
	}
	if !client.IsActive() {
		return models.OpResult{
			Success: false,
			Error:   fmt.Sprintf("source is disabled: %s", source),
		}
	}

	log.Info().Str("source", string(source)).Msg("Manual collection triggered")
	posts := s.collector.CollectSource(ctx, client)

	s.store.UpdatePosts(store.KeyRaw, func(cur []models.Post) []models.Post {
		merged := make([]models.Post, 0, len(cur)+len(posts))
		for _, p := range cur {
			if p.Source != source {
				merged = append(merged, p)
			}
		}
		return append(merged, posts...)
	})
	s.registry.CollectionRuns.WithLabelValues("manual", "ok").Inc()
	s.registry.StoreSize.WithLabelValues(store.KeyRaw).Set(float64(s.store.Len(store.KeyRaw)))

	s.runProcessing(ctx)

	return models.OpResult{
		Success:   true,
		Collected: len(posts),
		Message:   fmt.Sprintf("collected %d posts from %s", len(posts), source),
	}
}

// RunCollectionOnce executes a single collection cycle synchronously,
// including the chained processing stages. One-shot CLI commands use this
// instead of Start.
func (s *Scheduler) RunCollectionOnce(ctx context.Context) {
	s.runJob(ctx, JobCollection, func(ctx context.Context) {
		s.runCollection(ctx, "once")
	})
}

// ActiveSources lists the platforms currently being collected from.
func (s *Scheduler) ActiveSources() []models.Source {
	return s.collector.ActiveSources()
}

// spawn starts the ticker loop for one job.
func (s *Scheduler) spawn(ctx context.Context, name string, interval time.Duration, immediate bool, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if immediate {
			s.runJob(ctx, name, fn)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runJob(ctx, name, fn)
			}
		}
	}()
}

// runJob executes fn with single-flight protection and panic recovery. A
// panic in one run is logged and counted; the job keeps its schedule.
func (s *Scheduler) runJob(ctx context.Context, name string, fn func(context.Context)) {
	s.mu.Lock()
	if s.inFlight[name] {
		s.mu.Unlock()
		log.Warn().Str("job", name).Msg("Previous run still in flight, skipping tick")
		return
	}
	s.inFlight[name] = true
	s.mu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job", name).Interface("panic", r).Msg("Job panicked")
			s.registry.StageErrors.WithLabelValues(name).Inc()
		}
		s.registry.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		s.mu.Lock()
		s.inFlight[name] = false
		s.lastRun[name] = time.Now()
		s.mu.Unlock()
	}()

	fn(ctx)
}

// runCollection fetches from all sources, replaces the raw snapshot and,
// after the chain delay, runs the processing stages.
func (s *Scheduler) runCollection(ctx context.Context, trigger string) {
	posts := s.collector.CollectAll(ctx)
	if ctx.Err() != nil {
		s.registry.CollectionRuns.WithLabelValues(trigger, "cancelled").Inc()
		return
	}

	s.store.ReplacePosts(store.KeyRaw, posts)
	s.registry.CollectionRuns.WithLabelValues(trigger, "ok").Inc()
	s.registry.StoreSize.WithLabelValues(store.KeyRaw).Set(float64(len(posts)))
	log.Info().Str("trigger", trigger).Int("posts", len(posts)).Msg("Raw collection replaced")

	if !sleepCtx(ctx, s.cfg.Scheduler.ChainDelay()) {
		return
	}
	s.runProcessing(ctx)
}

// runProcessing cleans the raw snapshot and classifies the result, replacing
// the cleaned and classified collections.
func (s *Scheduler) runProcessing(ctx context.Context) {
	raw := s.store.Posts(store.KeyRaw)

	cleaned := s.cleaner.Clean(raw)
	s.store.ReplacePosts(store.KeyCleaned, cleaned)
	s.registry.StoreSize.WithLabelValues(store.KeyCleaned).Set(float64(len(cleaned)))

	classified := s.validator.Validate(s.classifier.Classify(cleaned))
	s.store.ReplacePosts(store.KeyClassified, classified)
	s.registry.StoreSize.WithLabelValues(store.KeyClassified).Set(float64(len(classified)))

	log.Info().Int("raw", len(raw)).Int("cleaned", len(cleaned)).Int("classified", len(classified)).
		Msg("Processing stages completed")
}

// runMonitoring refreshes the system metrics snapshot.
func (s *Scheduler) runMonitoring(ctx context.Context) {
	snap := s.monitor.Refresh()
	s.store.SetValue(ValueSystemMetrics, snap)
}
