package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/archive"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/cache"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/httpapi"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/metrics"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/scheduler"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/service"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/sources"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/store"
)

// app wires the pipeline components together for the CLI commands.
type app struct {
	cfg      config.Config
	store    *store.Store
	cache    cache.ResponseCache
	registry *metrics.Registry
	monitor  *metrics.Monitor
	sched    *scheduler.Scheduler
	svc      *service.Service
	arch     *archive.Archive

	memCache   *cache.TTLCache
	redisCache *cache.RedisCache
}

// buildApp loads configuration and constructs every component.
func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		store:    store.New(),
		registry: metrics.NewRegistry(),
		monitor:  metrics.NewMonitor(),
	}

	switch cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory cache")
			a.memCache = cache.NewTTLCache(cfg.Cache.MaxEntries)
			a.cache = a.memCache
		} else {
			a.redisCache = rc
			a.cache = rc
		}
	default:
		a.memCache = cache.NewTTLCache(cfg.Cache.MaxEntries)
		a.cache = a.memCache
	}

	httpClient := &http.Client{Timeout: cfg.Sources[string(models.SourceXiaohongshu)].Timeout()}
	clients := []sources.Client{
		sources.NewXiaohongshuClient(cfg.Sources[string(models.SourceXiaohongshu)], httpClient),
		sources.NewPlaceholderClient(models.SourceWeibo, cfg.Sources[string(models.SourceWeibo)]),
		sources.NewPlaceholderClient(models.SourceDouyin, cfg.Sources[string(models.SourceDouyin)]),
	}

	collector := scheduler.NewCollector(cfg, clients, a.registry)
	a.sched = scheduler.New(cfg, a.store, collector, a.monitor, a.registry)

	if cfg.Archive.Enabled {
		arch, err := archive.Open(cfg.Archive.DSN, cfg.Archive.Timeout())
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		if err := arch.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
		a.arch = arch
	}

	a.svc = service.New(cfg, a.store, a.cache, a.sched, a.monitor, a.registry, a.arch)
	return a, nil
}

// Close releases background resources.
func (a *app) Close() {
	if a.memCache != nil {
		a.memCache.Stop()
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			log.Warn().Err(err).Msg("Redis close failed")
		}
	}
	if a.arch != nil {
		if err := a.arch.Close(); err != nil {
			log.Warn().Err(err).Msg("Archive close failed")
		}
	}
}

func runServe(configPath string) error {
	a, err := buildApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.sched.Start(ctx)
	defer a.sched.StopAll()

	server := httpapi.NewServer(a.cfg.Server, a.svc, a.registry)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runCollect(configPath, source string) error {
	a, err := buildApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.svc.TriggerCollection(context.Background(), models.Source(source))
	log.Info().Bool("success", result.Success).Int("collected", result.Collected).
		Str("message", result.Message).Msg("Collection finished")
	if !result.Success {
		return fmt.Errorf("collection failed: %s", result.Error)
	}
	return nil
}

func runExport(configPath, format, dateRange, out string) error {
	a, err := buildApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	a.sched.RunCollectionOnce(ctx)

	data, _, err := a.svc.ExportReport(ctx, format, dateRange)
	if err != nil {
		return err
	}

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Info().Str("path", out).Str("format", format).Msg("Report written")
	return nil
}
