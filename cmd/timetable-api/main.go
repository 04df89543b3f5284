package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-core/api/swagger"
	"github.com/noah-isme/timetable-core/internal/handler"
	"github.com/noah-isme/timetable-core/internal/repository"
	"github.com/noah-isme/timetable-core/internal/service"
	"github.com/noah-isme/timetable-core/pkg/cache"
	"github.com/noah-isme/timetable-core/pkg/config"
	"github.com/noah-isme/timetable-core/pkg/database"
	"github.com/noah-isme/timetable-core/pkg/jobs"
	"github.com/noah-isme/timetable-core/pkg/logger"
)

// @title Timetable Core API
// @version 1.0.0
// @description Course assignment conflict detection, calendar projections and utilization statistics.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	if err := run(cfg, logr); err != nil {
		logr.Error("server exited", zap.Error(err))
		_ = logr.Sync()
		os.Exit(1)
	}
	_ = logr.Sync()
}

// run owns every resource so deferred cleanups execute before the process exits.
func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	var persistence service.AssignmentPersistence
	if cfg.Database.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close() //nolint:errcheck
		persistence = repository.NewAssignmentRepository(db)
	}

	var cacheRepo service.CacheRepository
	if cfg.Statistics.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer closeRedis(repo, logr)
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Statistics.CacheTTL, logr, cacheRepo != nil)

	store := repository.NewAssignmentStore()
	tasks := repository.NewTaskStore()
	conflicts := service.NewConflictService(store, logr)
	views := service.NewViewService(cfg.Scheduling.TermWeeks, logr)
	stats := service.NewStatisticsService(store, tasks, conflicts, cacheSvc, metrics, logr, service.StatisticsConfig{
		TotalSlotsPerClassroom: cfg.Scheduling.SlotsPerClassroom,
		CacheTTL:               cfg.Statistics.CacheTTL,
	})

	refresher := jobs.NewQueue("statistics", stats.RefreshHandler(), jobs.QueueConfig{
		Workers:    cfg.Statistics.Workers,
		MaxRetries: cfg.Statistics.MaxRetries,
		Coalesce:   true,
		Logger:     logr,
	})
	refresher.Start(ctx)
	defer refresher.Stop()

	scheduling := service.NewSchedulingService(
		store,
		tasks,
		conflicts,
		views,
		stats,
		cacheSvc,
		persistence,
		refresher,
		validator.New(),
		metrics,
		logr,
		service.SchedulingConfig{
			TermWeeks:       cfg.Scheduling.TermWeeks,
			StrictResources: cfg.Scheduling.StrictResources,
		},
	)

	if cfg.Scheduling.LoadOnStart {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.Scheduling.LoadTimeout)
		report, err := scheduling.Load(loadCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("initial assignment load: %w", err)
		}
		logr.Info("initial assignment load", zap.Int("loaded", report.Loaded), zap.Int("skipped", report.Skipped))
	}

	router := handler.NewRouter(handler.RouterOptions{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSMaxAge:     cfg.CORS.MaxAge,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Scheduling:     handler.NewSchedulingHandler(scheduling),
		Tasks:          handler.NewTaskHandler(scheduling),
		Observability:  handler.NewMetricsHandler(metrics, store),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduling.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown", zap.Error(err))
	}
	logr.Info("server stopped")
	return nil
}

func closeRedis(repo *repository.CacheRepository, logr *zap.Logger) {
	if err := repo.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		logr.Warn("close redis", zap.Error(err))
	}
}
