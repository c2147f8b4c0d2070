package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge/practice-api/internal/repository"
	"github.com/carebridge/practice-api/internal/service"
	"github.com/carebridge/practice-api/pkg/cache"
	"github.com/carebridge/practice-api/pkg/config"
	"github.com/carebridge/practice-api/pkg/database"
	"github.com/carebridge/practice-api/pkg/jobs"
	"github.com/carebridge/practice-api/pkg/logger"
)

const warmBatchSize = 25

type warmBatch struct {
	PractitionerIDs []string
	Start           time.Time
	End             time.Time
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if !cfg.Warmer.Enabled {
		logr.Info("availability warmer disabled, exiting")
		return
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	metrics := service.NewMetricsService()

	practitionerRepo := repository.NewPractitionerRepository(db)
	eventRepo := repository.NewScheduleEventRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	productRepo := repository.NewProductRepository(db)
	careTeamRepo := repository.NewCareTeamRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	tools := service.NewAvailabilityTools(productRepo, appointmentRepo, logr)
	mass := service.NewMassAvailabilityCalculator(eventRepo, appointmentRepo, creditRepo, careTeamRepo, tools, metrics, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scheduling.CacheTTL, logr, cfg.Scheduling.CacheEnabled)
	availability := service.NewAvailabilityService(mass, practitionerRepo, cacheSvc, metrics, validator.New(), logr, cfg.Scheduling.CacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := jobs.NewPool("availability-warmer", func(ctx context.Context, task jobs.Task) error {
		batch, ok := task.Payload.(warmBatch)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", task.Payload)
		}
		return availability.WarmAvailableDates(ctx, batch.PractitionerIDs, batch.Start, batch.End, cfg.Warmer.VerticalName)
	}, jobs.PoolConfig{
		Workers:    cfg.Warmer.Workers,
		MaxRetries: 2,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	pool.Start(ctx)
	defer pool.Stop()

	metricsSrv := serveMetrics(cfg.Warmer.MetricsAddr, metrics, logr)
	defer shutdownMetrics(metricsSrv, logr)

	logr.Info("availability warmer started",
		zap.Duration("interval", cfg.Warmer.Interval),
		zap.Int("horizon_days", cfg.Warmer.HorizonDays),
		zap.Int("workers", cfg.Warmer.Workers))

	warmOnce(ctx, practitionerRepo, pool, cfg, logr)

	ticker := time.NewTicker(cfg.Warmer.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logr.Info("availability warmer shutting down")
			return
		case <-ticker.C:
			warmOnce(ctx, practitionerRepo, pool, cfg, logr)
		}
	}
}

func warmOnce(ctx context.Context, practitioners *repository.PractitionerRepository, pool *jobs.Pool, cfg *config.Config, logr *zap.Logger) {
	userIDs, err := practitioners.ListActiveUserIDs(ctx)
	if err != nil {
		logr.Error("failed to list active practitioners", zap.Error(err))
		return
	}
	if len(userIDs) == 0 {
		return
	}

	start := time.Now()
	end := start.AddDate(0, 0, cfg.Warmer.HorizonDays)

	for i := 0; i < len(userIDs); i += warmBatchSize {
		j := i + warmBatchSize
		if j > len(userIDs) {
			j = len(userIDs)
		}
		task := jobs.Task{
			ID:   uuid.NewString(),
			Kind: "warm_available_dates",
			Payload: warmBatch{
				PractitionerIDs: userIDs[i:j],
				Start:           start,
				End:             end,
			},
		}
		if err := pool.Submit(task); err != nil {
			logr.Warn("failed to submit warm batch", zap.Error(err))
			return
		}
	}
	logr.Info("warm cycle enqueued", zap.Int("practitioners", len(userIDs)))
}

func serveMetrics(addr string, metrics *service.MetricsService, logr *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server, logr *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Warn("metrics server shutdown failed", zap.Error(err))
	}
}
