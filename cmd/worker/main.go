package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/app"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/scheduler"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/services"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/utils"
)

const finishedJobRetention = 7 * 24 * time.Hour

func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	log.Info().Str("env", cfg.Env).Msg("🚀 Starting stock-delivery worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to connect to database")
	}
	defer db.Close()

	storage, err := upload.NewServiceFromOptions(ctx, upload.Options{
		LocalDir:     cfg.UploadDir,
		LocalBaseURL: cfg.UploadBaseURL,
		S3: upload.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to init file storage")
	}

	auditService := audit.NewService(db.GORM)
	m := metrics.New()
	jobService := jobs.NewService(db.GORM, m)
	reportService := services.NewReportService(repositories.NewOrderRepo(db.GORM), export.NewService(), storage)

	workerCfg := jobs.DefaultWorkerConfig()
	workerCfg.Queue = "reports"
	if cfg.WorkerConcurrency > 0 {
		workerCfg.Concurrency = cfg.WorkerConcurrency
	}
	jobService.RegisterWorker(workerCfg, reportService.DailyReportHandler())
	if err := jobService.StartWorkers(ctx); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to start workers")
	}

	sched := scheduler.New(ctx, 5*time.Minute)
	mustAdd(sched, "daily-orders-report", cfg.ReportCron, func(ctx context.Context) error {
		job, err := reportService.EnqueueYesterday(ctx, jobService)
		if err != nil {
			return err
		}
		log.Info().Str("job_id", job.ID.String()).Msg("📥 Daily report queued")
		return nil
	})
	mustAdd(sched, "audit-retention", "0 30 2 * * *", func(ctx context.Context) error {
		_, err := auditService.DeleteOldLogs(ctx, cfg.AuditRetentionDays)
		return err
	})
	mustAdd(sched, "job-cleanup", "0 0 3 * * *", func(ctx context.Context) error {
		deleted, err := jobService.Cleanup(ctx, finishedJobRetention)
		if err != nil {
			return err
		}
		log.Info().Int64("deleted", deleted).Msg("🧹 Finished jobs purged")
		return nil
	})
	sched.Start()

	metricsServer := m.App()
	go func() {
		if err := metricsServer.Listen(":" + cfg.MetricsPort); err != nil {
			log.Error().Err(err).Msg("❌ Metrics listener stopped")
		}
	}()

	log.Info().
		Str("queue", workerCfg.Queue).
		Int("concurrency", workerCfg.Concurrency).
		Str("storage", storage.ProviderName()).
		Str("metrics", ":"+cfg.MetricsPort).
		Msg("✅ Worker running")

	<-ctx.Done()
	log.Info().Msg("🛑 Shutting down worker...")
	sched.Stop()
	jobService.StopWorkers()
	if err := metricsServer.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error().Err(err).Msg("❌ Metrics shutdown failed")
	}
	log.Info().Msg("👋 Worker stopped")
}

func mustAdd(s *scheduler.Scheduler, name, spec string, task scheduler.Task) {
	if err := s.Add(name, spec, task); err != nil {
		log.Fatal().Err(err).Str("task", name).Str("spec", spec).Msg("❌ Invalid schedule")
	}
}
