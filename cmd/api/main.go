package main

import (
	"admissions-portal/internal/billing"
	"admissions-portal/internal/client"
	"admissions-portal/internal/config"
	"admissions-portal/internal/logging"
	"admissions-portal/internal/metrics"
	"admissions-portal/internal/repository"
	"admissions-portal/internal/server"
	"admissions-portal/internal/service"
	"admissions-portal/internal/verification"
	"admissions-portal/internal/worker"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Printf("Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		logger.Error("database init failed", logging.Err(err))
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(registry); err != nil {
		logger.Error("metrics registration failed", logging.Err(err))
		os.Exit(1)
	}

	appRepo := repository.NewApplicationRepository(db)
	universityRepo := repository.NewUniversityRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	var backend verification.Backend
	if gemini := client.NewGeminiClient(&cfg.Gemini); gemini.Configured() {
		backend = gemini
	} else {
		logger.Warn("generative scoring not configured, using deterministic scorer")
	}
	verifier := verification.NewVerifier(appRepo, documentRepo, universityRepo, backend, m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pool := worker.NewPool(verifier, cfg.Verification.Workers, cfg.Verification.QueueSize, m, logger)
	pool.Start(ctx)

	var dispatcher worker.Dispatcher = pool
	var consumer *worker.KafkaConsumer
	if cfg.Kafka.Enabled() {
		kafkaDispatcher := worker.NewKafkaDispatcher(cfg.Kafka)
		defer kafkaDispatcher.Close()
		dispatcher = kafkaDispatcher

		consumer = worker.NewKafkaConsumer(cfg.Kafka, pool, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("verification consumer stopped", logging.Err(err))
			}
		}()
		logger.Info("verification dispatched through kafka", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("topic", cfg.Kafka.Topic))
	}

	sweeper := worker.NewSweeper(appRepo, dispatcher, cfg.Verification.StaleAfter, cfg.Verification.SweepBatch, logger)
	if err := sweeper.Start(cfg.Verification.SweepSchedule); err != nil {
		logger.Error("sweeper start failed", logging.Err(err))
		os.Exit(1)
	}

	razorpayClient := client.NewRazorpayClient(&cfg.Razorpay)
	if !razorpayClient.Configured() {
		logger.Warn("razorpay not configured, payment orders will be refused")
	}
	gate := billing.NewGate(cfg.Fees.IssueResolution, cfg.Fees.Currency)

	services := server.Services{
		Applications: service.NewApplicationService(appRepo, universityRepo, paymentRepo, verifier, dispatcher, m, logger),
		Payments: service.NewPaymentService(
			db, razorpayClient, cfg.Razorpay.KeyID, gate,
			appRepo,
			universityRepo,
			paymentRepo,
			webhookEventRepo,
			m, logger,
		),
		Refunds:      service.NewRefundService(db, refundRepo, paymentRepo, logger),
		Tickets:      service.NewTicketService(ticketRepo, appRepo),
		Universities: service.NewUniversityService(universityRepo),
		Documents:    service.NewDocumentService(documentRepo, appRepo),
		Dashboard:    service.NewDashboardService(appRepo, paymentRepo, refundRepo, ticketRepo),
	}

	if cfg.Auth.DevBypass && cfg.Environment.IsProduction() {
		logger.Error("AUTH_DEV_BYPASS must not be enabled in production")
		os.Exit(1)
	}

	// Init HTTP server
	srv := server.NewServer(services, server.Options{
		Auth:              cfg.Auth,
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		ExposeErrorDetail: !cfg.Environment.IsProduction(),
		Gatherer:          registry,
		Logger:            logger,
	})

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	logger.Info("starting HTTP server", slog.String("addr", serverAddr), slog.String("environment", cfg.Environment.Name))
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", logging.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	sweeper.Stop()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("close verification consumer", logging.Err(err))
		}
	}
	pool.Stop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("shutdown complete")
}
