package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SendLater/internal/api"
	"SendLater/internal/config"
	"SendLater/internal/dispatch"
	"SendLater/internal/email"
	"SendLater/internal/events"
	"SendLater/internal/metrics"
	"SendLater/internal/timer"
)

func main() {

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// logger depends on config; fall back to a production logger
		zap.Must(zap.NewProduction()).Fatal("failed to load config", zap.Error(err))
	}

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Metrics
	// ------------------------------------------------
	metrics.Init()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Mail Transport
	// ------------------------------------------------
	transport := newTransport(cfg, logger)

	// ------------------------------------------------
	// Outcome Events
	// ------------------------------------------------
	var publisher events.Publisher = events.Nop{}
	if cfg.RedisAddr != "" {
		pub, err := events.NewRedisPublisher(ctx, events.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.EventsChannel,
		}, logger)
		if err != nil {
			logger.Fatal("redis publisher failed", zap.Error(err))
		}
		publisher = pub
	}
	defer publisher.Close()

	// ------------------------------------------------
	// Timers
	// ------------------------------------------------
	var timers timer.Facility = timer.NewAfterFunc()
	if cfg.TimerBackend == "cron" {
		c := timer.NewCron(logger)
		c.Start()
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			_ = c.Stop(stopCtx)
		}()
		timers = c
	}

	// ------------------------------------------------
	// Dispatch Scheduler
	// ------------------------------------------------
	scheduler := dispatch.New(transport, timers,
		dispatch.WithLogger(logger),
		dispatch.WithWorkers(cfg.WorkerCount),
		dispatch.WithQueueSize(cfg.QueueSize),
		dispatch.WithPublisher(publisher),
	)
	scheduler.Start(ctx)

	// ------------------------------------------------
	// HTTP API Server
	// ------------------------------------------------
	apiHandler := api.NewHandler(scheduler, logger, api.Options{
		SanitizeHTML: cfg.SanitizeHTML,
		BatchMaxRows: cfg.BatchMaxRows,
		ScheduleSkew: cfg.ScheduleSkew,
	})

	apiServer := &http.Server{
		Addr: ":" + cfg.APIPort,
		Handler: api.NewRouter(apiHandler, api.RouterConfig{
			JWTSecret:      []byte(cfg.JWTSecret),
			AllowedOrigins: []string{cfg.FrontendURL},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api server started",
			zap.String("port", cfg.APIPort),
			zap.String("transport", cfg.MailTransport),
			zap.String("timers", cfg.TimerBackend),
		)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// Stop accepting new requests
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}

	// Already triggered by ctx; waits until claimed jobs are delivered
	scheduler.Shutdown()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newTransport(cfg *config.Config, logger *zap.Logger) dispatch.Transport {
	switch cfg.MailTransport {
	case "resend":
		return email.NewResendSender(cfg.ResendAPIKey, cfg.SMTPFrom)
	case "log":
		return &email.LogSender{Log: logger.Named("mail")}
	default:
		return &email.Sender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}
	}
}
