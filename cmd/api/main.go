// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"seguros-cotacoes/internal/api"
	"seguros-cotacoes/internal/cep"
	awsclients "seguros-cotacoes/internal/common/aws"
	"seguros-cotacoes/internal/common/config"
	"seguros-cotacoes/internal/common/database"
	"seguros-cotacoes/internal/common/logger"
	"seguros-cotacoes/internal/common/observability"
	"seguros-cotacoes/internal/notification"
	"seguros-cotacoes/internal/quote"
	"seguros-cotacoes/internal/storage"
	"seguros-cotacoes/internal/whatsapp"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting quote service...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init notification mailer ---
	var notifier quote.Notifier
	if cfg.Email.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Email.AWSRegion)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		notifier = notification.NewMailer(sesClient, cfg.Email.FromEmail, cfg.Email.OperationsEmail, log)
		zapLog.Info("SES mailer initialized")
	} else {
		zapLog.Warn("email notifications disabled")
	}

	// --- Init attachment storage ---
	var uploader quote.Uploader
	if cfg.Storage.Enabled {
		s3Client, err := awsclients.NewS3Client(ctx, cfg.Storage.AWSRegion)
		if err != nil {
			zapLog.Fatal("s3 client failed", zap.Error(err))
		}
		uploader = storage.NewUploader(s3Client, cfg.Storage.Bucket, log)
		zapLog.Info("S3 uploader initialized", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		zapLog.Warn("attachment storage disabled")
	}

	// --- Wire the quote pipeline ---
	sellers := make([]string, 0, len(cfg.Consultants.Phones))
	for name := range cfg.Consultants.Phones {
		sellers = append(sellers, name)
	}
	catalog := quote.NewCatalog(sellers)
	repo := quote.NewRepository(pg.DB, log)
	guard := quote.NewIdempotencyGuard(redis.Client, log)
	links := whatsapp.NewLinkBuilder(cfg.Consultants.Phones, cfg.Consultants.DefaultPhone, log)
	submitter := quote.NewSubmitter(catalog, repo, guard, uploader, notifier, links, obs, log)

	cepClient := cep.NewClient(cfg.CEP.BaseURL, time.Duration(cfg.CEP.Timeout)*time.Millisecond, log)

	handlers := api.NewHandlers(submitter, cepClient, catalog, log)
	server := api.NewServer(fmt.Sprintf(":%d", cfg.Server.Port), api.Timeouts{
		Read:    config.GetDuration(cfg.Server.ReadTimeout),
		Write:   config.GetDuration(cfg.Server.WriteTimeout),
		Request: config.GetDuration(cfg.Server.RequestTimeout),
	}, handlers, log)

	go func() {
		if err := server.Run(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Quote service stopped gracefully")
}
