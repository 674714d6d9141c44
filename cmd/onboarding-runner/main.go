// cmd/onboarding-runner/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	commonaws "magicbus-backend/internal/common/aws"
	"magicbus-backend/internal/common/config"
	"magicbus-backend/internal/common/database"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/common/observability"
	"magicbus-backend/internal/dedup"
	"magicbus-backend/internal/genai"
	"magicbus-backend/internal/notify"
	"magicbus-backend/internal/ocr"
	"magicbus-backend/internal/orchestrator"
	"magicbus-backend/internal/repository"
	"magicbus-backend/internal/search"
	"magicbus-backend/internal/session"
	"magicbus-backend/internal/translate"
	"magicbus-backend/internal/whatsapp"
	evaluatecompleteness "magicbus-backend/internal/workers/onboarding/evaluate-completeness"
	extractapplicantinfo "magicbus-backend/internal/workers/onboarding/extract-applicant-info"
	verifydocument "magicbus-backend/internal/workers/onboarding/verify-document"
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
			delay *= 2
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

	zapLog.Info("Starting onboarding runner...")

	obs := observability.New("onboarding-runner")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()

	// --- Optional Elasticsearch: onboarding works without the index ---
	var indexer *search.Indexer
	esClient, esErr := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if esErr != nil || esClient.Ping() != nil {
		zapLog.Warn("elasticsearch unavailable, applicant indexing disabled", zap.Error(esErr))
	} else {
		indexer = search.NewIndexer(esClient.Client, search.DefaultIndex, log)
	}

	// --- Model, OCR, bridge ---
	model, err := genai.NewClient(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model,
		time.Duration(cfg.GenAI.TimeoutSeconds)*time.Second)
	if err != nil {
		zapLog.Fatal("model client init failed", zap.Error(err))
	}

	bridge := whatsapp.NewClient(cfg.WhatsApp.BaseURL,
		time.Duration(cfg.WhatsApp.TimeoutSeconds)*time.Second)
	ocrClient := ocr.NewClient(cfg.OCR.BaseURL,
		time.Duration(cfg.OCR.TimeoutSeconds)*time.Second, log)

	var translator orchestrator.Translator
	if cfg.Translate.BaseURL != "" {
		translator = translate.NewClient(cfg.Translate.BaseURL,
			time.Duration(cfg.Translate.TimeoutSeconds)*time.Second)
	}

	// --- Optional staff notifications ---
	var notifier orchestrator.EscalationNotifier
	if cfg.Notifications.AWS.SES.Enabled || cfg.Notifications.AWS.SNS.Enabled {
		sesClient, sesErr := commonaws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		snsClient, snsErr := commonaws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if sesErr != nil || snsErr != nil {
			zapLog.Warn("aws clients unavailable, escalation notices disabled",
				zap.NamedError("ses", sesErr), zap.NamedError("sns", snsErr))
		} else {
			notifier = notify.NewEscalationNotifier(cfg.Notifications, sesClient, snsClient, log)
		}
	}

	// --- Assemble the pipeline ---
	sessions := session.NewStore(rdb.Client)
	extractor := extractapplicantinfo.NewService(
		&extractapplicantinfo.Config{Timeout: time.Duration(cfg.GenAI.TimeoutSeconds) * time.Second},
		model, sessions, log)
	verifier := verifydocument.NewService(
		&verifydocument.Config{Timeout: time.Duration(cfg.GenAI.TimeoutSeconds) * time.Second},
		model, ocrClient, sessions, log)

	applicants := repository.NewApplicantRepository(pg.DB, cfg.Onboarding.ApplicantTable, log)
	verdicts := repository.NewVerdictRepository(pg.DB, cfg.Onboarding.VerdictTable, log)

	orch := orchestrator.New(
		cfg.Onboarding,
		bridge,
		extractor,
		evaluatecompleteness.NewService(),
		verifier,
		applicants,
		verdicts,
		dedup.NewSeenSet(),
		orchestrator.Options{
			Indexer:    indexerOrNil(indexer),
			Notifier:   notifier,
			Translator: translator,
			Obs:        obs,
		},
		log,
	)

	// Metrics endpoint for the runner process.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("metrics listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			zapLog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	zapLog.Info("onboarding runner started",
		zap.Int("pollIntervalSeconds", cfg.Onboarding.PollIntervalSeconds))

	if err := orch.Run(ctx); err != nil && err != context.Canceled {
		zapLog.Fatal("runner stopped", zap.Error(err))
	}
	zapLog.Info("onboarding runner shut down")
}

// indexerOrNil avoids wrapping a nil *search.Indexer in a non-nil
// interface value.
func indexerOrNil(indexer *search.Indexer) orchestrator.ApplicantIndexer {
	if indexer == nil {
		return nil
	}
	return indexer
}
