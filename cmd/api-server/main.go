// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"magicbus-backend/internal/api"
	"magicbus-backend/internal/common/config"
	"magicbus-backend/internal/common/database"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/dropout"
	"magicbus-backend/internal/genai"
	"magicbus-backend/internal/repository"
	"magicbus-backend/internal/search"
	"magicbus-backend/internal/warehouse"
	skillratings "magicbus-backend/internal/workers/analytics/skill-ratings"
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

	zapLog.Info("Starting API server...")

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

	catalog := repository.NewCatalog(pg.DB, log)
	analyzer := dropout.NewAnalyzer(pg.DB, log)

	// --- Optional warehouse ---
	var warehouseHandler *api.WarehouseHandler
	var analyticsHandler *api.AnalyticsHandler
	if cfg.Warehouse.DSN != "" {
		wh, whErr := warehouse.NewClient(cfg.Warehouse.DSN, cfg.Warehouse.Catalog, cfg.Warehouse.Schema, log)
		if whErr != nil {
			zapLog.Warn("warehouse unavailable, warehouse endpoints disabled", zap.Error(whErr))
		} else {
			defer wh.Close()
			warehouseHandler = api.NewWarehouseHandler(wh)

			if cfg.GenAI.APIKey != "" {
				model, modelErr := genai.NewClient(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model,
					time.Duration(cfg.GenAI.TimeoutSeconds)*time.Second)
				if modelErr != nil {
					zapLog.Warn("model client unavailable, skill ratings disabled", zap.Error(modelErr))
				} else {
					analyticsHandler = api.NewAnalyticsHandler(
						skillratings.NewService(skillratings.LoadConfig(), model, wh, log))
				}
			}
		}
	}

	// --- Optional search cluster ---
	var indexer *search.Indexer
	esClient, esErr := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if esErr != nil || esClient.Ping() != nil {
		zapLog.Warn("elasticsearch unavailable, applicant search disabled", zap.Error(esErr))
	} else {
		indexer = search.NewIndexer(esClient.Client, search.DefaultIndex, log)
	}

	router := api.NewRouter(cfg.App, api.Handlers{
		Tables:    api.NewTablesHandler(catalog, cfg.Onboarding.ApplicantTable, log),
		Query:     api.NewQueryHandler(catalog),
		Dropout:   api.NewDropoutHandler(analyzer),
		Warehouse: warehouseHandler,
		Search:    api.NewSearchHandler(catalog, indexer),
		Analytics: analyticsHandler,
	}, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		zapLog.Info("API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("API server shut down")
}
