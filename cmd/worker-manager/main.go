// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"remnawave-workers/internal/common/camunda"
	"remnawave-workers/internal/common/config"
	"remnawave-workers/internal/common/database"
	commonhttp "remnawave-workers/internal/common/http"
	"remnawave-workers/internal/common/logger"
	"remnawave-workers/internal/common/observability"
	"remnawave-workers/internal/remnawave"

	apidispatch "remnawave-workers/internal/workers/remnawave/api-dispatch"
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

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if cfg.Camunda.BrokerAddress == "" {
		zapLog.Fatal("camunda.broker_address is required")
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, camunda.ConfigFromApp(cfg.Camunda), log.Named("camunda"))
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully", zap.String("address", cfg.Camunda.BrokerAddress))

	// --- Credentials ---
	var credentials remnawave.CredentialsProvider
	switch cfg.Credentials.Source {
	case config.CredentialsSourceRedis:
		redisClient := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		credentials = remnawave.NewRedisCredentials(redisClient.Client, cfg.Credentials.RedisKeyPrefix, "")
		zapLog.Info("Redis credentials provider ready", zap.String("keyPrefix", cfg.Credentials.RedisKeyPrefix))
	default:
		credentials = remnawave.NewStaticCredentials(cfg.Remnawave.URL, cfg.Remnawave.APIKey)
		zapLog.Info("Static credentials provider ready", zap.String("baseUrl", cfg.Remnawave.URL))
	}

	// --- Audit (optional) ---
	var audit remnawave.AuditRecorder
	if cfg.Audit.Enabled {
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

		store, err := remnawave.NewPostgresAudit(pg, cfg.Audit.Table)
		if err != nil {
			zapLog.Fatal("invalid audit configuration", zap.Error(err))
		}
		if err := store.EnsureTable(ctx); err != nil {
			zapLog.Fatal("failed to prepare audit table", zap.Error(err))
		}
		audit = store
		zapLog.Info("Dispatch audit enabled", zap.String("table", cfg.Audit.Table))
	}

	// --- Workers ---
	dispatchHandler, err := apidispatch.NewHandler(apidispatch.HandlerOptions{
		AppConfig:     cfg,
		Camunda:       zeebe,
		Logger:        log,
		Credentials:   credentials,
		Transport:     commonhttp.NewClient(config.GetDuration(cfg.Remnawave.Timeout)),
		Audit:         audit,
		Observability: obs,
	})
	if err != nil {
		zapLog.Fatal("failed to create remnawave-api-dispatch handler", zap.Error(err))
	}
	if err := dispatchHandler.Register(); err != nil {
		zapLog.Fatal("failed to register remnawave-api-dispatch worker", zap.Error(err))
	}
	defer dispatchHandler.Close()

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := dispatchHandler.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
