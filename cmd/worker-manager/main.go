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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"incident-assistant/internal/common/aws"
	"incident-assistant/internal/common/camunda"
	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/database"
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/common/observability"
	"incident-assistant/internal/store"

	llm "incident-assistant/internal/workers/ai-conversation/llm-synthesis"
	es "incident-assistant/internal/workers/communication/email-send"
	ci "incident-assistant/internal/workers/incident/create-incident"
	si "incident-assistant/internal/workers/incident/search-incidents"
	skb "incident-assistant/internal/workers/knowledge/search-knowledge-base"
)

const serviceName = "worker-manager"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
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
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// registration builds one worker's handler on demand so disabled workers
// never touch their dependencies.
type registration struct {
	taskType string
	build    func() (camunda.JobHandler, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	if err := config.ValidateForWorkers(cfg); err != nil {
		zapLog.Fatal("invalid worker configuration", zap.Error(err))
	}
	if err := config.ValidateForStore(cfg); err != nil {
		zapLog.Fatal("invalid database configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracing, err := observability.NewTracing(cfg.Tracing, serviceName)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	obs, err := observability.New(serviceName, prometheus.DefaultRegisterer, tracing)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(ctx, func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("broker", cfg.Camunda.BrokerAddress))

	// --- Init SQL database with retry ---
	var db *database.SQLClient
	err = retryWithBackoff(ctx, func() error {
		var err error
		db, err = database.NewSQL(cfg.Database)
		if err != nil {
			return err
		}
		if err := db.Ping(ctx); err != nil {
			_ = db.Close()
			return err
		}
		return nil
	}, 15, 2*time.Second, zapLog, "Database connection")
	if err != nil {
		zapLog.Fatal("database failed after retries", zap.Error(err))
	}
	defer db.Close()
	zapLog.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	backends := store.Backends{DB: db.GetDB()}

	// --- Init Redis with retry (optional) ---
	if cfg.Database.Redis.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(ctx, func() error {
			var err error
			redis, err = database.ConnectRedis(ctx, cfg.Database.Redis)
			return err
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, searches are not cached", zap.Error(err))
		} else {
			defer redis.Close()
			backends.Redis = redis.GetClient()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init Elasticsearch with retry (optional) ---
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(ctx, func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, knowledge search uses SQL", zap.Error(err))
		} else {
			backends.Elasticsearch = esClient.Client
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	st := store.New(cfg.Database, backends, log)

	var publisher ci.EventPublisher
	if cfg.Notifications.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		publisher = sns
	}

	registrations := []registration{
		{skb.TaskType, func() (camunda.JobHandler, error) {
			return skb.NewHandler(skb.HandlerOptions{AppConfig: cfg, Searcher: st.Knowledge, Logger: log})
		}},
		{si.TaskType, func() (camunda.JobHandler, error) {
			return si.NewHandler(si.HandlerOptions{AppConfig: cfg, Incidents: st.Incidents, Logger: log})
		}},
		{ci.TaskType, func() (camunda.JobHandler, error) {
			return ci.NewHandler(ci.HandlerOptions{AppConfig: cfg, Incidents: st.Incidents, Publisher: publisher, Logger: log})
		}},
		{es.TaskType, func() (camunda.JobHandler, error) {
			return es.NewHandler(es.HandlerOptions{AppConfig: cfg, Logger: log})
		}},
		{llm.TaskType, func() (camunda.JobHandler, error) {
			return llm.NewHandler(llm.HandlerOptions{AppConfig: cfg, Logger: log})
		}},
	}

	var workers []*camunda.CamundaWorker
	for _, r := range registrations {
		wcfg := config.GetWorkerConfig(cfg, r.taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", r.taskType))
			continue
		}
		handler, err := r.build()
		if err != nil {
			zapLog.Fatal("failed to create handler", zap.String("taskType", r.taskType), zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(
			zeebe.GetClient(),
			r.taskType,
			wcfg.MaxJobsActive,
			config.GetDuration(wcfg.Timeout),
			handler,
			obs,
			log,
		))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	var healthSrv *http.Server
	if cfg.Metrics.Enabled {
		healthSrv = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           healthRouter(zeebe, db),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if healthSrv != nil {
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Error stopping health server", zap.Error(err))
		}
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func healthRouter(zeebe *camunda.Client, db *database.SQLClient) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		checks := map[string]string{"zeebe": "ok", "database": "ok"}
		code := http.StatusOK
		if err := zeebe.HealthCheck(req.Context()); err != nil {
			checks["zeebe"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := db.Ping(req.Context()); err != nil {
			checks["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		status := "ready"
		if code != http.StatusOK {
			status = "unavailable"
		}
		writeJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
