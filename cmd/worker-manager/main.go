// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"matching-workers/internal/common/camunda"
	"matching-workers/internal/common/config"
	"matching-workers/internal/common/database"
	"matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/observability"
	"matching-workers/internal/matching"
	"matching-workers/internal/matching/score"
	"matching-workers/internal/models"
	"matching-workers/internal/store"
	"matching-workers/pkg/catalog"

	dm "matching-workers/internal/workers/matching/discard-matches"
	rmc "matching-workers/internal/workers/matching/run-matching-cycle"
	vp "matching-workers/internal/workers/matching/validate-population"
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

	zapLog.Info("Starting matching worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("matching-worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load and validate the question catalog ---
	cat, err := catalog.Load(cfg.Matching.CatalogPath)
	if err != nil {
		zapLog.Fatal("question catalog failed to load",
			zap.Error(errors.NewCatalogValidationFailedError(err.Error())))
	}
	zapLog.Info("Question catalog loaded",
		zap.String("path", cfg.Matching.CatalogPath),
		zap.String("version", cat.Version),
		zap.Int("questions", len(cat.Questions)),
	)

	engine := matching.NewEngine(cat, buildEngineConfig(cfg.Matching))

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	registry := camunda.NewWorkerRegistry(zapLog)
	zapLog.Info("Zeebe client connected successfully")

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
		zapLog.Fatal("postgres failed after retries",
			zap.Error(errors.NewDatabaseConnectionFailedError(err)))
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

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	archive := store.NewArchive(esClient.Client, cfg.Matching.ArchiveIndex)

	// --- Register Matching Workers ---

	if config.IsWorkerEnabled(cfg, rmc.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, rmc.TaskType)
		handler := rmc.NewHandler(
			&rmc.Config{
				Timeout:        config.GetDuration(wcfg.Timeout),
				RunLockTTL:     config.GetDuration(cfg.Matching.RunLockTTL),
				DiagnosticsTTL: config.GetDuration(cfg.Matching.DiagnosticsTTL),
				ArchiveIndex:   cfg.Matching.ArchiveIndex,
			},
			engine, pg.DB, redis.Client, archive, obs, log,
		)
		startWorker(zeebeClient, registry, rmc.TaskType, wcfg, handler.Handle, zapLog)
	}

	if config.IsWorkerEnabled(cfg, vp.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, vp.TaskType)
		handler := vp.NewHandler(
			&vp.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			cat, pg.DB, log,
		)
		startWorker(zeebeClient, registry, vp.TaskType, wcfg, handler.Handle, zapLog)
	}

	if config.IsWorkerEnabled(cfg, dm.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, dm.TaskType)
		handler := dm.NewHandler(
			&dm.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			pg.DB, log,
		)
		startWorker(zeebeClient, registry, dm.TaskType, wcfg, handler.Handle, zapLog)
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	// Drain in-flight jobs before the gRPC connection goes away.
	registry.CloseAll()

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Matching worker manager stopped gracefully")
}

// buildEngineConfig maps the file configuration onto the engine's typed
// knobs. Unspecified weights keep the engine defaults so a minimal config
// file still produces a fully configured engine.
func buildEngineConfig(mc config.MatchingConfig) matching.Config {
	engineCfg := matching.DefaultConfig()

	engineCfg.AgeQuestionID = mc.AgeQuestionID
	engineCfg.Combiner = score.Combiner(mc.Combiner)
	engineCfg.AbsoluteFloor = mc.AbsoluteFloor
	engineCfg.RelativeStdDevFactor = mc.RelativeStdDevFactor
	engineCfg.VerifyMatching = !mc.DisableVerification
	if mc.MaxScoringWorkers > 0 {
		engineCfg.MaxScoringWorkers = mc.MaxScoringWorkers
	}

	if len(mc.ImportanceWeights) > 0 {
		weights := make(score.Weights, len(mc.ImportanceWeights))
		for bucket, weight := range mc.ImportanceWeights {
			weights[models.Importance(bucket)] = weight
		}
		engineCfg.ImportanceWeights = weights
	}

	if len(mc.SectionWeights) > 0 {
		sections := make(map[catalog.Section]float64, len(mc.SectionWeights))
		for section, weight := range mc.SectionWeights {
			sections[catalog.Section(section)] = weight
		}
		engineCfg.SectionWeights = sections
	}

	return engineCfg
}

func startWorker(client zbc.Client, registry *camunda.WorkerRegistry, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()
	registry.Add(taskType, w)

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
