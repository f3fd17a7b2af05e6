package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/muchq/moonbase/go/api"
	"github.com/muchq/moonbase/go/datasets"
	"github.com/muchq/moonbase/go/metrics"
	"github.com/muchq/moonbase/go/mucks"
	"github.com/muchq/moonbase/go/resilience4g/rate_limit"
	"github.com/muchq/moonbase/go/training"
)

func main() {
	config := ReadConfig()

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))

	registry := datasets.NewRegistry()
	m := metrics.NewMetrics()

	manager := training.NewManager(config.WorkerPoolSize, config.SessionRetention, registry.Providers(), m)
	models := training.NewModelRegistry()

	if config.DatabaseURL != "" {
		store, err := training.NewPostgresStore(config.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to DATABASE_URL: %v", err)
		}
		defer store.Close()
		if err := store.MarkIncompleteAsFailed(); err != nil {
			slog.Warn("failed to reconcile incomplete sessions from a prior run", "error", err)
		}
		manager.SetStore(store)
		models.SetStore(store)
		slog.Info("persisting sessions to postgres")
	}

	trainingApi := api.NewApi(manager, models, registry)

	router := mucks.NewMucks()
	router.Add(mucks.NewCorsMiddleware(config.AllowedOrigins))

	trainLimiter := rate_limit.NewRateLimiterMiddleware(
		rate_limit.TokenBucketRateLimiterFactory{}, rate_limit.RemoteIpKeyExtractor{}, TrainRateLimiterConfig)
	predictLimiter := rate_limit.NewRateLimiterMiddleware(
		rate_limit.TokenBucketRateLimiterFactory{}, rate_limit.RemoteIpKeyExtractor{}, PredictRateLimiterConfig)

	trainingApi.RegisterRoutes(router, trainLimiter, predictLimiter)
	router.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.Handler().ServeHTTP(w, r)
	})

	slog.Info("training orchestrator listening",
		"port", config.Port,
		"workerPoolSize", config.WorkerPoolSize,
		"sessionRetention", config.SessionRetention)

	log.Fatal(http.ListenAndServe(":"+config.Port, router))
}
