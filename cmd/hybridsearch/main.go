// Command hybridsearch runs the Search Orchestrator's HTTP surface
// (spec.md §4.6/§9), wiring the Graph Adapter, embedding client and cache
// together the way cmd/orchestrator/main.go wires its own collaborators.
// No centrality lookup is wired, so the centrality-boosted reranker sees an
// importance of 0 for every node.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/oculairmedia/graphiti/internal/cache"
	"github.com/oculairmedia/graphiti/internal/embedclient"
	"github.com/oculairmedia/graphiti/internal/graphstore"
	"github.com/oculairmedia/graphiti/internal/httpapi"
	"github.com/oculairmedia/graphiti/internal/orchestrator"
	"github.com/oculairmedia/graphiti/internal/platform/config"
	"github.com/oculairmedia/graphiti/internal/platform/log"
	"github.com/oculairmedia/graphiti/internal/platform/telemetry"
)

const (
	bindAddrDefault = ":8000"
	maxConnDefault  = 32
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.FromEnv(bindAddrDefault, maxConnDefault)
	if err != nil {
		panic(err)
	}
	logger := log.New(cfg.LogLevel, "hybridsearch")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTLPEndpoint != "",
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "hybridsearch",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("hybridsearch: telemetry setup failed, continuing without it")
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	pool := graphstore.NewPool(graphAddr(cfg), "", 0, cfg.MaxConnections)
	defer pool.Close()
	var adapter graphstore.Adapter = graphstore.NewClient(pool, cfg.GraphName, logger)
	if cfg.VectorBackend == "qdrant" {
		qa, err := graphstore.NewQdrantAdapter(adapter, cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			logger.Warn().Err(err).Msg("hybridsearch: qdrant backend unavailable, falling back to graph-store similarity")
		} else {
			adapter = qa
			defer qa.Close()
		}
	}

	var embedder orchestrator.Embedder
	if cfg.EmbeddingBaseURL != "" {
		embedder = embedclient.New(cfg.EmbeddingBaseURL, cfg.EmbeddingModel)
	}

	opts := []orchestrator.Option{}
	if cfg.CacheEnabled {
		redisClient := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{trimScheme(cfg.KVURL)}})
		defer redisClient.Close()
		store := cache.NewStore(redisClient, 100_000, 0.01, logger)
		opts = append(opts, orchestrator.WithCache(store))
	}

	orch := orchestrator.New(adapter, embedder, logger, opts...)
	server := httpapi.NewSearchServer(orch)

	srv := &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      otelhttp.NewHandler(server, "hybridsearch"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.BindAddr).Msg("hybridsearch listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("hybridsearch server failed")
	}
}

func graphAddr(cfg config.Config) string {
	return cfg.GraphHost + ":" + strconv.Itoa(cfg.GraphPort)
}

// trimScheme strips a redis:// prefix, since redis.UniversalOptions.Addrs
// wants host:port, not a URL.
func trimScheme(url string) string {
	const scheme = "redis://"
	if len(url) > len(scheme) && url[:len(scheme)] == scheme {
		return url[len(scheme):]
	}
	return url
}
