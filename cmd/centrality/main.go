// Command centrality runs the Centrality Service's HTTP surface
// (spec.md §4.7/§9): periodic recompute-on-request of PageRank, degree,
// betweenness, and eigenvector centrality over the full graph, plus the
// feedback-driven relevance blend.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/oculairmedia/graphiti/internal/centrality"
	"github.com/oculairmedia/graphiti/internal/graphstore"
	"github.com/oculairmedia/graphiti/internal/httpapi"
	"github.com/oculairmedia/graphiti/internal/platform/config"
	"github.com/oculairmedia/graphiti/internal/platform/log"
	"github.com/oculairmedia/graphiti/internal/platform/telemetry"
)

const (
	bindAddrDefault = ":8002"
	maxConnDefault  = 200
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.FromEnv(bindAddrDefault, maxConnDefault)
	if err != nil {
		panic(err)
	}
	logger := log.New(cfg.LogLevel, "centrality")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTLPEndpoint != "",
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "centrality",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("centrality: telemetry setup failed, continuing without it")
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	pool := graphstore.NewPool(cfg.GraphHost+":"+strconv.Itoa(cfg.GraphPort), "", 0, cfg.MaxConnections)
	defer pool.Close()
	adapter := graphstore.NewClient(pool, cfg.GraphName, logger)

	engine := centrality.NewEngine(adapter, logger)
	feedback := centrality.NewFeedbackProcessor(adapter, engine.Recompute, logger)
	server := httpapi.NewCentralityServer(engine, feedback)

	srv := &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      otelhttp.NewHandler(server, "centrality"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Warm the cache with an initial computation so /centrality/node/{id}
	// has something to report before the first POST triggers a recompute.
	warmCtx, warmCancel := context.WithTimeout(ctx, 60*time.Second)
	if err := engine.Recompute(warmCtx); err != nil {
		logger.Warn().Err(err).Msg("centrality: initial warm-up recompute failed")
	}
	warmCancel()

	logger.Info().Str("addr", cfg.BindAddr).Msg("centrality listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("centrality server failed")
	}
}
