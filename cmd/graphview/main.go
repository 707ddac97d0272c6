// Command graphview runs the Materialized Graph View service
// (spec.md §4.8-4.9/§9): initial full load, a periodic drain of queued
// mutations into delta-tracked snapshots, WebSocket broadcast of deltas,
// background reconciliation against the Graph Adapter, and the columnar
// export/webhook/update HTTP surface.
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

	"github.com/oculairmedia/graphiti/internal/broadcaster"
	"github.com/oculairmedia/graphiti/internal/columnar"
	"github.com/oculairmedia/graphiti/internal/deltatracker"
	"github.com/oculairmedia/graphiti/internal/graphstore"
	"github.com/oculairmedia/graphiti/internal/httpapi"
	"github.com/oculairmedia/graphiti/internal/platform/config"
	"github.com/oculairmedia/graphiti/internal/platform/log"
	"github.com/oculairmedia/graphiti/internal/platform/telemetry"
	"github.com/oculairmedia/graphiti/internal/reconciler"
	"github.com/oculairmedia/graphiti/internal/viewstore"
)

const (
	bindAddrDefault  = ":8001"
	maxConnDefault   = 32
	drainInterval    = 100 * time.Millisecond
	initialLoadLimit = 200_000
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.FromEnv(bindAddrDefault, maxConnDefault)
	if err != nil {
		panic(err)
	}
	logger := log.New(cfg.LogLevel, "graphview")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTLPEndpoint != "",
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "graphview",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("graphview: telemetry setup failed, continuing without it")
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	pool := graphstore.NewPool(cfg.GraphHost+":"+strconv.Itoa(cfg.GraphPort), "", 0, cfg.MaxConnections)
	defer pool.Close()
	adapter := graphstore.NewClient(pool, cfg.GraphName, logger)

	store := viewstore.New()
	tracker := deltatracker.New()

	mirror, err := viewstore.NewClickHouseMirror(ctx, cfg.ViewstoreClickHouseDSN, "graph_view_deltas", logger)
	if err != nil {
		logger.Warn().Err(err).Msg("graphview: clickhouse mirror disabled")
		mirror = nil
	}
	if mirror != nil {
		defer mirror.Close()
	}

	loader := viewstore.NewLoader(adapter, store, tracker, mirror)
	exporter := columnar.NewExporter()
	bcast := broadcaster.New(logger)

	if _, err := loader.Reload(ctx); err != nil {
		logger.Fatal().Err(err).Msg("graphview: initial full load failed")
	}

	recon := reconciler.New(adapter, store, loader, logger,
		reconciler.WithCache(noopCache{}),
		reconciler.WithBroadcaster(bcast),
	)
	go recon.Run(ctx)

	go drainLoop(ctx, store, tracker, bcast, logger)

	server := httpapi.NewGraphViewServer(adapter, store, loader, tracker, exporter, bcast)

	srv := &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      otelhttp.NewHandler(server, "graphview"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.BindAddr).Msg("graphview listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("graphview server failed")
	}
}

// drainLoop periodically flushes the view store's pending mutation queue
// and broadcasts the resulting delta, per spec.md §4.9's "updates apply in
// small batches on a fixed tick, not inline with the request" note. Every
// delta is routed through the same tracker the reload path uses, so
// sequence numbers stay monotonic (spec.md §3/§8) across both paths and
// ChangesSince can serve reconnecting clients the drain-tick history too.
func drainLoop(ctx context.Context, store *viewstore.Store, tracker *deltatracker.Tracker, bcast *broadcaster.Broadcaster, logger log.Logger) {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			delta, changed := store.Drain()
			if !changed {
				continue
			}
			bcast.BroadcastDelta(tracker.RecordDelta(delta))
		}
	}
}

// noopCache satisfies reconciler.CacheInvalidator when no downstream
// search cache is configured for this process.
type noopCache struct{}

func (noopCache) ClearAll(ctx context.Context, keyPrefix string) error { return nil }
