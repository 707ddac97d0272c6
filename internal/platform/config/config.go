// Package config loads service configuration from the environment, in the
// env-with-default style graphiti-search-rs/src/config.rs used.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every environment-variable knob enumerated in spec.md §6.4
// plus the domain-stack additions in SPEC_FULL.md §6.4.
type Config struct {
	GraphHost string
	GraphPort int
	GraphName string

	BindAddr string

	NodeLimit           int
	EdgeLimit           int
	MinDegreeCentrality float64

	CacheEnabled   bool
	CacheTTLSecs   int
	CacheStrategy  string // aggressive|moderate|disabled
	ForceFreshData bool
	KVURL          string

	CentralityServiceURL string

	EmbeddingBaseURL string
	EmbeddingModel   string

	MaxConnections     int
	ParallelThreshold  int

	VectorBackend     string // falkor|qdrant
	QdrantURL         string
	QdrantCollection  string

	ViewstoreClickHouseDSN string

	LogLevel string

	OTLPEndpoint string
}

// FromEnv loads Config from the environment, applying the defaults named in
// the spec. bindAddrDefault lets each cmd/* pick its own default port;
// maxConnDefault lets high-throughput variants (e.g. centrality, default
// 200) differ from the search service's default of 32.
func FromEnv(bindAddrDefault string, maxConnDefault int) (Config, error) {
	cfg := Config{
		GraphHost: getEnv("GRAPH_HOST", "localhost"),
		GraphName: getEnv("GRAPH_NAME", "graphiti_migration"),
		BindAddr:  getEnv("BIND_ADDR", bindAddrDefault),

		CacheStrategy: getEnv("CACHE_STRATEGY", "moderate"),
		KVURL:         getEnv("KV_URL", "redis://localhost:6379"),

		CentralityServiceURL: getEnv("CENTRALITY_SERVICE_URL", ""),

		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "nomic-embed-text-1024"),

		VectorBackend:    getEnv("VECTOR_BACKEND", "falkor"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6334"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "graphiti"),

		ViewstoreClickHouseDSN: getEnv("VIEWSTORE_CLICKHOUSE_DSN", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	var err error
	if cfg.GraphPort, err = getEnvInt("GRAPH_PORT", 6379); err != nil {
		return Config{}, err
	}
	if cfg.NodeLimit, err = getEnvInt("NODE_LIMIT", 1500); err != nil {
		return Config{}, err
	}
	if cfg.EdgeLimit, err = getEnvInt("EDGE_LIMIT", 5000); err != nil {
		return Config{}, err
	}
	if cfg.MinDegreeCentrality, err = getEnvFloat("MIN_DEGREE_CENTRALITY", 0.001); err != nil {
		return Config{}, err
	}
	if cfg.CacheEnabled, err = getEnvBool("CACHE_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTLSecs, err = getEnvInt("CACHE_TTL_SECONDS", 300); err != nil {
		return Config{}, err
	}
	if cfg.ForceFreshData, err = getEnvBool("FORCE_FRESH_DATA", false); err != nil {
		return Config{}, err
	}
	if cfg.MaxConnections, err = getEnvInt("MAX_CONNECTIONS", maxConnDefault); err != nil {
		return Config{}, err
	}
	if cfg.ParallelThreshold, err = getEnvInt("PARALLEL_THRESHOLD", 100); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
