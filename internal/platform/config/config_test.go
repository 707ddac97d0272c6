package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvAppliesDefaultsWhenUnset(t *testing.T) {
	cfg, err := FromEnv(":9000", 42)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.GraphHost)
	assert.Equal(t, ":9000", cfg.BindAddr)
	assert.Equal(t, 42, cfg.MaxConnections)
	assert.Equal(t, 6379, cfg.GraphPort)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, "falkor", cfg.VectorBackend)
	assert.Equal(t, "", cfg.OTLPEndpoint)
}

func TestFromEnvHonorsOverrides(t *testing.T) {
	t.Setenv("GRAPH_HOST", "graph.internal")
	t.Setenv("GRAPH_PORT", "6380")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MIN_DEGREE_CENTRALITY", "0.05")
	t.Setenv("VECTOR_BACKEND", "qdrant")

	cfg, err := FromEnv(":8000", 32)
	require.NoError(t, err)
	assert.Equal(t, "graph.internal", cfg.GraphHost)
	assert.Equal(t, 6380, cfg.GraphPort)
	assert.False(t, cfg.CacheEnabled)
	assert.InDelta(t, 0.05, cfg.MinDegreeCentrality, 1e-9)
	assert.Equal(t, "qdrant", cfg.VectorBackend)
}

func TestFromEnvRejectsUnparsableInt(t *testing.T) {
	t.Setenv("NODE_LIMIT", "not-a-number")
	_, err := FromEnv(":8000", 32)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NODE_LIMIT")
}

func TestFromEnvRejectsUnparsableBool(t *testing.T) {
	t.Setenv("FORCE_FRESH_DATA", "maybe")
	_, err := FromEnv(":8000", 32)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORCE_FRESH_DATA")
}
