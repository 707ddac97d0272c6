package viewstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

// ClickHouseMirror writes the deltas produced by Loader.Reload through to an
// external ClickHouse table; deltas from drain ticks are not mirrored. It is
// an optional escape hatch for operators who want query
// access to historical view snapshots outside this process. It never backs
// the authoritative in-process view: reload on restart still starts from
// LoadInitial against the Graph Adapter.
type ClickHouseMirror struct {
	conn    clickhouse.Conn
	table   string
	timeout time.Duration
	log     log.Logger
}

// NewClickHouseMirror opens a connection from a DSN; an empty DSN disables
// the mirror (returns nil, nil) so callers can wire it unconditionally.
func NewClickHouseMirror(ctx context.Context, dsn, table string, logger log.Logger) (*ClickHouseMirror, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, nil
	}
	if table == "" {
		table = "graph_view_deltas"
	}

	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("viewstore: parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("viewstore: open clickhouse connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("viewstore: clickhouse ping: %w", err)
	}

	if err := conn.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	sequence UInt64,
	operation String,
	timestamp_ms Int64,
	nodes_added UInt32,
	nodes_updated UInt32,
	nodes_removed UInt32,
	edges_added UInt32,
	edges_updated UInt32,
	edges_removed UInt32
) ENGINE = MergeTree ORDER BY (sequence)`, table)); err != nil {
		return nil, fmt.Errorf("viewstore: ensure clickhouse table: %w", err)
	}

	return &ClickHouseMirror{conn: conn, table: table, timeout: 5 * time.Second, log: logger}, nil
}

// Mirror appends one committed delta as a row. Failures are logged, not
// propagated: the mirror is best-effort and must never block the hot path.
func (m *ClickHouseMirror) Mirror(ctx context.Context, delta graphmodel.Delta) {
	if m == nil || m.conn == nil {
		return
	}
	execCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.conn.Exec(execCtx, fmt.Sprintf(`INSERT INTO %s
		(sequence, operation, timestamp_ms, nodes_added, nodes_updated, nodes_removed, edges_added, edges_updated, edges_removed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, m.table),
		delta.Sequence, string(delta.Operation), delta.TimestampMillis,
		uint32(len(delta.NodesAdded)), uint32(len(delta.NodesUpdated)), uint32(len(delta.NodesRemovedIDs)),
		uint32(len(delta.EdgesAdded)), uint32(len(delta.EdgesUpdated)), uint32(len(delta.EdgesRemovedPairs)))
	if err != nil {
		m.log.Warn().Err(err).Msg("viewstore: clickhouse mirror write failed")
	}
}

func (m *ClickHouseMirror) Close() error {
	if m == nil || m.conn == nil {
		return nil
	}
	return m.conn.Close()
}
