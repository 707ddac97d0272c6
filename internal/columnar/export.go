// Package columnar is the Columnar Exporter (spec.md §4.10): renders the
// Materialized Graph View's node/edge tables as Arrow IPC stream batches,
// grounded on original_source/graph-visualizer-rust/src/arrow_converter.rs's
// RecordBatch-to-IPC-bytes conversion, adapted from arrow-rs to
// apache/arrow-go/v18.
package columnar

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/oculairmedia/graphiti/internal/viewstore"
)

// nodeSchema matches SPEC_FULL.md §6.1's bit-level node column list
// exactly, name-for-name and in order.
var nodeSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String},
	{Name: "idx", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "label", Type: arrow.BinaryTypes.String},
	{Name: "node_type", Type: arrow.BinaryTypes.String},
	{Name: "summary", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "degree_centrality", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "pagerank_centrality", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "betweenness_centrality", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "eigenvector_centrality", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "x", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "y", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "color", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "size", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "created_at", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "created_at_timestamp", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "cluster", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "clusterStrength", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// edgeSchema matches SPEC_FULL.md §6.1's bit-level edge column list.
var edgeSchema = arrow.NewSchema([]arrow.Field{
	{Name: "source", Type: arrow.BinaryTypes.String},
	{Name: "sourceidx", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "target", Type: arrow.BinaryTypes.String},
	{Name: "targetidx", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "edge_type", Type: arrow.BinaryTypes.String},
	{Name: "weight", Type: arrow.PrimitiveTypes.Float64},
	{Name: "color", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "strength", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// Exporter renders viewstore rows into Arrow IPC stream bytes.
type Exporter struct {
	pool memory.Allocator
}

func NewExporter() *Exporter {
	return &Exporter{pool: memory.NewGoAllocator()}
}

// NodesToIPC serializes a node-row slice into an Arrow IPC stream.
func (e *Exporter) NodesToIPC(rows []viewstore.NodeRow) ([]byte, error) {
	b := array.NewRecordBuilder(e.pool, nodeSchema)
	defer b.Release()

	for _, r := range rows {
		b.Field(0).(*array.StringBuilder).Append(r.ID)
		b.Field(1).(*array.Uint32Builder).Append(r.Idx)
		b.Field(2).(*array.StringBuilder).Append(r.Label)
		b.Field(3).(*array.StringBuilder).Append(r.NodeType)
		b.Field(4).(*array.StringBuilder).Append(r.Summary)
		b.Field(5).(*array.Float64Builder).Append(r.DegreeCentrality)
		b.Field(6).(*array.Float64Builder).Append(r.PageRankCentrality)
		b.Field(7).(*array.Float64Builder).Append(r.BetweennessCentrality)
		b.Field(8).(*array.Float64Builder).Append(r.EigenvectorCentrality)
		appendNullableFloat64(b.Field(9).(*array.Float64Builder), r.X)
		appendNullableFloat64(b.Field(10).(*array.Float64Builder), r.Y)
		b.Field(11).(*array.StringBuilder).Append(r.Color)
		b.Field(12).(*array.Float64Builder).Append(r.Size)
		b.Field(13).(*array.StringBuilder).Append(r.CreatedAt)
		b.Field(14).(*array.Float64Builder).Append(r.CreatedAtTimestamp)
		b.Field(15).(*array.StringBuilder).Append(r.Cluster)
		b.Field(16).(*array.Float64Builder).Append(r.ClusterStrength)
	}

	rec := b.NewRecord()
	defer rec.Release()
	return recordToIPC(rec, nodeSchema)
}

// EdgesToIPC serializes an edge-row slice into an Arrow IPC stream.
func (e *Exporter) EdgesToIPC(rows []viewstore.EdgeRow) ([]byte, error) {
	b := array.NewRecordBuilder(e.pool, edgeSchema)
	defer b.Release()

	for _, r := range rows {
		b.Field(0).(*array.StringBuilder).Append(r.Source)
		b.Field(1).(*array.Uint32Builder).Append(r.SourceIdx)
		b.Field(2).(*array.StringBuilder).Append(r.Target)
		b.Field(3).(*array.Uint32Builder).Append(r.TargetIdx)
		b.Field(4).(*array.StringBuilder).Append(r.EdgeType)
		b.Field(5).(*array.Float64Builder).Append(r.Weight)
		b.Field(6).(*array.StringBuilder).Append(r.Color)
		b.Field(7).(*array.Float64Builder).Append(r.Strength)
	}

	rec := b.NewRecord()
	defer rec.Release()
	return recordToIPC(rec, edgeSchema)
}

// appendNullableFloat64 appends v's value, or a null entry when v is nil —
// used for the layout columns (x/y), which this module never populates.
func appendNullableFloat64(b *array.Float64Builder, v *float64) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

func recordToIPC(rec arrow.Record, schema *arrow.Schema) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := w.Write(rec); err != nil {
		return nil, fmt.Errorf("columnar: write record batch: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("columnar: close ipc writer: %w", err)
	}
	return buf.Bytes(), nil
}

// ETag computes a weak validator from IPC bytes, per spec.md §4.10:
// W/"<base64url(first 8 bytes of sha256)>".
func ETag(ipcBytes []byte) string {
	sum := sha256.Sum256(ipcBytes)
	return fmt.Sprintf(`W/"%s"`, base64.RawURLEncoding.EncodeToString(sum[:8]))
}
