package graphstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/platform/apperr"
)

// QdrantAdapter decorates an Adapter, routing SimilaritySearchNodes through
// an external Qdrant collection instead of the graph store's inline
// vecf32() arithmetic, selected by VECTOR_BACKEND=qdrant (SPEC_FULL.md
// §4.1/§6.4). Grounded on intelligencedev-manifold/internal/persistence/
// databases/qdrant_vector.go's client setup and point-ID scheme; every
// other Adapter method (including edge similarity, which stays on the
// graph store's fact_embedding path — this module does not mirror edge
// vectors into Qdrant) is delegated unchanged to the wrapped adapter.
type QdrantAdapter struct {
	Adapter
	client     *qdrant.Client
	collection string
}

// NewQdrantAdapter dials dsn, a URL of the form scheme://host[:port] (host
// defaults to localhost, port to 6334, the Go client's gRPC port; an https
// scheme enables TLS and an api_key query parameter sets the API key), and
// wraps inner with a Qdrant-backed node similarity search over collection.
func NewQdrantAdapter(inner Adapter, dsn, collection string) (*QdrantAdapter, error) {
	if collection == "" {
		return nil, apperr.New(apperr.InvalidRequest, "qdrant: collection name is required")
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidRequest, "qdrant: parse dsn", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidRequest, "qdrant: invalid port in dsn", err)
	}

	cfg := &qdrant.Config{Host: host, Port: portNum}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExternalUnavailable, "qdrant: create client", err)
	}
	return &QdrantAdapter{Adapter: inner, client: client, collection: collection}, nil
}

// UpsertNodeVector indexes a node's embedding under its deterministic
// point ID. No code path in this module calls it.
func (q *QdrantAdapter) UpsertNodeVector(ctx context.Context, nodeID string, embedding []float32) error {
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	point := &qdrant.PointStruct{
		Id:      nodePointID(nodeID),
		Vectors: qdrant.NewVectorsDense(vec),
		Payload: qdrant.NewValueMap(map[string]any{payloadOriginalID: nodeID}),
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: q.collection, Points: []*qdrant.PointStruct{point}})
	if err != nil {
		return apperr.Wrap(apperr.ExternalUnavailable, "qdrant: upsert node vector", err)
	}
	return nil
}

// payloadOriginalID mirrors the teacher's point-ID scheme: Qdrant only
// accepts UUID/integer IDs, so the graph's own node ID is carried in the
// payload and recovered after search.
const payloadOriginalID = "_original_id"

func nodePointID(nodeID string) *qdrant.PointId {
	if _, err := uuid.Parse(nodeID); err == nil {
		return qdrant.NewIDUUID(nodeID)
	}
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(nodeID)).String())
}

// SimilaritySearchNodes queries Qdrant for the nearest vectors, recovers
// each hit's original graph node ID from its payload, and joins back to
// full node bodies via the wrapped adapter's LoadNodesByIDs.
func (q *QdrantAdapter) SimilaritySearchNodes(ctx context.Context, embedding []float32, minScore float32, groupIDs []string, limit int) ([]graphmodel.Node, []float64, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	lim := uint64(limit)

	var filter *qdrant.Filter
	if len(groupIDs) > 0 {
		must := make([]*qdrant.Condition, 0, len(groupIDs))
		for _, g := range groupIDs {
			must = append(must, qdrant.NewMatch("group_id", g))
		}
		filter = &qdrant.Filter{Should: must}
	}

	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &lim,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.ExternalUnavailable, "qdrant: query", err)
	}

	ids := make([]string, 0, len(hits))
	scoreByID := make(map[string]float64, len(hits))
	for _, hit := range hits {
		if float32(hit.Score) < minScore {
			continue
		}
		id := originalIDFromPayload(hit)
		ids = append(ids, id)
		scoreByID[id] = float64(hit.Score)
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	nodes, err := q.Adapter.LoadNodesByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	scores := make([]float64, len(nodes))
	for i, n := range nodes {
		scores[i] = scoreByID[n.ID]
	}
	return nodes, scores, nil
}

func originalIDFromPayload(hit *qdrant.ScoredPoint) string {
	if hit.Payload != nil {
		if v, ok := hit.Payload[payloadOriginalID]; ok {
			if s := v.GetStringValue(); s != "" {
				return s
			}
		}
	}
	if hit.Id == nil {
		return ""
	}
	if u := hit.Id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%v", hit.Id)
}

func (q *QdrantAdapter) Close() error {
	return q.client.Close()
}
