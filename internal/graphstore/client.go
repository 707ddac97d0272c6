package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/platform/apperr"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

// Adapter is the Graph Adapter (SPEC_FULL.md §4.1): the only component that
// speaks to the external graph store. Every other service depends on this
// interface, never on *Pool or go-redis directly, mirroring the teacher's
// databases.GraphDB seam (internal/persistence/databases/interfaces.go).
type Adapter interface {
	FulltextSearchNodes(ctx context.Context, sanitizedQuery string, groupIDs []string, limit int) ([]graphmodel.Node, error)
	FulltextSearchEdges(ctx context.Context, sanitizedQuery string, groupIDs []string, limit int) ([]graphmodel.Edge, error)
	FulltextSearchEpisodes(ctx context.Context, sanitizedQuery string, groupIDs []string, limit int) ([]graphmodel.Episode, error)
	FulltextSearchCommunities(ctx context.Context, sanitizedQuery string, groupIDs []string, limit int) ([]graphmodel.Community, error)
	SimilaritySearchNodes(ctx context.Context, embedding []float32, minScore float32, groupIDs []string, limit int) ([]graphmodel.Node, []float64, error)
	SimilaritySearchEdges(ctx context.Context, embedding []float32, minScore float32, groupIDs []string, limit int) ([]graphmodel.Edge, []float64, error)
	BFSSearchNodes(ctx context.Context, originUUIDs []string, maxDepth, limit int) ([]graphmodel.Node, error)
	LoadNodesByIDs(ctx context.Context, ids []string) ([]graphmodel.Node, error)
	LoadEdgesByPairs(ctx context.Context, pairs []struct{ Source, Target string }) ([]graphmodel.Edge, error)
	CountNodes(ctx context.Context, groupIDs []string) (int64, error)
	CountEdges(ctx context.Context, groupIDs []string) (int64, error)
	WriteNodeProperty(ctx context.Context, nodeID, property string, value float64) error
	WriteNodeSummary(ctx context.Context, nodeID, summary string) error
	WriteFeedback(ctx context.Context, nodeID string, blendedScore float64, source string, at time.Time) error
	LoadFullGraph(ctx context.Context, limit int) ([]graphmodel.Node, []graphmodel.Edge, error)
	// NativePageRank and NativeBetweenness attempt delegation to the store's
	// built-in graph algorithm procedures (spec.md §4.7). Callers must treat
	// any error, including "procedure not found", as "native unavailable"
	// and fall back to the pure-Go iterative/sampled implementation.
	NativePageRank(ctx context.Context, groupIDs []string, iterations int, damping float64) (map[string]float64, error)
	NativeBetweenness(ctx context.Context, groupIDs []string) (map[string]float64, error)
}

// Client is the go-redis-backed Adapter implementation.
type Client struct {
	pool      *Pool
	graphName string
	log       log.Logger
}

func NewClient(pool *Pool, graphName string, logger log.Logger) *Client {
	return &Client{pool: pool, graphName: graphName, log: logger}
}

// ExecuteCypher issues a raw GRAPH.QUERY and returns the parsed [header,
// rows] shape. All typed helpers below funnel through this.
func (c *Client) ExecuteCypher(ctx context.Context, cypher string) (queryReply, error) {
	conn, release, err := c.pool.Borrow(ctx)
	if err != nil {
		return queryReply{}, apperr.Wrap(apperr.ExternalUnavailable, "graphstore: borrow connection", err)
	}
	defer release()

	res, err := conn.Do(ctx, "GRAPH.QUERY", c.graphName, cypher).Result()
	if err != nil {
		return queryReply{}, apperr.Wrap(apperr.StoreUnavailable, "graphstore: GRAPH.QUERY", err)
	}
	reply, err := parseQueryReply(res)
	if err != nil {
		return queryReply{}, err
	}
	return reply, nil
}

func (c *Client) FulltextSearchNodes(ctx context.Context, sanitizedQuery string, groupIDs []string, limit int) ([]graphmodel.Node, error) {
	reply, err := c.ExecuteCypher(ctx, fulltextNodesQuery(sanitizedQuery, groupIDs, limit))
	if err != nil {
		return nil, err
	}
	idx := reply.columnIndex("n")
	if idx < 0 {
		idx = 0
	}
	nodes := make([]graphmodel.Node, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		n, err := decodeNodeValue(row[idx])
		if err != nil {
			c.log.Warn().Err(err).Msg("graphstore: skipping malformed node row")
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (c *Client) FulltextSearchEdges(ctx context.Context, sanitizedQuery string, groupIDs []string, limit int) ([]graphmodel.Edge, error) {
	reply, err := c.ExecuteCypher(ctx, fulltextEdgesQuery(sanitizedQuery, groupIDs, limit))
	if err != nil {
		return nil, err
	}
	return decodeEdgeRows(c, reply, "a", "r", "b")
}

func (c *Client) FulltextSearchEpisodes(ctx context.Context, sanitizedQuery string, groupIDs []string, limit int) ([]graphmodel.Episode, error) {
	reply, err := c.ExecuteCypher(ctx, fulltextEpisodesQuery(sanitizedQuery, groupIDs, limit))
	if err != nil {
		return nil, err
	}
	idx := reply.columnIndex("e")
	if idx < 0 {
		idx = 0
	}
	episodes := make([]graphmodel.Episode, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		n, err := decodeNodeValue(row[idx])
		if err != nil {
			continue
		}
		episodes = append(episodes, graphmodel.Episode{
			ID:        n.ID,
			Content:   n.Properties[propKeyContent].S,
			CreatedAt: n.CreatedAt,
			GroupID:   n.GroupID,
		})
	}
	return episodes, nil
}

func (c *Client) FulltextSearchCommunities(ctx context.Context, sanitizedQuery string, groupIDs []string, limit int) ([]graphmodel.Community, error) {
	reply, err := c.ExecuteCypher(ctx, fulltextCommunitiesQuery(sanitizedQuery, groupIDs, limit))
	if err != nil {
		return nil, err
	}
	idx := reply.columnIndex("c")
	if idx < 0 {
		idx = 0
	}
	communities := make([]graphmodel.Community, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		n, err := decodeNodeValue(row[idx])
		if err != nil {
			continue
		}
		var memberIDs []string
		if v, ok := n.Properties[propKeyMemberIDs]; ok && v.Kind == graphmodel.KindArray {
			for _, m := range v.Arr {
				memberIDs = append(memberIDs, m.S)
			}
		}
		communities = append(communities, graphmodel.Community{
			ID:        n.ID,
			Name:      n.Name,
			Summary:   n.Summary,
			MemberIDs: memberIDs,
			CreatedAt: n.CreatedAt,
		})
	}
	return communities, nil
}

const propKeyContent = "content"
const propKeyMemberIDs = "member_ids"

// SimilaritySearchNodes is single-phase: vector projections alongside a
// node body are accepted by the store for node queries.
func (c *Client) SimilaritySearchNodes(ctx context.Context, embedding []float32, minScore float32, groupIDs []string, limit int) ([]graphmodel.Node, []float64, error) {
	reply, err := c.ExecuteCypher(ctx, similarityNodesQuery(embedding, minScore, groupIDs, limit))
	if err != nil {
		return nil, nil, err
	}
	nIdx, sIdx := reply.columnIndex("n"), reply.columnIndex("score")
	nodes := make([]graphmodel.Node, 0, len(reply.Rows))
	scores := make([]float64, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		n, err := decodeNodeValue(row[nIdx])
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
		if f, ok := row[sIdx].(float64); ok {
			scores = append(scores, f)
		} else {
			scores = append(scores, 0)
		}
	}
	return nodes, scores, nil
}

// SimilaritySearchEdges implements the documented two-phase workaround
// (SPEC_FULL.md §4.1): score-only pass, then a body fetch for the winners,
// since the store rejects vector arithmetic alongside full edge projection.
func (c *Client) SimilaritySearchEdges(ctx context.Context, embedding []float32, minScore float32, groupIDs []string, limit int) ([]graphmodel.Edge, []float64, error) {
	scoreReply, err := c.ExecuteCypher(ctx, similarityEdgesScoreOnlyQuery(embedding, minScore, groupIDs, nil, limit))
	if err != nil {
		return nil, nil, err
	}
	if len(scoreReply.Rows) == 0 {
		return nil, nil, nil
	}

	uuidIdx, sIdx := 0, 1
	uuids := make([]string, 0, len(scoreReply.Rows))
	scoreByUUID := make(map[string]float64, len(scoreReply.Rows))
	for _, row := range scoreReply.Rows {
		uuid := fmt.Sprintf("%v", row[uuidIdx])
		uuids = append(uuids, uuid)
		if f, ok := row[sIdx].(float64); ok {
			scoreByUUID[uuid] = f
		}
	}

	fetchReply, err := c.ExecuteCypher(ctx, similarityEdgesFetchQuery(uuids))
	if err != nil {
		return nil, nil, err
	}
	edges, err := decodeEdgeRows(c, fetchReply, "a", "r", "b")
	if err != nil {
		return nil, nil, err
	}
	scores := make([]float64, len(edges))
	for i, e := range edges {
		scores[i] = scoreByUUID[e.ID]
	}
	return edges, scores, nil
}

func (c *Client) BFSSearchNodes(ctx context.Context, originUUIDs []string, maxDepth, limit int) ([]graphmodel.Node, error) {
	reply, err := c.ExecuteCypher(ctx, bfsNodesQuery(originUUIDs, maxDepth, limit))
	if err != nil {
		return nil, err
	}
	idx := reply.columnIndex("n")
	if idx < 0 {
		idx = 0
	}
	nodes := make([]graphmodel.Node, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		n, err := decodeNodeValue(row[idx])
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (c *Client) LoadNodesByIDs(ctx context.Context, ids []string) ([]graphmodel.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	reply, err := c.ExecuteCypher(ctx, loadNodesByIDsQuery(ids))
	if err != nil {
		return nil, err
	}
	idx := reply.columnIndex("n")
	if idx < 0 {
		idx = 0
	}
	nodes := make([]graphmodel.Node, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		n, err := decodeNodeValue(row[idx])
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (c *Client) LoadEdgesByPairs(ctx context.Context, pairs []struct{ Source, Target string }) ([]graphmodel.Edge, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	reply, err := c.ExecuteCypher(ctx, loadEdgesByPairsQuery(pairs))
	if err != nil {
		return nil, err
	}
	return decodeEdgeRows(c, reply, "a", "r", "b")
}

func (c *Client) CountNodes(ctx context.Context, groupIDs []string) (int64, error) {
	reply, err := c.ExecuteCypher(ctx, countNodesQuery(groupIDs))
	if err != nil {
		return 0, err
	}
	return firstCount(reply)
}

func (c *Client) CountEdges(ctx context.Context, groupIDs []string) (int64, error) {
	reply, err := c.ExecuteCypher(ctx, countEdgesQuery(groupIDs))
	if err != nil {
		return 0, err
	}
	return firstCount(reply)
}

func firstCount(reply queryReply) (int64, error) {
	if len(reply.Rows) == 0 || len(reply.Rows[0]) == 0 {
		return 0, nil
	}
	switch v := reply.Rows[0][0].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, apperr.New(apperr.ParseFailed, "graphstore: count column is not numeric")
	}
}

func (c *Client) WriteNodeProperty(ctx context.Context, nodeID, property string, value float64) error {
	_, err := c.ExecuteCypher(ctx, writePropertyStatement(nodeID, property, value))
	return err
}

func (c *Client) WriteNodeSummary(ctx context.Context, nodeID, summary string) error {
	_, err := c.ExecuteCypher(ctx, writeSummaryStatement(nodeID, summary))
	return err
}

// WriteFeedback records a blended relevance score and advances the node's
// feedback bookkeeping (feedback_count, last_feedback, last_feedback_source)
// in one round trip, grounded on feedback.rs's process_feedback write-back.
func (c *Client) WriteFeedback(ctx context.Context, nodeID string, blendedScore float64, source string, at time.Time) error {
	_, err := c.ExecuteCypher(ctx, writeFeedbackStatement(nodeID, blendedScore, at.UTC().Format(time.RFC3339), source))
	return err
}

// NativePageRank invokes the store's built-in pageRank procedure and
// retrieves the scores it wrote to each node's score property. Returns an
// error (including empty results) whenever native delegation cannot be
// trusted, so callers fall back to the pure-Go implementation.
func (c *Client) NativePageRank(ctx context.Context, groupIDs []string, iterations int, damping float64) (map[string]float64, error) {
	if _, err := c.ExecuteCypher(ctx, nativePageRankStatement(c.graphName, iterations, damping)); err != nil {
		return nil, err
	}
	reply, err := c.ExecuteCypher(ctx, nativePageRankResultsQuery(groupIDs))
	if err != nil {
		return nil, err
	}
	return scoresByUUID(reply)
}

// NativeBetweenness mirrors NativePageRank for the store's algo.betweenness
// procedure, which writes scores to each node's betweenness property.
func (c *Client) NativeBetweenness(ctx context.Context, groupIDs []string) (map[string]float64, error) {
	if _, err := c.ExecuteCypher(ctx, nativeBetweennessStatement(c.graphName)); err != nil {
		return nil, err
	}
	reply, err := c.ExecuteCypher(ctx, nativeBetweennessResultsQuery(groupIDs))
	if err != nil {
		return nil, err
	}
	return scoresByUUID(reply)
}

// scoresByUUID parses a (uuid, score) result set, falling back to
// positional columns 0/1 when the named columns aren't present.
func scoresByUUID(reply queryReply) (map[string]float64, error) {
	if len(reply.Rows) == 0 {
		return nil, apperr.New(apperr.ParseFailed, "graphstore: native algorithm returned no scores")
	}
	uIdx, sIdx := reply.columnIndex("uuid"), reply.columnIndex("score")
	if uIdx < 0 || sIdx < 0 {
		uIdx, sIdx = 0, 1
	}
	scores := make(map[string]float64, len(reply.Rows))
	for _, row := range reply.Rows {
		uuid := fmt.Sprintf("%v", row[uIdx])
		f, ok := row[sIdx].(float64)
		if !ok {
			continue
		}
		scores[uuid] = f
	}
	return scores, nil
}

// LoadFullGraph fetches every node and edge up to limit each, used by the
// Materialized Graph View's initial load and the reconciler's
// divergence-triggered reload.
func (c *Client) LoadFullGraph(ctx context.Context, limit int) ([]graphmodel.Node, []graphmodel.Edge, error) {
	nodeReply, err := c.ExecuteCypher(ctx, allNodesQuery(limit))
	if err != nil {
		return nil, nil, err
	}
	idx := nodeReply.columnIndex("n")
	if idx < 0 {
		idx = 0
	}
	nodes := make([]graphmodel.Node, 0, len(nodeReply.Rows))
	for _, row := range nodeReply.Rows {
		n, err := decodeNodeValue(row[idx])
		if err != nil {
			c.log.Warn().Err(err).Msg("graphstore: skipping malformed node row")
			continue
		}
		nodes = append(nodes, n)
	}

	edgeReply, err := c.ExecuteCypher(ctx, allEdgesQuery(limit))
	if err != nil {
		return nil, nil, err
	}
	edges, err := decodeEdgeRows(c, edgeReply, "a", "r", "b")
	if err != nil {
		return nil, nil, err
	}

	return nodes, edges, nil
}

func decodeEdgeRows(c *Client, reply queryReply, srcCol, edgeCol, dstCol string) ([]graphmodel.Edge, error) {
	aIdx, rIdx, bIdx := reply.columnIndex(srcCol), reply.columnIndex(edgeCol), reply.columnIndex(dstCol)
	if aIdx < 0 || rIdx < 0 || bIdx < 0 {
		aIdx, rIdx, bIdx = 0, 1, 2
	}
	edges := make([]graphmodel.Edge, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		srcNode, err := decodeNodeValue(row[aIdx])
		if err != nil {
			continue
		}
		dstNode, err := decodeNodeValue(row[bIdx])
		if err != nil {
			continue
		}
		e, err := decodeEdgeValue(row[rIdx], srcNode.ID, dstNode.ID)
		if err != nil {
			c.log.Warn().Err(err).Msg("graphstore: skipping malformed edge row")
			continue
		}
		edges = append(edges, e)
	}
	return edges, nil
}
