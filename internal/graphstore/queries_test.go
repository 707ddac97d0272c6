package graphstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLiteralEscapesSingleQuotes(t *testing.T) {
	assert.Equal(t, `O\'Brien`, escapeLiteral("O'Brien"))
	assert.Equal(t, "plain", escapeLiteral("plain"))
}

func TestBuildGroupFilterEmptyIsBlank(t *testing.T) {
	assert.Equal(t, "", buildGroupFilter("n", nil))
	assert.Equal(t, "", buildGroupFilter("n", []string{}))
}

func TestBuildGroupFilterRendersInClause(t *testing.T) {
	got := buildGroupFilter("n", []string{"g1", "g2"})
	assert.Equal(t, " AND n.group_id IN ['g1','g2']", got)
}

func TestBuildGroupFilterEscapesLiterals(t *testing.T) {
	got := buildGroupFilter("n", []string{"o'malley"})
	assert.Contains(t, got, `o\'malley`)
}

func TestOptionalWhereBlankWhenFilterEmpty(t *testing.T) {
	assert.Equal(t, "", optionalWhere(""))
}

func TestOptionalWhereStripsLeadingAnd(t *testing.T) {
	got := optionalWhere(" AND n.group_id IN ['g1']")
	assert.Equal(t, " WHERE n.group_id IN ['g1']", got)
}

func TestVecLiteralRendersInlineArray(t *testing.T) {
	got := vecLiteral([]float32{1, 0.5, -2})
	assert.Equal(t, "vecf32([1,0.5,-2])", got)
}

func TestVecLiteralEmpty(t *testing.T) {
	assert.Equal(t, "vecf32([])", vecLiteral(nil))
}

func TestFulltextNodesQueryShape(t *testing.T) {
	q := fulltextNodesQuery("hello", nil, 10)
	assert.Contains(t, q, "MATCH (n:Entity)")
	assert.Contains(t, q, "toLower(n.name) CONTAINS 'hello'")
	assert.Contains(t, q, "toLower(n.summary) CONTAINS 'hello'")
	assert.Contains(t, q, "LIMIT 10")
	assert.NotContains(t, q, "group_id")
}

func TestFulltextNodesQueryWithGroupFilter(t *testing.T) {
	q := fulltextNodesQuery("hello", []string{"g1"}, 5)
	assert.Contains(t, q, "n.group_id IN ['g1']")
}

func TestFulltextEdgesQueryShape(t *testing.T) {
	q := fulltextEdgesQuery("fact", nil, 20)
	assert.Contains(t, q, "[r:RELATES_TO]")
	assert.Contains(t, q, "r.fact) CONTAINS 'fact'")
	assert.Contains(t, q, "LIMIT 20")
}

func TestFulltextEpisodesQueryShape(t *testing.T) {
	q := fulltextEpisodesQuery("topic", nil, 3)
	assert.Contains(t, q, "(e:Episode)")
	assert.Contains(t, q, "e.content) CONTAINS 'topic'")
}

func TestFulltextCommunitiesQueryShape(t *testing.T) {
	q := fulltextCommunitiesQuery("cluster", nil, 3)
	assert.Contains(t, q, "(c:Community)")
	assert.Contains(t, q, "c.summary) CONTAINS 'cluster'")
}

func TestSimilarityNodesQueryShape(t *testing.T) {
	q := similarityNodesQuery([]float32{1, 0}, 0.8, nil, 10)
	assert.Contains(t, q, "n.name_embedding IS NOT NULL")
	assert.Contains(t, q, "vec.cosineDistance(n.name_embedding, vecf32([1,0]))")
	assert.Contains(t, q, "score >= 0.8")
	assert.Contains(t, q, "ORDER BY score DESC LIMIT 10")
}

func TestSimilarityEdgesScoreOnlyQueryWithoutExclusions(t *testing.T) {
	q := similarityEdgesScoreOnlyQuery([]float32{1}, 0.5, nil, nil, 10)
	assert.NotContains(t, q, "NOT r.uuid")
	assert.Contains(t, q, "RETURN r.uuid, score")
}

func TestSimilarityEdgesScoreOnlyQueryWithExclusions(t *testing.T) {
	q := similarityEdgesScoreOnlyQuery([]float32{1}, 0.5, nil, []string{"id1", "id2"}, 10)
	assert.Contains(t, q, "NOT r.uuid IN ['id1','id2']")
}

func TestSimilarityEdgesFetchQueryShape(t *testing.T) {
	q := similarityEdgesFetchQuery([]string{"a", "b"})
	assert.Contains(t, q, "r.uuid IN ['a','b']")
	assert.Contains(t, q, "RETURN a, r, b")
}

func TestBFSNodesQueryShape(t *testing.T) {
	q := bfsNodesQuery([]string{"root"}, 2, 50)
	assert.Contains(t, q, "start.uuid IN ['root']")
	assert.Contains(t, q, "algo.BFS(start, 2, 'RELATES_TO')")
	assert.Contains(t, q, "LIMIT 50")
}

func TestCountNodesQueryWithAndWithoutFilter(t *testing.T) {
	assert.Equal(t, "MATCH (n) RETURN count(n) AS count", countNodesQuery(nil))
	withFilter := countNodesQuery([]string{"g1"})
	assert.True(t, strings.Contains(withFilter, "WHERE n.group_id IN ['g1']"))
}

func TestCountEdgesQueryWithAndWithoutFilter(t *testing.T) {
	assert.Equal(t, "MATCH ()-[r]->() RETURN count(r) AS count", countEdgesQuery(nil))
	withFilter := countEdgesQuery([]string{"g1"})
	assert.Contains(t, withFilter, "WHERE r.group_id IN ['g1']")
}

func TestWritePropertyStatementShape(t *testing.T) {
	q := writePropertyStatement("node-1", "pagerank_centrality", 0.123456)
	assert.Contains(t, q, "MATCH (n {uuid: 'node-1'})")
	assert.Contains(t, q, "SET n.pagerank_centrality = 0.123456")
}

func TestWriteSummaryStatementEscapesQuotes(t *testing.T) {
	q := writeSummaryStatement("node-1", "it's a test")
	assert.Contains(t, q, `SET n.summary = 'it\'s a test'`)
}

func TestLoadNodesByIDsQueryShape(t *testing.T) {
	q := loadNodesByIDsQuery([]string{"a", "b"})
	assert.Equal(t, `MATCH (n) WHERE n.uuid IN ['a','b'] RETURN n`, q)
}

func TestLoadEdgesByPairsQueryShape(t *testing.T) {
	pairs := []struct{ Source, Target string }{{Source: "a", Target: "b"}, {Source: "c", Target: "d"}}
	q := loadEdgesByPairsQuery(pairs)
	assert.Contains(t, q, "(a.uuid='a' AND b.uuid='b')")
	assert.Contains(t, q, "(a.uuid='c' AND b.uuid='d')")
	assert.Contains(t, q, " OR ")
}

func TestAllNodesAndEdgesQueryShape(t *testing.T) {
	assert.Equal(t, "MATCH (n) RETURN n LIMIT 100", allNodesQuery(100))
	assert.Equal(t, "MATCH (a)-[r]->(b) RETURN a, r, b LIMIT 100", allEdgesQuery(100))
}
