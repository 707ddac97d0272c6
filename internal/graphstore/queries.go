package graphstore

import (
	"fmt"
	"strings"
)

// buildGroupFilter renders an optional AND clause constraining a variable's
// group_id, or "" when groupIDs is empty.
func buildGroupFilter(varName string, groupIDs []string) string {
	if len(groupIDs) == 0 {
		return ""
	}
	quoted := make([]string, len(groupIDs))
	for i, g := range groupIDs {
		quoted[i] = fmt.Sprintf("'%s'", escapeLiteral(g))
	}
	return fmt.Sprintf(" AND %s.group_id IN [%s]", varName, strings.Join(quoted, ","))
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// fulltextNodesQuery mirrors SPEC_FULL.md §6.2's canonical node full-text
// shape, grounded on falkor/client_v2.rs's fulltext_search_nodes.
func fulltextNodesQuery(sanitizedQuery string, groupIDs []string, limit int) string {
	return fmt.Sprintf(
		`MATCH (n:Entity) WHERE (toLower(n.name) CONTAINS '%s' OR toLower(n.summary) CONTAINS '%s')%s RETURN n LIMIT %d`,
		escapeLiteral(sanitizedQuery), escapeLiteral(sanitizedQuery), buildGroupFilter("n", groupIDs), limit,
	)
}

func fulltextEdgesQuery(sanitizedQuery string, groupIDs []string, limit int) string {
	return fmt.Sprintf(
		`MATCH (a)-[r:RELATES_TO]->(b) WHERE (toLower(r.fact) CONTAINS '%s' OR toLower(r.name) CONTAINS '%s')%s RETURN a,r,b LIMIT %d`,
		escapeLiteral(sanitizedQuery), escapeLiteral(sanitizedQuery), buildGroupFilter("r", groupIDs), limit,
	)
}

func fulltextEpisodesQuery(sanitizedQuery string, groupIDs []string, limit int) string {
	return fmt.Sprintf(
		`MATCH (e:Episode) WHERE (toLower(e.content) CONTAINS '%s' OR toLower(e.name) CONTAINS '%s')%s RETURN e LIMIT %d`,
		escapeLiteral(sanitizedQuery), escapeLiteral(sanitizedQuery), buildGroupFilter("e", groupIDs), limit,
	)
}

func fulltextCommunitiesQuery(sanitizedQuery string, groupIDs []string, limit int) string {
	return fmt.Sprintf(
		`MATCH (c:Community) WHERE (toLower(c.name) CONTAINS '%s' OR toLower(c.summary) CONTAINS '%s')%s RETURN c LIMIT %d`,
		escapeLiteral(sanitizedQuery), escapeLiteral(sanitizedQuery), buildGroupFilter("c", groupIDs), limit,
	)
}

// vecLiteral renders a float32 embedding as an inline vecf32() literal, the
// SDK quirk documented in SPEC_FULL.md §4.1/§6.2: FalkorDB-family stores
// only accept vector arithmetic via an inlined literal, not a bound param.
func vecLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return fmt.Sprintf("vecf32([%s])", strings.Join(parts, ","))
}

func similarityNodesQuery(embedding []float32, minScore float32, groupIDs []string, limit int) string {
	return fmt.Sprintf(
		`MATCH (n:Entity) WHERE n.name_embedding IS NOT NULL%s WITH n, (2 - vec.cosineDistance(n.name_embedding, %s))/2 AS score WHERE score >= %g RETURN n, score ORDER BY score DESC LIMIT %d`,
		buildGroupFilter("n", groupIDs), vecLiteral(embedding), minScore, limit,
	)
}

// similarityEdgesScoreOnlyQuery is phase one of the two-phase
// similarity-over-edges workaround (SPEC_FULL.md §4.1): project only
// (identifier, score), excluding identifiers already seen, since some
// stores reject LIMIT>1 combined with vector arithmetic when also
// projecting edge bodies.
func similarityEdgesScoreOnlyQuery(embedding []float32, minScore float32, groupIDs []string, excludeIDs []string, limit int) string {
	exclude := ""
	if len(excludeIDs) > 0 {
		quoted := make([]string, len(excludeIDs))
		for i, id := range excludeIDs {
			quoted[i] = fmt.Sprintf("'%s'", escapeLiteral(id))
		}
		exclude = fmt.Sprintf(" AND NOT r.uuid IN [%s]", strings.Join(quoted, ","))
	}
	return fmt.Sprintf(
		`MATCH (a)-[r:RELATES_TO]->(b) WHERE r.fact_embedding IS NOT NULL%s%s WITH r, (2 - vec.cosineDistance(r.fact_embedding, %s))/2 AS score WHERE score >= %g RETURN r.uuid, score ORDER BY score DESC LIMIT %d`,
		buildGroupFilter("r", groupIDs), exclude, vecLiteral(embedding), minScore, limit,
	)
}

// similarityEdgesFetchQuery is phase two: fetch full edge bodies (without
// vector projections) for the identifiers scored in phase one.
func similarityEdgesFetchQuery(uuids []string) string {
	quoted := make([]string, len(uuids))
	for i, id := range uuids {
		quoted[i] = fmt.Sprintf("'%s'", escapeLiteral(id))
	}
	return fmt.Sprintf(
		`MATCH (a)-[r:RELATES_TO]->(b) WHERE r.uuid IN [%s] RETURN a, r, b`,
		strings.Join(quoted, ","),
	)
}

// nativePageRankStatement mirrors the original's graphiti-centrality-rs
// call shape: invoke the store's built-in pageRank procedure over the full
// graph, which writes each node's score to the `score` property in place.
func nativePageRankStatement(graphLabel string, iterations int, damping float64) string {
	return fmt.Sprintf(`CALL algo.pageRank('%s', {max_iter: %d, dampingFactor: %g})`, escapeLiteral(graphLabel), iterations, damping)
}

// nativePageRankResultsQuery retrieves the scores the CALL above just wrote.
func nativePageRankResultsQuery(groupIDs []string) string {
	return fmt.Sprintf(`MATCH (n) WHERE EXISTS(n.score)%s RETURN n.uuid AS uuid, n.score AS score`, buildGroupFilter("n", groupIDs))
}

// nativeBetweennessStatement mirrors the original's single-argument
// algo.betweenness invocation, which writes each node's score to the
// `betweenness` property in place.
func nativeBetweennessStatement(graphLabel string) string {
	return fmt.Sprintf(`CALL algo.betweenness('%s')`, escapeLiteral(graphLabel))
}

func nativeBetweennessResultsQuery(groupIDs []string) string {
	return fmt.Sprintf(`MATCH (n) WHERE EXISTS(n.betweenness)%s RETURN n.uuid AS uuid, n.betweenness AS score`, buildGroupFilter("n", groupIDs))
}

func bfsNodesQuery(originUUIDs []string, maxDepth, limit int) string {
	quoted := make([]string, len(originUUIDs))
	for i, u := range originUUIDs {
		quoted[i] = fmt.Sprintf("'%s'", escapeLiteral(u))
	}
	return fmt.Sprintf(
		`MATCH (start:Entity) WHERE start.uuid IN [%s] CALL algo.BFS(start, %d, 'RELATES_TO') YIELD nodes UNWIND nodes AS n RETURN DISTINCT n LIMIT %d`,
		strings.Join(quoted, ","), maxDepth, limit,
	)
}

func countNodesQuery(groupIDs []string) string {
	return "MATCH (n)" + optionalWhere(buildGroupFilter("n", groupIDs)) + " RETURN count(n) AS count"
}

func countEdgesQuery(groupIDs []string) string {
	return "MATCH ()-[r]->()" + optionalWhere(buildGroupFilter("r", groupIDs)) + " RETURN count(r) AS count"
}

// optionalWhere turns a leading " AND ..." filter fragment into a full
// WHERE clause, or "" when filter is empty.
func optionalWhere(filter string) string {
	if filter == "" {
		return ""
	}
	return " WHERE " + strings.TrimPrefix(filter, " AND ")
}

// writePropertyStatement renders the centrality write-back as a direct SET
// statement, per spec.md §4.7's "Persistence" note: the store does not
// reliably accept parameter binding for these writes.
func writePropertyStatement(nodeID, property string, value float64) string {
	return fmt.Sprintf(`MATCH (n {uuid: '%s'}) SET n.%s = %g`, escapeLiteral(nodeID), property, value)
}

// writeFeedbackStatement renders the feedback-processing write-back,
// grounded on feedback.rs's process_feedback query: besides the blended
// relevance_score (already computed in Go via emaBlend), it increments
// feedback_count and stamps last_feedback/last_feedback_source.
func writeFeedbackStatement(nodeID string, blendedScore float64, timestampRFC3339, source string) string {
	return fmt.Sprintf(
		`MATCH (n {uuid: '%s'}) SET n.relevance_score = %g, n.feedback_count = CASE WHEN n.feedback_count IS NULL THEN 1 ELSE n.feedback_count + 1 END, n.last_feedback = '%s', n.last_feedback_source = '%s'`,
		escapeLiteral(nodeID), blendedScore, escapeLiteral(timestampRFC3339), escapeLiteral(source),
	)
}

func writeSummaryStatement(nodeID, summary string) string {
	return fmt.Sprintf(`MATCH (n {uuid: '%s'}) SET n.summary = '%s'`, escapeLiteral(nodeID), escapeLiteral(summary))
}

func loadNodesByIDsQuery(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("'%s'", escapeLiteral(id))
	}
	return fmt.Sprintf(`MATCH (n) WHERE n.uuid IN [%s] RETURN n`, strings.Join(quoted, ","))
}

func loadEdgesByPairsQuery(pairs []struct{ Source, Target string }) string {
	clauses := make([]string, len(pairs))
	for i, p := range pairs {
		clauses[i] = fmt.Sprintf("(a.uuid='%s' AND b.uuid='%s')", escapeLiteral(p.Source), escapeLiteral(p.Target))
	}
	return fmt.Sprintf(`MATCH (a)-[r]->(b) WHERE %s RETURN a, r, b`, strings.Join(clauses, " OR "))
}

func allNodesQuery(limit int) string {
	return fmt.Sprintf(`MATCH (n) RETURN n LIMIT %d`, limit)
}

func allEdgesQuery(limit int) string {
	return fmt.Sprintf(`MATCH (a)-[r]->(b) RETURN a, r, b LIMIT %d`, limit)
}

