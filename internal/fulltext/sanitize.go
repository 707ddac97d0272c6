// Package fulltext prepares a raw user query string for the Graph
// Adapter's CONTAINS-based full-text match (spec.md §4.2: the graph store
// backing this service has no dedicated text index, so full-text search is
// a lower-cased substring match rather than a Lucene/RediSearch query).
//
// This package is standard-library-only by design: the teacher's text
// pipeline (internal/rag/retrieve) defers all tokenization/ranking to an
// external full-text index (pgvector/Postgres FTS), which this domain does
// not have — the store-level query is a plain substring match, so the only
// work left in Go is trimming, lower-casing, and collapsing whitespace.
// Quote escaping for the Cypher string literal happens in graphstore
// (escapeLiteral); no query-syntax meta-characters are escaped and quoted
// phrases get no special handling. No
// example repo carries a query-sanitization library for this narrower job.
package fulltext

import "strings"

// Sanitize lower-cases and trims query, and collapses internal whitespace
// runs to single spaces, matching the normalization the store-side CONTAINS
// comparison assumes (graphstore lower-cases the indexed field too).
func Sanitize(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	return strings.Join(fields, " ")
}

// Valid reports whether a sanitized query is non-empty and within a sane
// length bound, rejecting pathological input before it reaches the store.
func Valid(sanitized string) bool {
	return len(sanitized) > 0 && len(sanitized) <= 512
}
