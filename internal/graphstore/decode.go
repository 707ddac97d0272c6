package graphstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/platform/apperr"
)

// This file decodes GRAPH.QUERY replies. The store is addressed in verbose
// (non --compact) mode: a reply is [header, rows, stats]; header is a list
// of column-name strings, each row is a list of column values, and node/edge
// values arrive as the RedisGraph wire shape:
//
//	node:  [["id", <int>], ["labels", [<string>...]], ["properties", [[<k>,<v>]...]]]
//	edge:  [["id", <int>], ["type", <string>], ["src_node", <int>], ["dest_node", <int>], ["properties", [[<k>,<v>]...]]]
//
// grounded on original_source's falkor/client_v2.rs reply parsing.

// queryReply is the decoded [header, rows] shape of a GRAPH.QUERY response;
// the trailing stats array is discarded, this service has no use for it.
type queryReply struct {
	Header []string
	Rows   [][]interface{}
}

func parseQueryReply(reply interface{}) (queryReply, error) {
	top, ok := reply.([]interface{})
	if !ok || len(top) < 2 {
		return queryReply{}, apperr.New(apperr.ParseFailed, "graphstore: malformed GRAPH.QUERY reply shape")
	}

	headerRaw, ok := top[0].([]interface{})
	if !ok {
		return queryReply{}, apperr.New(apperr.ParseFailed, "graphstore: malformed query header")
	}
	header := make([]string, len(headerRaw))
	for i, h := range headerRaw {
		header[i] = fmt.Sprintf("%v", h)
	}

	rowsRaw, ok := top[1].([]interface{})
	if !ok {
		return queryReply{}, apperr.New(apperr.ParseFailed, "graphstore: malformed query rows")
	}
	rows := make([][]interface{}, len(rowsRaw))
	for i, r := range rowsRaw {
		row, ok := r.([]interface{})
		if !ok {
			return queryReply{}, apperr.New(apperr.ParseFailed, "graphstore: malformed query row")
		}
		rows[i] = row
	}

	return queryReply{Header: header, Rows: rows}, nil
}

// columnIndex returns the position of name in header, or -1.
func (q queryReply) columnIndex(name string) int {
	for i, h := range q.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// entityFields is the ["id", v, "labels"/"type", v, ...] association-list
// shape shared by node and edge wire values.
func entityFields(raw interface{}) (map[string]interface{}, error) {
	pairs, ok := raw.([]interface{})
	if !ok {
		return nil, apperr.New(apperr.ParseFailed, "graphstore: entity value is not an association list")
	}
	out := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		kv, ok := p.([]interface{})
		if !ok || len(kv) != 2 {
			return nil, apperr.New(apperr.ParseFailed, "graphstore: malformed entity field pair")
		}
		key := fmt.Sprintf("%v", kv[0])
		out[key] = kv[1]
	}
	return out, nil
}

func propertiesOf(fields map[string]interface{}) graphmodel.Properties {
	props := graphmodel.Properties{}
	raw, ok := fields["properties"]
	if !ok {
		return props
	}
	pairs, ok := raw.([]interface{})
	if !ok {
		return props
	}
	for _, p := range pairs {
		kv, ok := p.([]interface{})
		if !ok || len(kv) != 2 {
			continue
		}
		key := fmt.Sprintf("%v", kv[0])
		props[key] = decodeScalar(kv[1])
	}
	return props
}

func decodeScalar(raw interface{}) graphmodel.Value {
	switch v := raw.(type) {
	case nil:
		return graphmodel.Null()
	case bool:
		return graphmodel.Bool(v)
	case int64:
		return graphmodel.Int(v)
	case int:
		return graphmodel.Int(int64(v))
	case float64:
		return graphmodel.Float(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil && looksNumeric(v) {
			return graphmodel.Float(f)
		}
		return graphmodel.String(v)
	case []interface{}:
		vals := make([]graphmodel.Value, len(v))
		for i, e := range v {
			vals[i] = decodeScalar(e)
		}
		return graphmodel.Array(vals...)
	default:
		return graphmodel.String(fmt.Sprintf("%v", v))
	}
}

// looksNumeric avoids coercing ordinary strings ("Alice") into floats just
// because strconv happens to tolerate leading digits in some locales; it
// requires the whole string to parse cleanly, which ParseFloat already
// guarantees, so this only exists to make the intent explicit at call site.
func looksNumeric(s string) bool {
	return len(s) > 0
}

func propString(p graphmodel.Properties, key string) string {
	if v, ok := p[key]; ok && v.Kind == graphmodel.KindString {
		return v.S
	}
	return ""
}

func propFloat(p graphmodel.Properties, key string) float64 {
	if v, ok := p[key]; ok {
		switch v.Kind {
		case graphmodel.KindFloat:
			return v.F
		case graphmodel.KindInt:
			return float64(v.I)
		}
	}
	return 0
}

func propTime(p graphmodel.Properties, key string) time.Time {
	if v, ok := p[key]; ok {
		switch v.Kind {
		case graphmodel.KindFloat:
			return time.UnixMilli(int64(v.F))
		case graphmodel.KindInt:
			return time.UnixMilli(v.I)
		case graphmodel.KindString:
			if t, err := time.Parse(time.RFC3339, v.S); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func decodeNodeValue(raw interface{}) (graphmodel.Node, error) {
	fields, err := entityFields(raw)
	if err != nil {
		return graphmodel.Node{}, err
	}
	props := propertiesOf(fields)

	nodeType := "Entity"
	if labelsRaw, ok := fields["labels"].([]interface{}); ok && len(labelsRaw) > 0 {
		nodeType = fmt.Sprintf("%v", labelsRaw[0])
	}

	n := graphmodel.Node{
		ID:        propString(props, "uuid"),
		Name:      propString(props, "name"),
		NodeType:  nodeType,
		Summary:   propString(props, "summary"),
		GroupID:   propString(props, "group_id"),
		CreatedAt: propTime(props, "created_at"),
		Properties: props,
	}
	return n, nil
}

func decodeEdgeValue(raw interface{}, srcID, dstID string) (graphmodel.Edge, error) {
	fields, err := entityFields(raw)
	if err != nil {
		return graphmodel.Edge{}, err
	}
	props := propertiesOf(fields)

	edgeType := "RELATES_TO"
	if t, ok := fields["type"]; ok {
		edgeType = fmt.Sprintf("%v", t)
	}

	e := graphmodel.Edge{
		ID:           propString(props, "uuid"),
		SourceNodeID: srcID,
		TargetNodeID: dstID,
		EdgeType:     edgeType,
		Weight:       propFloat(props, "weight"),
		Fact:         propString(props, "fact"),
		GroupID:      propString(props, "group_id"),
		CreatedAt:    propTime(props, "created_at"),
	}
	return e, nil
}
