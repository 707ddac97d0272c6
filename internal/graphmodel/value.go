package graphmodel

import "sort"

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// Value is a heterogeneous property-bag entry, per SPEC_FULL.md §3's
// "Dynamic property bags" design note: a tagged variant with structural
// equality, since node/edge properties arrive as arbitrary JSON-shaped data
// from the graph store.
type Value struct {
	Kind ValueKind
	B    bool
	I    int64
	F    float64
	S    string
	Arr  []Value
	Obj  map[string]Value
}

func Null() Value             { return Value{Kind: KindNull} }
func Bool(b bool) Value       { return Value{Kind: KindBool, B: b} }
func Int(i int64) Value       { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value   { return Value{Kind: KindFloat, F: f} }
func String(s string) Value   { return Value{Kind: KindString, S: s} }
func Array(v ...Value) Value  { return Value{Kind: KindArray, Arr: v} }
func Object(m map[string]Value) Value {
	return Value{Kind: KindObject, Obj: m}
}

// Equal is structural equality across the variant, used by the delta
// tracker's meaningful-fields comparison.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.B == o.B
	case KindInt:
		return v.I == o.I
	case KindFloat:
		return v.F == o.F
	case KindString:
		return v.S == o.S
	case KindArray:
		if len(v.Arr) != len(o.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(o.Arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.Obj) != len(o.Obj) {
			return false
		}
		for k, vv := range v.Obj {
			ov, ok := o.Obj[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Properties is a node/edge property bag.
type Properties map[string]Value

// Equal compares two property bags excluding the given volatile keys, used
// by the delta tracker's meaningful-fields equivalence (SPEC_FULL.md §4.11).
func (p Properties) Equal(o Properties, ignore map[string]struct{}) bool {
	keysP := relevantKeys(p, ignore)
	keysO := relevantKeys(o, ignore)
	if len(keysP) != len(keysO) {
		return false
	}
	for _, k := range keysP {
		if !p[k].Equal(o[k]) {
			return false
		}
	}
	return true
}

func relevantKeys(p Properties, ignore map[string]struct{}) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if _, skip := ignore[k]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
