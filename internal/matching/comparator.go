// Package matching decides whether an inbound request is semantically
// equivalent to a stored rule: query strings compare as multisets, JSON
// bodies compare structurally, and everything else falls back to exact
// string equality.
package matching

import (
	"net/url"
	"sort"

	"github.com/ohler55/ojg/oj"
)

// QueryEquivalent reports whether two raw query strings carry the same
// parameters. Key order is irrelevant; duplicate keys are significant, so
// "a=1&a=2" matches "a=2&a=1" but not "a=2". Malformed input compares as
// not equivalent rather than failing.
func QueryEquivalent(a, b string) bool {
	qa, err := url.ParseQuery(a)
	if err != nil {
		return false
	}
	qb, err := url.ParseQuery(b)
	if err != nil {
		return false
	}
	if len(qa) != len(qb) {
		return false
	}
	for key, va := range qa {
		vb, ok := qb[key]
		if !ok || len(va) != len(vb) {
			return false
		}
		sa := append([]string(nil), va...)
		sb := append([]string(nil), vb...)
		sort.Strings(sa)
		sort.Strings(sb)
		for i := range sa {
			if sa[i] != sb[i] {
				return false
			}
		}
	}
	return true
}

// BodyEquivalent reports whether two request bodies mean the same thing.
// When both parse as JSON they compare by deep structural equality: object
// key order is irrelevant, array order is not. When either side is not
// JSON, both compare as raw strings.
func BodyEquivalent(a, b string) bool {
	va, errA := oj.ParseString(a)
	vb, errB := oj.ParseString(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return structuralEqual(va, vb)
}

// structuralEqual walks two parsed JSON trees. Numbers compare by value
// across the int64/float64 split the parser produces.
func structuralEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for key, val := range av {
			other, present := bv[key]
			if !present || !structuralEqual(val, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !structuralEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	default:
		na, aok := asNumber(a)
		nb, bok := asNumber(b)
		return aok && bok && na == nb
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
