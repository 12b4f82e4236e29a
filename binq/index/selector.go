package index

import (
	"math"

	"github.com/binquery/binq/types"
)

// Selection is the outcome of index selection for one qualifier tree.
type Selection struct {
	// Descriptor is the chosen index; nil when the query must scan.
	Descriptor *types.IndexDescriptor
	// Leaf is the qualifier whose predicate the index serves. All other
	// leaves become residual filters.
	Leaf *types.Qualifier
}

// Eligible reports whether a leaf's operator/value combination can be
// served by a secondary index at all: equality and IN on scalar integer,
// string or byte-array values, and numeric ranges. Containment and the
// map/collection operator families always evaluate as expressions, and a
// leaf navigating a context path needs a matching CTX index which the
// candidates filter handles separately.
func Eligible(leaf *types.Qualifier) bool {
	if leaf == nil || leaf.IsComposite() || leaf.IsID() {
		return false
	}
	switch leaf.Op() {
	case types.EQ, types.IN:
		return indexableValue(leaf.Value())
	case types.BETWEEN:
		return isInt(leaf.Value()) && isInt(leaf.SecondValue())
	case types.GT, types.GTEQ, types.LT, types.LTEQ:
		return isInt(leaf.Value())
	case types.GEO_WITHIN:
		return true
	}
	return false
}

func indexableValue(v any) bool {
	switch typed := v.(type) {
	case int64, string, []byte:
		return true
	case []any:
		// IN lists qualify when every element does.
		for _, el := range typed {
			if !indexableValue(el) {
				return false
			}
		}
		return len(typed) > 0
	}
	return false
}

func isInt(v any) bool {
	_, ok := v.(int64)
	return ok
}

// Select picks the single index used for filter pushdown: among all
// eligible leaves with at least one matching index, the one whose best
// candidate has the lowest entries-per-unique-value ratio wins; ties keep
// the earlier leaf in pre-order. The heuristic is deliberately simple —
// statistics are refreshed only periodically, so a full cost model would
// be built on stale numbers anyway. A nil descriptor means scan.
func Select(q *types.Qualifier, cache *Cache, namespace string) Selection {
	if q == nil {
		return Selection{}
	}
	var best Selection
	for _, leaf := range q.Leaves() {
		if hint := leaf.IndexHint(); hint != "" {
			if d, ok := cache.ByName(hint); ok {
				// An explicit hint overrides the heuristic outright.
				return Selection{Descriptor: &d, Leaf: leaf}
			}
		}
		if !Eligible(leaf) {
			continue
		}
		candidate := bestCandidate(cache.Candidates(namespace, leaf.Path()), leaf)
		if candidate == nil {
			continue
		}
		if best.Descriptor == nil || ratioOf(candidate) < ratioOf(best.Descriptor) {
			best = Selection{Descriptor: candidate, Leaf: leaf}
		}
	}
	return best
}

// bestCandidate filters candidates down to those whose value type and
// collection kind can serve the leaf, then picks the lowest ratio.
func bestCandidate(candidates []types.IndexDescriptor, leaf *types.Qualifier) *types.IndexDescriptor {
	var best *types.IndexDescriptor
	for i := range candidates {
		d := candidates[i]
		if d.Collection != types.IndexCollectionNone {
			continue
		}
		if !typeServes(d.Type, leaf) {
			continue
		}
		if best == nil || ratioOf(&d) < ratioOf(best) {
			best = &d
		}
	}
	return best
}

// ratioOf orders descriptors by selectivity; an unknown ratio (zero)
// sorts last so indexes with fresh statistics win.
func ratioOf(d *types.IndexDescriptor) float64 {
	if d.Ratio <= 0 {
		return math.MaxFloat64
	}
	return d.Ratio
}

func typeServes(t types.IndexType, leaf *types.Qualifier) bool {
	switch leaf.Op() {
	case types.BETWEEN, types.GT, types.GTEQ, types.LT, types.LTEQ:
		return t == types.IndexNumeric
	case types.GEO_WITHIN:
		return t == types.IndexGeo2DSphere
	}
	switch v := leaf.Value().(type) {
	case int64:
		return t == types.IndexNumeric
	case string:
		return t == types.IndexString
	case []byte:
		return t == types.IndexBlob
	case []any:
		if len(v) == 0 {
			return false
		}
		switch v[0].(type) {
		case int64:
			return t == types.IndexNumeric
		case string:
			return t == types.IndexString
		case []byte:
			return t == types.IndexBlob
		}
	}
	return false
}
