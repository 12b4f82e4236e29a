// Package exec dispatches compiled queries: primary-key fast path,
// secondary-index pushdown or full scan, residual in-memory filtering,
// and client-side post-processing of results.
package exec

import (
	"bytes"
	"reflect"
	"regexp"
	"strings"

	"github.com/binquery/binq/types"
)

// Matches evaluates a qualifier tree against one record's bins. It backs
// residual filtering after index pushdown and the in-memory fake used in
// tests. An unknown operator never matches.
func Matches(q *types.Qualifier, key any, bins map[string]any) bool {
	if q == nil {
		return true
	}
	switch q.Op() {
	case types.AND:
		for _, child := range q.Children() {
			if !Matches(child, key, bins) {
				return false
			}
		}
		return true
	case types.OR:
		for _, child := range q.Children() {
			if Matches(child, key, bins) {
				return true
			}
		}
		return false
	}
	if q.IsID() {
		return matchesID(q, key)
	}
	return matchesLeaf(q, bins)
}

func matchesID(q *types.Qualifier, key any) bool {
	switch q.Op() {
	case types.EQ:
		return equal(key, q.Value(), false)
	case types.IN:
		ids, ok := q.Value().([]any)
		if !ok {
			return false
		}
		for _, id := range ids {
			if equal(key, id, false) {
				return true
			}
		}
		return false
	case types.LIKE:
		s, ok := key.(string)
		pattern, patOK := q.Value().(string)
		if !ok || !patOK {
			return false
		}
		matched, err := regexp.MatchString(pattern, s)
		return err == nil && matched
	}
	return false
}

func matchesLeaf(q *types.Qualifier, bins map[string]any) bool {
	target, present := navigate(q, bins)

	switch q.Op() {
	case types.IS_NULL, types.MAP_VAL_IS_NULL_BY_KEY:
		return !present || target == nil
	case types.IS_NOT_NULL, types.MAP_VAL_IS_NOT_NULL_BY_KEY:
		return present && target != nil
	}
	if !present {
		return false
	}

	ic := q.IgnoreCase()
	switch q.Op() {
	case types.EQ, types.MAP_VAL_EQ_BY_KEY:
		return equal(target, q.Value(), ic)
	case types.NOTEQ, types.MAP_VAL_NOTEQ_BY_KEY:
		return !equal(target, q.Value(), ic)
	case types.GT, types.MAP_VAL_GT_BY_KEY:
		return compare(target, q.Value()) > 0
	case types.GTEQ, types.MAP_VAL_GTEQ_BY_KEY:
		return compare(target, q.Value()) >= 0
	case types.LT, types.MAP_VAL_LT_BY_KEY:
		return compare(target, q.Value()) < 0
	case types.LTEQ, types.MAP_VAL_LTEQ_BY_KEY:
		return compare(target, q.Value()) <= 0
	case types.BETWEEN, types.MAP_VAL_BETWEEN_BY_KEY:
		return compare(target, q.Value()) >= 0 && compare(target, q.SecondValue()) <= 0
	case types.IN:
		return containsValue(q.Value(), target, ic)
	case types.NOT_IN:
		return !containsValue(q.Value(), target, ic)
	case types.CONTAINING, types.MAP_VAL_CONTAINING_BY_KEY:
		return stringsOp(target, q.Value(), ic, strings.Contains)
	case types.NOT_CONTAINING, types.MAP_VAL_NOT_CONTAINING_BY_KEY:
		return !stringsOp(target, q.Value(), ic, strings.Contains)
	case types.STARTS_WITH, types.MAP_VAL_STARTS_WITH_BY_KEY:
		return stringsOp(target, q.Value(), ic, strings.HasPrefix)
	case types.ENDS_WITH:
		return stringsOp(target, q.Value(), ic, strings.HasSuffix)
	case types.LIKE, types.MAP_VAL_LIKE_BY_KEY:
		s, sOK := target.(string)
		pattern, pOK := q.Value().(string)
		if !sOK || !pOK {
			return false
		}
		if ic {
			pattern = "(?i)" + pattern
		}
		matched, err := regexp.MatchString(pattern, s)
		return err == nil && matched
	case types.MAP_KEYS_CONTAIN:
		return mapKeysContain(target, q.Value(), ic)
	case types.MAP_KEYS_NOT_CONTAIN:
		return !mapKeysContain(target, q.Value(), ic)
	case types.MAP_VALUES_CONTAIN:
		return mapValuesContain(target, q.Value(), ic)
	case types.MAP_VALUES_NOT_CONTAIN:
		return !mapValuesContain(target, q.Value(), ic)
	case types.COLLECTION_VAL_CONTAINING:
		return listContains(target, q.Value(), ic)
	case types.COLLECTION_VAL_NOT_CONTAINING:
		return !listContains(target, q.Value(), ic)
	case types.COLLECTION_VAL_GT:
		return anyElement(target, func(el any) bool { return compare(el, q.Value()) > 0 })
	case types.COLLECTION_VAL_GTEQ:
		return anyElement(target, func(el any) bool { return compare(el, q.Value()) >= 0 })
	case types.COLLECTION_VAL_LT:
		return anyElement(target, func(el any) bool { return compare(el, q.Value()) < 0 })
	case types.COLLECTION_VAL_LTEQ:
		return anyElement(target, func(el any) bool { return compare(el, q.Value()) <= 0 })
	case types.COLLECTION_VAL_BETWEEN:
		return anyElement(target, func(el any) bool {
			return compare(el, q.Value()) >= 0 && compare(el, q.SecondValue()) <= 0
		})
	}
	return false
}

// navigate walks from the bin through the context path and by-key lookup
// to the comparison target.
func navigate(q *types.Qualifier, bins map[string]any) (any, bool) {
	current, present := bins[q.Path()]
	if !present {
		return nil, false
	}
	for _, el := range q.CTX() {
		current, present = step(current, el)
		if !present {
			return nil, false
		}
	}
	if q.Key() != nil {
		current, present = step(current, types.CTXElement{Kind: types.CTXMapKey, Value: q.Key()})
	}
	return current, present
}

func step(current any, el types.CTXElement) (any, bool) {
	switch el.Kind {
	case types.CTXMapKey:
		return mapLookup(current, el.Value)
	case types.CTXMapValue:
		entries, ok := asEntryMap(current)
		if !ok {
			return nil, false
		}
		for _, v := range entries {
			if equal(v, el.Value, false) {
				return v, true
			}
		}
		return nil, false
	case types.CTXListIndex:
		list, ok := current.([]any)
		idx, idxOK := el.Value.(int)
		if !ok || !idxOK || idx < 0 || idx >= len(list) {
			return nil, false
		}
		return list[idx], true
	case types.CTXListValue:
		list, ok := current.([]any)
		if !ok {
			return nil, false
		}
		for _, v := range list {
			if equal(v, el.Value, false) {
				return v, true
			}
		}
		return nil, false
	}
	// Rank and key-index selectors depend on server-side ordering and are
	// not evaluated client-side.
	return nil, false
}

func mapLookup(current any, key any) (any, bool) {
	switch m := current.(type) {
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, false
		}
		v, present := m[k]
		return v, present
	case map[any]any:
		if v, present := m[key]; present {
			return v, true
		}
		// Integer keys may be stored widened to int64.
		for k, v := range m {
			if equal(k, key, false) {
				return v, true
			}
		}
	}
	return nil, false
}

func asEntryMap(current any) (map[any]any, bool) {
	switch m := current.(type) {
	case map[any]any:
		return m, true
	case map[string]any:
		out := make(map[any]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	}
	return nil, false
}

func equal(a, b any, ignoreCase bool) bool {
	if ignoreCase {
		as, aOK := a.(string)
		bs, bOK := b.(string)
		if aOK && bOK {
			return strings.EqualFold(as, bs)
		}
	}
	if ab, ok := a.([]byte); ok {
		if bb, ok := b.([]byte); ok {
			return bytes.Equal(ab, bb)
		}
	}
	if na, aOK := asNumber(a); aOK {
		if nb, bOK := asNumber(b); bOK {
			return na == nb
		}
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two wire values: numbers numerically, strings and byte
// slices lexicographically. Unordered pairs compare as equal so range
// predicates fail closed on both bounds.
func compare(a, b any) int {
	if na, aOK := asNumber(a); aOK {
		if nb, bOK := asNumber(b); bOK {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	if ba, ok := a.([]byte); ok {
		if bb, ok := b.([]byte); ok {
			return bytes.Compare(ba, bb)
		}
	}
	return 0
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func stringsOp(target, operand any, ignoreCase bool, op func(s, substr string) bool) bool {
	s, sOK := target.(string)
	sub, subOK := operand.(string)
	if !sOK || !subOK {
		return false
	}
	if ignoreCase {
		return op(strings.ToLower(s), strings.ToLower(sub))
	}
	return op(s, sub)
}

func containsValue(collection, candidate any, ignoreCase bool) bool {
	items, ok := collection.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if equal(item, candidate, ignoreCase) {
			return true
		}
	}
	return false
}

func listContains(target, element any, ignoreCase bool) bool {
	list, ok := target.([]any)
	if !ok {
		return false
	}
	for _, el := range list {
		if equal(el, element, ignoreCase) {
			return true
		}
	}
	return false
}

func mapKeysContain(target, key any, ignoreCase bool) bool {
	entries, ok := asEntryMap(target)
	if !ok {
		return false
	}
	for k := range entries {
		if equal(k, key, ignoreCase) {
			return true
		}
	}
	return false
}

func mapValuesContain(target, value any, ignoreCase bool) bool {
	entries, ok := asEntryMap(target)
	if !ok {
		return false
	}
	for _, v := range entries {
		if equal(v, value, ignoreCase) {
			return true
		}
	}
	return false
}

func anyElement(target any, pred func(any) bool) bool {
	list, ok := target.([]any)
	if !ok {
		return false
	}
	for _, el := range list {
		if pred(el) {
			return true
		}
	}
	return false
}
