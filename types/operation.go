package types

import "fmt"

// FilterOperation identifies a single predicate operator supported by the
// qualifier tree. Leaf qualifiers carry exactly one operation; AND and OR
// are reserved for composite nodes.
type FilterOperation int

const (
	// Invalid is the zero value and never appears in a built qualifier.
	Invalid FilterOperation = iota

	EQ
	NOTEQ
	GT
	GTEQ
	LT
	LTEQ
	BETWEEN
	IN
	NOT_IN
	CONTAINING
	NOT_CONTAINING
	STARTS_WITH
	ENDS_WITH
	LIKE
	IS_NULL
	IS_NOT_NULL
	GEO_WITHIN

	// By-key variants target one entry of a map-encoded structure rather
	// than the structure as a whole.
	MAP_VAL_EQ_BY_KEY
	MAP_VAL_NOTEQ_BY_KEY
	MAP_VAL_GT_BY_KEY
	MAP_VAL_GTEQ_BY_KEY
	MAP_VAL_LT_BY_KEY
	MAP_VAL_LTEQ_BY_KEY
	MAP_VAL_BETWEEN_BY_KEY
	MAP_VAL_CONTAINING_BY_KEY
	MAP_VAL_NOT_CONTAINING_BY_KEY
	MAP_VAL_IS_NULL_BY_KEY
	MAP_VAL_IS_NOT_NULL_BY_KEY
	MAP_VAL_STARTS_WITH_BY_KEY
	MAP_VAL_LIKE_BY_KEY

	MAP_KEYS_CONTAIN
	MAP_KEYS_NOT_CONTAIN
	MAP_VALUES_CONTAIN
	MAP_VALUES_NOT_CONTAIN

	COLLECTION_VAL_CONTAINING
	COLLECTION_VAL_NOT_CONTAINING
	COLLECTION_VAL_GT
	COLLECTION_VAL_GTEQ
	COLLECTION_VAL_LT
	COLLECTION_VAL_LTEQ
	COLLECTION_VAL_BETWEEN

	AND
	OR
)

var operationNames = map[FilterOperation]string{
	EQ:                            "EQ",
	NOTEQ:                         "NOTEQ",
	GT:                            "GT",
	GTEQ:                          "GTEQ",
	LT:                            "LT",
	LTEQ:                          "LTEQ",
	BETWEEN:                       "BETWEEN",
	IN:                            "IN",
	NOT_IN:                        "NOT_IN",
	CONTAINING:                    "CONTAINING",
	NOT_CONTAINING:                "NOT_CONTAINING",
	STARTS_WITH:                   "STARTS_WITH",
	ENDS_WITH:                     "ENDS_WITH",
	LIKE:                          "LIKE",
	IS_NULL:                       "IS_NULL",
	IS_NOT_NULL:                   "IS_NOT_NULL",
	GEO_WITHIN:                    "GEO_WITHIN",
	MAP_VAL_EQ_BY_KEY:             "MAP_VAL_EQ_BY_KEY",
	MAP_VAL_NOTEQ_BY_KEY:          "MAP_VAL_NOTEQ_BY_KEY",
	MAP_VAL_GT_BY_KEY:             "MAP_VAL_GT_BY_KEY",
	MAP_VAL_GTEQ_BY_KEY:           "MAP_VAL_GTEQ_BY_KEY",
	MAP_VAL_LT_BY_KEY:             "MAP_VAL_LT_BY_KEY",
	MAP_VAL_LTEQ_BY_KEY:           "MAP_VAL_LTEQ_BY_KEY",
	MAP_VAL_BETWEEN_BY_KEY:        "MAP_VAL_BETWEEN_BY_KEY",
	MAP_VAL_CONTAINING_BY_KEY:     "MAP_VAL_CONTAINING_BY_KEY",
	MAP_VAL_NOT_CONTAINING_BY_KEY: "MAP_VAL_NOT_CONTAINING_BY_KEY",
	MAP_VAL_IS_NULL_BY_KEY:        "MAP_VAL_IS_NULL_BY_KEY",
	MAP_VAL_IS_NOT_NULL_BY_KEY:    "MAP_VAL_IS_NOT_NULL_BY_KEY",
	MAP_VAL_STARTS_WITH_BY_KEY:    "MAP_VAL_STARTS_WITH_BY_KEY",
	MAP_VAL_LIKE_BY_KEY:           "MAP_VAL_LIKE_BY_KEY",
	MAP_KEYS_CONTAIN:              "MAP_KEYS_CONTAIN",
	MAP_KEYS_NOT_CONTAIN:          "MAP_KEYS_NOT_CONTAIN",
	MAP_VALUES_CONTAIN:            "MAP_VALUES_CONTAIN",
	MAP_VALUES_NOT_CONTAIN:        "MAP_VALUES_NOT_CONTAIN",
	COLLECTION_VAL_CONTAINING:     "COLLECTION_VAL_CONTAINING",
	COLLECTION_VAL_NOT_CONTAINING: "COLLECTION_VAL_NOT_CONTAINING",
	COLLECTION_VAL_GT:             "COLLECTION_VAL_GT",
	COLLECTION_VAL_GTEQ:           "COLLECTION_VAL_GTEQ",
	COLLECTION_VAL_LT:             "COLLECTION_VAL_LT",
	COLLECTION_VAL_LTEQ:           "COLLECTION_VAL_LTEQ",
	COLLECTION_VAL_BETWEEN:        "COLLECTION_VAL_BETWEEN",
	AND:                           "AND",
	OR:                            "OR",
}

func (op FilterOperation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("FilterOperation(%d)", int(op))
}

// IsComposite reports whether the operation combines child qualifiers
// rather than comparing a value.
func (op FilterOperation) IsComposite() bool {
	return op == AND || op == OR
}

// onMapKey maps a generic operation to its by-key counterpart, used when
// the comparison target is one entry of a map-encoded structure (a nested
// POJO field, or a collection/map stored inside a POJO).
var onMapKey = map[FilterOperation]FilterOperation{
	EQ:             MAP_VAL_EQ_BY_KEY,
	NOTEQ:          MAP_VAL_NOTEQ_BY_KEY,
	GT:             MAP_VAL_GT_BY_KEY,
	GTEQ:           MAP_VAL_GTEQ_BY_KEY,
	LT:             MAP_VAL_LT_BY_KEY,
	LTEQ:           MAP_VAL_LTEQ_BY_KEY,
	BETWEEN:        MAP_VAL_BETWEEN_BY_KEY,
	CONTAINING:     MAP_VAL_CONTAINING_BY_KEY,
	NOT_CONTAINING: MAP_VAL_NOT_CONTAINING_BY_KEY,
	IS_NULL:        MAP_VAL_IS_NULL_BY_KEY,
	IS_NOT_NULL:    MAP_VAL_IS_NOT_NULL_BY_KEY,
	STARTS_WITH:    MAP_VAL_STARTS_WITH_BY_KEY,
	LIKE:           MAP_VAL_LIKE_BY_KEY,
}

// OnMapKey returns the by-key variant of op. The second return is false
// when op has no by-key counterpart.
func (op FilterOperation) OnMapKey() (FilterOperation, bool) {
	rewritten, ok := onMapKey[op]
	return rewritten, ok
}

// onCollection maps a generic operation to its collection-element
// counterpart, used for element-level predicates on list-like bins.
var onCollection = map[FilterOperation]FilterOperation{
	CONTAINING:     COLLECTION_VAL_CONTAINING,
	NOT_CONTAINING: COLLECTION_VAL_NOT_CONTAINING,
	GT:             COLLECTION_VAL_GT,
	GTEQ:           COLLECTION_VAL_GTEQ,
	LT:             COLLECTION_VAL_LT,
	LTEQ:           COLLECTION_VAL_LTEQ,
	BETWEEN:        COLLECTION_VAL_BETWEEN,
}

// OnCollection returns the collection-element variant of op. The second
// return is false when op has no such counterpart.
func (op FilterOperation) OnCollection() (FilterOperation, bool) {
	rewritten, ok := onCollection[op]
	return rewritten, ok
}

// HasSecondValue reports whether the operation carries a second value slot
// (range upper bound).
func (op FilterOperation) HasSecondValue() bool {
	switch op {
	case BETWEEN, MAP_VAL_BETWEEN_BY_KEY, COLLECTION_VAL_BETWEEN:
		return true
	}
	return false
}

// ValueArity returns the number of value slots the operation requires on a
// leaf qualifier (not counting a map key).
func (op FilterOperation) ValueArity() int {
	switch {
	case op.IsComposite():
		return 0
	case op == IS_NULL, op == IS_NOT_NULL,
		op == MAP_VAL_IS_NULL_BY_KEY, op == MAP_VAL_IS_NOT_NULL_BY_KEY:
		return 0
	case op.HasSecondValue():
		return 2
	default:
		return 1
	}
}
