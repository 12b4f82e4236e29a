package types

import "fmt"

// CTXKind selects which part of a nested structure a context element
// navigates into.
type CTXKind int

const (
	CTXMapKey CTXKind = iota
	CTXMapKeyIndex
	CTXMapValue
	CTXMapRank
	CTXListIndex
	CTXListValue
	CTXListRank
)

var ctxKindNames = map[CTXKind]string{
	CTXMapKey:      "map-key",
	CTXMapKeyIndex: "map-key-index",
	CTXMapValue:    "map-value",
	CTXMapRank:     "map-rank",
	CTXListIndex:   "list-index",
	CTXListValue:   "list-value",
	CTXListRank:    "list-rank",
}

func (k CTXKind) String() string {
	if name, ok := ctxKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CTXKind(%d)", int(k))
}

// CTXElement is one selector in a context path: it navigates one level
// into a nested map or list value on the way to the comparison target.
type CTXElement struct {
	Kind CTXKind
	// Value holds the selector operand: the key name for CTXMapKey, the
	// matched value for CTXMapValue/CTXListValue, or the integer
	// index/rank for the index and rank kinds.
	Value any
}

func (e CTXElement) String() string {
	return fmt.Sprintf("%s(%v)", e.Kind, e.Value)
}

// MapKey returns a context element selecting a map entry by key name.
func MapKey(name string) CTXElement { return CTXElement{Kind: CTXMapKey, Value: name} }

// MapKeyIndex returns a context element selecting a map entry by key order.
func MapKeyIndex(i int) CTXElement { return CTXElement{Kind: CTXMapKeyIndex, Value: i} }

// MapValue returns a context element selecting a map entry by value.
func MapValue(v any) CTXElement { return CTXElement{Kind: CTXMapValue, Value: v} }

// MapRank returns a context element selecting a map entry by value rank.
func MapRank(r int) CTXElement { return CTXElement{Kind: CTXMapRank, Value: r} }

// ListIndex returns a context element selecting a list element by position.
func ListIndex(i int) CTXElement { return CTXElement{Kind: CTXListIndex, Value: i} }

// ListValue returns a context element selecting a list element by value.
func ListValue(v any) CTXElement { return CTXElement{Kind: CTXListValue, Value: v} }

// ListRank returns a context element selecting a list element by rank.
func ListRank(r int) CTXElement { return CTXElement{Kind: CTXListRank, Value: r} }
