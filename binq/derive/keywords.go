// Package derive parses repository method names into part trees and
// compiles them into qualifier trees, dispatching each part to the query
// creator matching the property's shape.
package derive

import "github.com/binquery/binq/types"

// keyword is one entry of the fixed method-name derivation table.
type keyword struct {
	token string
	op    types.FilterOperation
	// arity is the nominal number of method arguments the keyword
	// consumes; shape creators may accept more (map containment carries a
	// discriminator) or fewer.
	arity int
	// literal is the synthesized argument for keywords that embed their
	// operand (True/False).
	literal any
}

// keywords lists all recognized predicate keywords, longest token first so
// that greedy suffix matching picks GreaterThanEqual before GreaterThan
// and IsNotNull before Not. The table is total and static: a token not
// found here (and not plain equality) is an UnsupportedKeywordError.
var keywords = []keyword{
	{token: "GreaterThanEqual", op: types.GTEQ, arity: 1},
	{token: "IsGreaterThanEqual", op: types.GTEQ, arity: 1},
	{token: "IsLessThanEqual", op: types.LTEQ, arity: 1},
	{token: "LessThanEqual", op: types.LTEQ, arity: 1},
	{token: "IsGreaterThan", op: types.GT, arity: 1},
	{token: "GreaterThan", op: types.GT, arity: 1},
	{token: "IsLessThan", op: types.LT, arity: 1},
	{token: "LessThan", op: types.LT, arity: 1},
	{token: "IsNotContaining", op: types.NOT_CONTAINING, arity: 1},
	{token: "NotContaining", op: types.NOT_CONTAINING, arity: 1},
	{token: "NotContains", op: types.NOT_CONTAINING, arity: 1},
	{token: "IsContaining", op: types.CONTAINING, arity: 1},
	{token: "Containing", op: types.CONTAINING, arity: 1},
	{token: "Contains", op: types.CONTAINING, arity: 1},
	{token: "IsStartingWith", op: types.STARTS_WITH, arity: 1},
	{token: "StartingWith", op: types.STARTS_WITH, arity: 1},
	{token: "StartsWith", op: types.STARTS_WITH, arity: 1},
	{token: "IsEndingWith", op: types.ENDS_WITH, arity: 1},
	{token: "EndingWith", op: types.ENDS_WITH, arity: 1},
	{token: "EndsWith", op: types.ENDS_WITH, arity: 1},
	{token: "IsNotNull", op: types.IS_NOT_NULL, arity: 0},
	{token: "NotNull", op: types.IS_NOT_NULL, arity: 0},
	{token: "IsNull", op: types.IS_NULL, arity: 0},
	{token: "Null", op: types.IS_NULL, arity: 0},
	{token: "IsBetween", op: types.BETWEEN, arity: 2},
	{token: "Between", op: types.BETWEEN, arity: 2},
	{token: "IsNotIn", op: types.NOT_IN, arity: 1},
	{token: "NotIn", op: types.NOT_IN, arity: 1},
	{token: "IsIn", op: types.IN, arity: 1},
	{token: "In", op: types.IN, arity: 1},
	{token: "IsTrue", op: types.EQ, arity: 0, literal: true},
	{token: "True", op: types.EQ, arity: 0, literal: true},
	{token: "IsFalse", op: types.EQ, arity: 0, literal: false},
	{token: "False", op: types.EQ, arity: 0, literal: false},
	{token: "IsLike", op: types.LIKE, arity: 1},
	{token: "Like", op: types.LIKE, arity: 1},
	{token: "IsWithin", op: types.GEO_WITHIN, arity: 1},
	{token: "Within", op: types.GEO_WITHIN, arity: 1},
	{token: "Before", op: types.LT, arity: 1},
	{token: "IsBefore", op: types.LT, arity: 1},
	{token: "After", op: types.GT, arity: 1},
	{token: "IsAfter", op: types.GT, arity: 1},
	{token: "IsNot", op: types.NOTEQ, arity: 1},
	{token: "Not", op: types.NOTEQ, arity: 1},
	{token: "Equals", op: types.EQ, arity: 1},
	{token: "Is", op: types.EQ, arity: 1},
}

// KeywordInfo describes one recognized predicate keyword for tooling.
type KeywordInfo struct {
	Token string
	Op    types.FilterOperation
	Arity int
}

// Keywords lists the recognized predicate keywords in matching-priority
// order.
func Keywords() []KeywordInfo {
	out := make([]KeywordInfo, len(keywords))
	for i, k := range keywords {
		out[i] = KeywordInfo{Token: k.token, Op: k.op, Arity: k.arity}
	}
	return out
}

// matchKeyword strips the longest matching keyword suffix from a
// predicate segment. The remainder is the property segment. found is
// false for plain equality (no keyword suffix).
func matchKeyword(segment string) (property string, kw keyword, found bool) {
	best := -1
	for i, k := range keywords {
		if len(segment) <= len(k.token) {
			continue
		}
		if segment[len(segment)-len(k.token):] != k.token {
			continue
		}
		if best == -1 || len(k.token) > len(keywords[best].token) {
			best = i
		}
	}
	if best == -1 {
		return segment, keyword{op: types.EQ, arity: 1}, false
	}
	k := keywords[best]
	return segment[:len(segment)-len(k.token)], k, true
}
