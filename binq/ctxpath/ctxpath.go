// Package ctxpath decomposes dotted property paths into the structured
// context the client consumes for nested lookups.
//
// A path like "friend.address.zipCode" splits into the top-level bin
// ("friend"), interior context selectors ("address" as a map key), and the
// terminal lookup key ("zipCode"). Interior segments follow an infix
// grammar for non-key selectors:
//
//	name    map key by name
//	{3}     map key by index
//	{=v}    map value
//	{#2}    map rank
//	[3]     list index
//	[=v]    list value
//	[#-1]   list rank
package ctxpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/binquery/binq/types"
)

// Resolved is the decomposition of a dotted path.
type Resolved struct {
	// Bin is the top-level bin name (the first segment).
	Bin string
	// CTX holds the interior segments as typed selectors. Empty for
	// single- and two-segment paths.
	CTX []types.CTXElement
	// Terminal is the last segment, used as the final by-key lookup.
	// Empty for single-segment paths, where the comparison applies
	// directly at the bin level.
	Terminal string
}

// Resolve splits a dotted path into bin, context and terminal key. The
// first segment becomes the bin and the last the terminal key; only the
// interior segments contribute context selectors.
func Resolve(path string) (Resolved, error) {
	if path == "" {
		return Resolved{}, fmt.Errorf("ctxpath: empty path")
	}
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if seg == "" {
			return Resolved{}, fmt.Errorf("ctxpath: empty segment %d in %q", i, path)
		}
	}
	out := Resolved{Bin: segments[0]}
	if len(segments) == 1 {
		return out, nil
	}
	out.Terminal = segments[len(segments)-1]
	for _, seg := range segments[1 : len(segments)-1] {
		el, err := parseSegment(seg)
		if err != nil {
			return Resolved{}, fmt.Errorf("ctxpath: %q: %w", path, err)
		}
		out.CTX = append(out.CTX, el)
	}
	return out, nil
}

// parseSegment resolves one interior segment into a typed selector
// following the infix notation. A bare name is a map key.
func parseSegment(seg string) (types.CTXElement, error) {
	switch {
	case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
		return parseMapSelector(seg[1 : len(seg)-1])
	case strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]"):
		return parseListSelector(seg[1 : len(seg)-1])
	case strings.ContainsAny(seg, "{}[]"):
		return types.CTXElement{}, fmt.Errorf("malformed selector %q", seg)
	default:
		return types.MapKey(seg), nil
	}
}

func parseMapSelector(body string) (types.CTXElement, error) {
	switch {
	case body == "":
		return types.CTXElement{}, fmt.Errorf("empty map selector")
	case strings.HasPrefix(body, "="):
		return types.MapValue(literal(body[1:])), nil
	case strings.HasPrefix(body, "#"):
		rank, err := strconv.Atoi(body[1:])
		if err != nil {
			return types.CTXElement{}, fmt.Errorf("map rank %q: %w", body, err)
		}
		return types.MapRank(rank), nil
	default:
		idx, err := strconv.Atoi(body)
		if err != nil {
			return types.CTXElement{}, fmt.Errorf("map key index %q: %w", body, err)
		}
		return types.MapKeyIndex(idx), nil
	}
}

func parseListSelector(body string) (types.CTXElement, error) {
	switch {
	case body == "":
		return types.CTXElement{}, fmt.Errorf("empty list selector")
	case strings.HasPrefix(body, "="):
		return types.ListValue(literal(body[1:])), nil
	case strings.HasPrefix(body, "#"):
		rank, err := strconv.Atoi(body[1:])
		if err != nil {
			return types.CTXElement{}, fmt.Errorf("list rank %q: %w", body, err)
		}
		return types.ListRank(rank), nil
	default:
		idx, err := strconv.Atoi(body)
		if err != nil {
			return types.CTXElement{}, fmt.Errorf("list index %q: %w", body, err)
		}
		return types.ListIndex(idx), nil
	}
}

// literal interprets a selector operand: integers stay integers,
// everything else is a string.
func literal(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
