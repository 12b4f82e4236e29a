package derive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/types"
)

var subjectPrefixes = []struct {
	prefix  string
	subject types.Subject
}{
	{"findBy", types.SubjectFind},
	{"find", types.SubjectFind},
	{"readBy", types.SubjectFind},
	{"read", types.SubjectFind},
	{"getBy", types.SubjectFind},
	{"get", types.SubjectFind},
	{"queryBy", types.SubjectFind},
	{"query", types.SubjectFind},
	{"countBy", types.SubjectCount},
	{"count", types.SubjectCount},
	{"existsBy", types.SubjectExists},
	{"exists", types.SubjectExists},
	{"deleteBy", types.SubjectDelete},
	{"delete", types.SubjectDelete},
	{"removeBy", types.SubjectDelete},
	{"remove", types.SubjectDelete},
}

// ParseMethod parses a derived-query method name against an entity's
// metadata and returns the part tree. The grammar is
//
//	<subject>[Distinct][Top|First[N]]By<predicate>[OrderBy<prop>[Asc|Desc]...]
//
// where predicate is properties and keywords joined by And/Or. Property
// segments resolve against the entity, descending into POJO fields by
// longest camel-case match; an underscore forces a segment boundary.
func ParseMethod(method string, entity *meta.Entity) (*types.PartTree, error) {
	tree := &types.PartTree{Method: method}

	rest, ok := stripSubject(method, tree)
	if !ok {
		return nil, &types.UnsupportedKeywordError{Keyword: firstToken(method), Method: method}
	}

	rest, orderBy := splitOrderBy(rest)
	if orderBy != "" {
		clauses, err := parseOrderBy(orderBy, entity)
		if err != nil {
			return nil, err
		}
		tree.OrderBy = clauses
	}

	if rest == "" {
		if tree.Subject == types.SubjectFind || tree.Subject == types.SubjectCount {
			// findAll-style: no predicate, match everything.
			return tree, nil
		}
		return nil, &types.UnsupportedKeywordError{Keyword: "", Method: method}
	}

	allIgnoreCase := false
	if trimmed, found := strings.CutSuffix(rest, "AllIgnoreCase"); found {
		rest, allIgnoreCase = trimmed, true
	}

	for _, branch := range splitToken(rest, "Or") {
		var group []types.Part
		for _, segment := range splitToken(branch, "And") {
			part, err := parsePart(segment, entity, method)
			if err != nil {
				return nil, err
			}
			if allIgnoreCase && part.IgnoreCase == types.CaseSensitive {
				part.IgnoreCase = types.IgnoreCaseWhenPossible
			}
			group = append(group, part)
		}
		if len(group) == 0 {
			return nil, &types.UnsupportedKeywordError{Keyword: branch, Method: method}
		}
		tree.Groups = append(tree.Groups, group)
	}
	return tree, nil
}

// stripSubject consumes the action prefix and the Distinct/Top/First
// modifiers up to and including "By".
func stripSubject(method string, tree *types.PartTree) (string, bool) {
	for _, sp := range subjectPrefixes {
		if !strings.HasPrefix(method, sp.prefix) {
			continue
		}
		rest := method[len(sp.prefix):]
		tree.Subject = sp.subject
		if strings.HasSuffix(sp.prefix, "By") {
			return rest, true
		}
		if trimmed, found := strings.CutPrefix(rest, "AllBy"); found {
			return trimmed, true
		}
		if rest == "All" {
			rest = ""
		}
		if trimmed, found := strings.CutPrefix(rest, "Distinct"); found {
			tree.Distinct = true
			rest = trimmed
		}
		rest = stripLimit(rest, tree)
		if trimmed, found := strings.CutPrefix(rest, "By"); found {
			return trimmed, true
		}
		if rest == "" && tree.Subject != types.SubjectDelete {
			// findAll / count / exists without criteria.
			return "", true
		}
	}
	return "", false
}

// stripLimit consumes a Top/First modifier with an optional count.
// "First" without a number means 1; "Top" without a number likewise.
func stripLimit(rest string, tree *types.PartTree) string {
	for _, token := range []string{"Top", "First"} {
		trimmed, found := strings.CutPrefix(rest, token)
		if !found {
			continue
		}
		digits := 0
		for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
			digits++
		}
		if digits == 0 {
			tree.Limit = 1
		} else {
			n, err := strconv.Atoi(trimmed[:digits])
			if err != nil || n <= 0 {
				return rest
			}
			tree.Limit = n
		}
		return trimmed[digits:]
	}
	return rest
}

// splitOrderBy splits the predicate from a trailing OrderBy clause, using
// the last occurrence so property names containing "OrderBy" substrings in
// the predicate do not truncate it early.
func splitOrderBy(s string) (predicate, orderBy string) {
	idx := strings.LastIndex(s, "OrderBy")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+len("OrderBy"):]
}

// parseOrderBy parses repeated <Prop>[Asc|Desc] clauses.
func parseOrderBy(s string, entity *meta.Entity) ([]types.OrderClause, error) {
	var clauses []types.OrderClause
	rest := s
	for rest != "" {
		prop, desc, tail, err := nextOrderClause(rest)
		if err != nil {
			return nil, err
		}
		resolved, err := entity.PropertyForSegment(prop)
		if err != nil {
			return nil, fmt.Errorf("derive: order clause %q: %w", prop, err)
		}
		clauses = append(clauses, types.OrderClause{Path: resolved.Path, Descending: desc})
		rest = tail
	}
	return clauses, nil
}

func nextOrderClause(s string) (prop string, desc bool, rest string, err error) {
	for i := 1; i < len(s); i++ {
		if !isUpperByte(s[i]) {
			continue
		}
		if tail, found := strings.CutPrefix(s[i:], "Asc"); found && boundary(tail) {
			return s[:i], false, tail, nil
		}
		if tail, found := strings.CutPrefix(s[i:], "Desc"); found && boundary(tail) {
			return s[:i], true, tail, nil
		}
	}
	// No direction suffix: the whole remainder is one ascending clause.
	return s, false, "", nil
}

func boundary(tail string) bool {
	return tail == "" || isUpperByte(tail[0])
}

// parsePart derives one part from one predicate segment: strip the
// IgnoreCase modifier, strip the longest keyword suffix, resolve the
// remaining property segment against the entity.
func parsePart(segment string, entity *meta.Entity, method string) (types.Part, error) {
	if segment == "" {
		return types.Part{}, &types.UnsupportedKeywordError{Keyword: segment, Method: method}
	}
	ignoreCase := types.CaseSensitive
	if trimmed, found := strings.CutSuffix(segment, "IgnoreCase"); found {
		segment = trimmed
		ignoreCase = types.IgnoreCaseAlways
	}
	property, kw, hasKeyword := matchKeyword(segment)

	resolved, err := entity.PropertyForSegment(property)
	if err != nil {
		if !hasKeyword {
			// No keyword matched and the segment is not a property: the
			// trailing camel humps are an unrecognized keyword.
			if prefix, suffix := splitKnownProperty(segment, entity); prefix != "" {
				return types.Part{}, &types.UnsupportedKeywordError{Keyword: suffix, Method: method}
			}
		}
		return types.Part{}, fmt.Errorf("derive: %s: %w", method, err)
	}
	return types.Part{
		Path:       resolved.Path,
		Keyword:    kw.token,
		Op:         kw.op,
		Arity:      kw.arity,
		IgnoreCase: ignoreCase,
	}, nil
}

// splitKnownProperty finds the longest prefix of segment that resolves to
// an entity property, returning it with the unresolved suffix.
func splitKnownProperty(segment string, entity *meta.Entity) (prefix, suffix string) {
	for i := len(segment) - 1; i > 0; i-- {
		if !isUpperByte(segment[i]) {
			continue
		}
		if _, err := entity.PropertyForSegment(segment[:i]); err == nil {
			return segment[:i], segment[i:]
		}
	}
	return "", segment
}

// splitToken splits s on a conjunction token at camel-case boundaries:
// the token must be followed by an uppercase letter, so property names
// merely containing "And"/"Or" ("Order", "Android") stay intact.
func splitToken(s, token string) []string {
	var parts []string
	start := 0
	for i := 0; i+len(token) < len(s); i++ {
		if i <= start || s[i:i+len(token)] != token {
			continue
		}
		if !isUpperByte(s[i+len(token)]) {
			continue
		}
		parts = append(parts, s[start:i])
		start = i + len(token)
		i = start - 1
	}
	parts = append(parts, s[start:])
	return parts
}

func firstToken(method string) string {
	for i := 1; i < len(method); i++ {
		if isUpperByte(method[i]) {
			return method[:i]
		}
	}
	return method
}

func isUpperByte(b byte) bool { return b >= 'A' && b <= 'Z' }
