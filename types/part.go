package types

// Subject is the action prefix of a derived query method.
type Subject int

const (
	SubjectFind Subject = iota
	SubjectCount
	SubjectExists
	SubjectDelete
)

func (s Subject) String() string {
	switch s {
	case SubjectFind:
		return "find"
	case SubjectCount:
		return "count"
	case SubjectExists:
		return "exists"
	case SubjectDelete:
		return "delete"
	}
	return "unknown"
}

// IgnoreCaseMode controls case sensitivity of textual comparisons for one
// part.
type IgnoreCaseMode int

const (
	// CaseSensitive is the default: compare exactly as given.
	CaseSensitive IgnoreCaseMode = iota
	// IgnoreCaseAlways forces case-insensitive comparison and fails on
	// non-textual properties.
	IgnoreCaseAlways
	// IgnoreCaseWhenPossible applies case-insensitivity only if the
	// property type is textual, and is silently ignored otherwise.
	IgnoreCaseWhenPossible
)

// Part is one predicate of a parsed method name: a property path, the
// keyword that followed it, the generic operation the keyword maps to, and
// how many method arguments the part consumes.
type Part struct {
	// Path is the resolved dotted property path, e.g. "friend.address.zipCode".
	Path string
	// Keyword is the raw method-name keyword, e.g. "GreaterThan". Empty
	// for implicit equality.
	Keyword string
	// Op is the generic operation derived from the keyword. Shape-specific
	// variants (by-key, collection-element) are resolved by the creators,
	// not here.
	Op FilterOperation
	// Arity is the number of positional arguments the part consumes.
	// Boolean True/False keywords consume zero and synthesize a literal.
	Arity int
	// IgnoreCase is the per-part case mode.
	IgnoreCase IgnoreCaseMode
}

// OrderClause is one sort key of an OrderBy suffix.
type OrderClause struct {
	Path       string
	Descending bool
}

// PartTree is the parsed structure of a derived query method: OR-groups of
// AND-parts plus the subject and result modifiers. It is ephemeral input
// to query creation, consumed exactly once per invocation; the surrounding
// repository layer may cache it as part of a derivation plan.
type PartTree struct {
	Method   string
	Subject  Subject
	Distinct bool
	// Limit is the Top/First N modifier; zero means unlimited.
	Limit int
	// Groups is the OR-level: each group is a list of parts combined with
	// AND; groups are combined with OR.
	Groups  [][]Part
	OrderBy []OrderClause
}

// Parts returns all parts in declaration order, flattening OR groups.
func (t *PartTree) Parts() []Part {
	var parts []Part
	for _, group := range t.Groups {
		parts = append(parts, group...)
	}
	return parts
}

// TotalArity returns the number of positional arguments the whole tree
// consumes.
func (t *PartTree) TotalArity() int {
	total := 0
	for _, part := range t.Parts() {
		total += part.Arity
	}
	return total
}
