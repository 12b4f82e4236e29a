package types

import (
	"fmt"
	"strings"
)

// Qualifier is an immutable predicate node: either a leaf comparison over
// a bin (or a nested entry of one), or an AND/OR composite over child
// qualifiers. Trees are built once per query invocation and never mutated;
// composition always produces a new node.
type Qualifier struct {
	op          FilterOperation
	path        string
	ctx         []CTXElement
	key         any
	value       any
	secondValue any
	ignoreCase  bool
	children    []*Qualifier
	indexHint   string
	id          bool
}

// LeafSpec collects the slots of a leaf qualifier. Exactly the slots the
// operation requires must be populated; NewLeaf enforces arity.
type LeafSpec struct {
	Op          FilterOperation
	Path        string
	CTX         []CTXElement
	Key         any
	Value       any
	SecondValue any
	IgnoreCase  bool
	IndexHint   string
}

// NewLeaf builds a leaf qualifier, validating that the value slots match
// the operation's arity. Composite operations are rejected.
func NewLeaf(spec LeafSpec) (*Qualifier, error) {
	if spec.Op == Invalid {
		return nil, NewIllegalArgument(spec.Path, spec.Op, "missing operation")
	}
	if spec.Op.IsComposite() {
		return nil, NewIllegalArgument(spec.Path, spec.Op, "%s is not a leaf operation", spec.Op)
	}
	switch spec.Op.ValueArity() {
	case 0:
		if spec.Value != nil || spec.SecondValue != nil {
			return nil, NewIllegalArgument(spec.Path, spec.Op, "operation takes no value, got one")
		}
	case 1:
		if spec.Value == nil {
			return nil, NewIllegalArgument(spec.Path, spec.Op, "operation requires a value")
		}
		if spec.SecondValue != nil {
			return nil, NewIllegalArgument(spec.Path, spec.Op, "operation takes a single value, got two")
		}
	case 2:
		if spec.Value == nil || spec.SecondValue == nil {
			return nil, NewIllegalArgument(spec.Path, spec.Op, "operation requires exactly two values")
		}
	}
	q := &Qualifier{
		op:          spec.Op,
		path:        spec.Path,
		key:         spec.Key,
		value:       spec.Value,
		secondValue: spec.SecondValue,
		ignoreCase:  spec.IgnoreCase,
		indexHint:   spec.IndexHint,
	}
	if len(spec.CTX) > 0 {
		q.ctx = append([]CTXElement(nil), spec.CTX...)
	}
	return q, nil
}

// MustLeaf is NewLeaf for construction sites where the spec is statically
// known to be valid (tests, fixtures).
func MustLeaf(spec LeafSpec) *Qualifier {
	q, err := NewLeaf(spec)
	if err != nil {
		panic(err)
	}
	return q
}

// NewIDLeaf builds a primary-key qualifier. Id qualifiers are ordinary
// leaves marked structurally so that execution dispatch can recognize the
// key-lookup fast path. Only EQ, IN and LIKE are meaningful on ids.
func NewIDLeaf(op FilterOperation, value any) (*Qualifier, error) {
	q, err := NewLeaf(LeafSpec{Op: op, Value: value})
	if err != nil {
		return nil, err
	}
	q.id = true
	return q, nil
}

// And combines qualifiers under a new AND node. It panics on an empty
// child list: composites require at least one child.
func And(children ...*Qualifier) *Qualifier {
	return composite(AND, children)
}

// Or combines qualifiers under a new OR node.
func Or(children ...*Qualifier) *Qualifier {
	return composite(OR, children)
}

func composite(op FilterOperation, children []*Qualifier) *Qualifier {
	if len(children) == 0 {
		panic(fmt.Sprintf("qualifier: %s requires at least one child", op))
	}
	return &Qualifier{op: op, children: append([]*Qualifier(nil), children...)}
}

// Op returns the node's operation.
func (q *Qualifier) Op() FilterOperation { return q.op }

// Path returns the target bin name. Empty for composites and id leaves.
func (q *Qualifier) Path() string { return q.path }

// CTX returns a copy of the nested context path.
func (q *Qualifier) CTX() []CTXElement {
	if len(q.ctx) == 0 {
		return nil
	}
	return append([]CTXElement(nil), q.ctx...)
}

// Key returns the map key for by-key operations, nil otherwise.
func (q *Qualifier) Key() any { return q.key }

// Value returns the primary comparison value.
func (q *Qualifier) Value() any { return q.value }

// SecondValue returns the range upper bound for BETWEEN-family operations.
func (q *Qualifier) SecondValue() any { return q.secondValue }

// IgnoreCase reports whether string comparison is case-insensitive.
func (q *Qualifier) IgnoreCase() bool { return q.ignoreCase }

// IndexHint returns an explicit secondary-index name, empty when selection
// is left to the cardinality heuristic.
func (q *Qualifier) IndexHint() string { return q.indexHint }

// IsID reports whether the leaf targets the primary key.
func (q *Qualifier) IsID() bool { return q.id }

// IsComposite reports whether the node is an AND/OR composite.
func (q *Qualifier) IsComposite() bool { return q.op.IsComposite() }

// Children returns a copy of the child list. Empty for leaves.
func (q *Qualifier) Children() []*Qualifier {
	if len(q.children) == 0 {
		return nil
	}
	return append([]*Qualifier(nil), q.children...)
}

// Leaves returns all leaf qualifiers in pre-order. The order is the
// tie-break order for index selection.
func (q *Qualifier) Leaves() []*Qualifier {
	if !q.IsComposite() {
		return []*Qualifier{q}
	}
	var leaves []*Qualifier
	for _, child := range q.children {
		leaves = append(leaves, child.Leaves()...)
	}
	return leaves
}

// WithIndexHint returns a copy of the qualifier carrying an explicit
// secondary-index name. The receiver is unchanged.
func (q *Qualifier) WithIndexHint(name string) *Qualifier {
	clone := *q
	clone.indexHint = name
	return &clone
}

// String renders the tree for logs and the explain command.
func (q *Qualifier) String() string {
	var b strings.Builder
	q.render(&b)
	return b.String()
}

func (q *Qualifier) render(b *strings.Builder) {
	if q.IsComposite() {
		b.WriteString(q.op.String())
		b.WriteString("(")
		for i, child := range q.children {
			if i > 0 {
				b.WriteString(", ")
			}
			child.render(b)
		}
		b.WriteString(")")
		return
	}
	if q.id {
		fmt.Fprintf(b, "id %s %v", q.op, q.value)
		return
	}
	b.WriteString(q.path)
	for _, el := range q.ctx {
		fmt.Fprintf(b, ".%s", el)
	}
	fmt.Fprintf(b, " %s", q.op)
	if q.key != nil {
		fmt.Fprintf(b, " key=%v", q.key)
	}
	if q.op.ValueArity() >= 1 {
		fmt.Fprintf(b, " %v", q.value)
	}
	if q.op.ValueArity() == 2 {
		fmt.Fprintf(b, " %v", q.secondValue)
	}
}
