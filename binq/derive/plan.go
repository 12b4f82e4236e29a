package derive

import (
	"fmt"
	"reflect"

	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/types"
)

// Plan is the derivation plan for one query method: the parsed part tree
// plus the resolved property metadata per part. A plan carries no argument
// values, so the surrounding repository layer may cache it per method
// signature and bind fresh arguments on every invocation.
type Plan struct {
	entity *meta.Entity
	tree   *types.PartTree
	// props parallels tree.Parts() in declaration order.
	props []*meta.Property
}

// NewPlan parses a method name against an entity type and resolves every
// part's property metadata.
func NewPlan(method string, entity *meta.Entity) (*Plan, error) {
	tree, err := ParseMethod(method, entity)
	if err != nil {
		return nil, err
	}
	plan := &Plan{entity: entity, tree: tree}
	for _, part := range tree.Parts() {
		prop, err := entity.Property(part.Path)
		if err != nil {
			return nil, fmt.Errorf("derive: %s: %w", method, err)
		}
		plan.props = append(plan.props, prop)
	}
	return plan, nil
}

// PlanFor is NewPlan over a Go type.
func PlanFor[T any](method string) (*Plan, error) {
	entity, err := meta.Parse(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return NewPlan(method, entity)
}

// Tree returns the parsed part tree.
func (p *Plan) Tree() *types.PartTree { return p.tree }

// Entity returns the entity metadata the plan was derived against.
func (p *Plan) Entity() *meta.Entity { return p.entity }

// Bind distributes flat positional arguments over the parts and builds
// the query. A single-part plan receives all arguments; a multi-part plan
// splits them by each part's nominal arity and rejects a mismatched total,
// because variable-arity parts make flat positional binding ambiguous —
// use BindGrouped for those.
func (p *Plan) Bind(args ...any) (*types.Query, error) {
	parts := p.tree.Parts()
	groups := make([][]any, len(parts))
	switch {
	case len(parts) == 0:
		if len(args) != 0 {
			return nil, types.NewIllegalArgument(p.tree.Method, types.Invalid,
				"method takes no arguments, got %d", len(args))
		}
	case len(parts) == 1:
		groups[0] = args
	default:
		if p.tree.TotalArity() != len(args) {
			return nil, types.NewIllegalArgument(p.tree.Method, types.Invalid,
				"expecting %d argument(s) for %d parts, got %d; use grouped binding for variable-arity parts",
				p.tree.TotalArity(), len(parts), len(args))
		}
		next := 0
		for i, part := range parts {
			groups[i] = args[next : next+part.Arity]
			next += part.Arity
		}
	}
	return p.BindGrouped(groups)
}

// BindGrouped builds the query from explicit per-part argument groups in
// part declaration order, disambiguating argument counts for combined
// queries regardless of global parameter ordering.
func (p *Plan) BindGrouped(groups [][]any) (*types.Query, error) {
	parts := p.tree.Parts()
	if len(groups) != len(parts) {
		return nil, types.NewIllegalArgument(p.tree.Method, types.Invalid,
			"expecting %d argument group(s), got %d", len(parts), len(groups))
	}
	creator := newCreator(p, groups)
	return creator.createQuery()
}
