package derive

import (
	"reflect"

	"github.com/binquery/binq/binq/convert"
	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/types"
)

// shapeCreator is the common contract of the per-shape query creators:
// Validate fails fast on arity/type mismatch, Process builds the
// qualifier. Process has no side effects beyond its own builder state, and
// Validate may be called repeatedly without changing the outcome.
type shapeCreator interface {
	Validate() error
	Process() (*types.Qualifier, error)
}

// creator orchestrates qualifier construction: for each part it resolves
// the shape-specific creator, validates, processes, and folds successive
// qualifiers with AND (default) or OR (where the tree was parsed with an
// explicit Or).
type creator struct {
	plan   *Plan
	groups [][]any
}

func newCreator(plan *Plan, groups [][]any) *creator {
	return &creator{plan: plan, groups: groups}
}

func (c *creator) createQuery() (*types.Query, error) {
	tree := c.plan.tree
	idx := 0
	var branches []*types.Qualifier
	for _, group := range tree.Groups {
		var conjuncts []*types.Qualifier
		for _, part := range group {
			q, err := c.qualifierFor(part, c.plan.props[idx], c.groups[idx])
			if err != nil {
				return nil, err
			}
			idx++
			conjuncts = append(conjuncts, q)
		}
		branches = append(branches, fold(types.AND, conjuncts))
	}

	var root *types.Qualifier
	if len(branches) > 0 {
		root = fold(types.OR, branches)
	}
	return types.NewQuery(types.QuerySpec{
		Qualifier: root,
		OrderBy:   tree.OrderBy,
		Limit:     tree.Limit,
		Distinct:  tree.Distinct,
		Subject:   tree.Subject,
	}), nil
}

// fold combines qualifiers under op, leaving a single qualifier as-is so
// one-part queries stay leaves.
func fold(op types.FilterOperation, qs []*types.Qualifier) *types.Qualifier {
	if len(qs) == 1 {
		return qs[0]
	}
	if op == types.OR {
		return types.Or(qs...)
	}
	return types.And(qs...)
}

// qualifierFor converts the part's arguments to their writable form,
// resolves case sensitivity, and dispatches to the creator matching the
// property shape.
func (c *creator) qualifierFor(part types.Part, prop *meta.Property, rawArgs []any) (*types.Qualifier, error) {
	args, err := convertArgs(part, rawArgs)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		if literal, ok := keywordLiteral(part.Keyword); ok {
			args = []any{literal}
		}
	}
	ignoreCase, err := resolveIgnoreCase(part, prop)
	if err != nil {
		return nil, err
	}

	var sc shapeCreator
	switch prop.Shape {
	case meta.ShapeID:
		sc = newIDQueryCreator(part, prop, args)
	case meta.ShapeCollection:
		sc = newCollectionQueryCreator(part, prop, args, ignoreCase)
	case meta.ShapeMap:
		sc = newMapQueryCreator(part, prop, args, ignoreCase)
	case meta.ShapePOJO:
		sc = newPojoQueryCreator(part, prop, args)
	default:
		sc = newSimplePropertyQueryCreator(part, prop, args, ignoreCase)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc.Process()
}

// convertArgs rewrites each argument into its writable form. Map criteria
// discriminators structure the part rather than carry a value and pass
// through untouched.
func convertArgs(part types.Part, rawArgs []any) ([]any, error) {
	args := make([]any, len(rawArgs))
	for i, raw := range rawArgs {
		if criteria, ok := raw.(types.MapCriteria); ok {
			args[i] = criteria
			continue
		}
		converted, err := convert.ToWritable(raw)
		if err != nil {
			return nil, types.NewIllegalArgument(part.Path, part.Op, "argument %d: %v", i, err)
		}
		args[i] = converted
	}
	return args, nil
}

// keywordLiteral returns the implicit operand of operand-embedding
// keywords (True/False).
func keywordLiteral(kw string) (any, bool) {
	switch kw {
	case "True", "IsTrue":
		return true, true
	case "False", "IsFalse":
		return false, true
	}
	return nil, false
}

// resolveIgnoreCase maps the part's case mode onto the property: Always
// forces case-insensitivity and rejects non-textual targets, WhenPossible
// applies only to textual ones, the default is case-sensitive. The textual
// check looks at what the comparison actually touches: elements for
// collections, values for maps.
func resolveIgnoreCase(part types.Part, prop *meta.Property) (bool, error) {
	textual := convert.IsTextual(comparedType(prop.Type))
	switch part.IgnoreCase {
	case types.IgnoreCaseAlways:
		if !textual {
			return false, types.NewIllegalArgument(part.Path, part.Op,
				"IgnoreCase requires a string property, got %s", prop.Type)
		}
		return true, nil
	case types.IgnoreCaseWhenPossible:
		return textual, nil
	default:
		return false, nil
	}
}

// comparedType returns the type case-insensitive comparison would touch:
// the element type of slices and arrays (byte slices excepted, those
// compare as blobs), the value type of maps, the type itself otherwise.
func comparedType(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() != reflect.Uint8 {
			return t.Elem()
		}
	case reflect.Map:
		return t.Elem()
	}
	return t
}
