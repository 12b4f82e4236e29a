package derive

import (
	"reflect"

	"github.com/binquery/binq/binq/ctxpath"
	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/internal/validation"
	"github.com/binquery/binq/types"
)

// collectionQueryCreator handles list-like properties. It distinguishes
// first-level whole-collection comparisons (generic operator), element
// containment (rewritten to collection-element operators), and collections
// nested inside a POJO (rewritten to map-by-key variants, since the
// collection then lives as one entry of the enclosing POJO map).
type collectionQueryCreator struct {
	part       types.Part
	prop       *meta.Property
	args       []any
	ignoreCase bool
}

func newCollectionQueryCreator(part types.Part, prop *meta.Property, args []any, ignoreCase bool) *collectionQueryCreator {
	return &collectionQueryCreator{part: part, prop: prop, args: args, ignoreCase: ignoreCase}
}

// elemType returns the declared element type of the collection.
func (c *collectionQueryCreator) elemType() reflect.Type {
	t := c.prop.Type
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		return t.Elem()
	}
	return nil
}

func (c *collectionQueryCreator) Validate() error {
	part, op := c.part.Path, c.part.Op
	switch op {
	case types.EQ, types.NOTEQ, types.GT, types.GTEQ, types.LT, types.LTEQ:
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		return validation.ExpectCollectionArg(part, op, c.elemType(), c.args[0])
	case types.CONTAINING, types.NOT_CONTAINING:
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		return validation.ExpectAssignable(part, op, c.elemType(), c.args[0])
	case types.BETWEEN:
		if err := validation.ExpectArgCount(part, op, c.args, 2); err != nil {
			return err
		}
		if err := validation.ExpectCollectionArg(part, op, c.elemType(), c.args[0]); err != nil {
			return err
		}
		if err := validation.ExpectCollectionArg(part, op, c.elemType(), c.args[1]); err != nil {
			return err
		}
		return validation.ExpectSameClass(part, op, c.args[0], c.args[1])
	case types.IN, types.NOT_IN:
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		// The argument is a collection of candidate collections.
		if err := validation.ExpectCollectionArg(part, op, nil, c.args[0]); err != nil {
			return err
		}
		candidates := reflect.ValueOf(c.args[0])
		for i := 0; i < candidates.Len(); i++ {
			el := candidates.Index(i).Interface()
			if err := validation.ExpectCollectionArg(part, op, c.elemType(), el); err != nil {
				return err
			}
		}
		return nil
	case types.IS_NULL, types.IS_NOT_NULL:
		return validation.ExpectArgCount(part, op, c.args, 0)
	default:
		return &types.UnsupportedOperationError{Op: op, Shape: meta.ShapeCollection.String(), Path: part}
	}
}

func (c *collectionQueryCreator) Process() (*types.Qualifier, error) {
	if c.prop.Nested {
		return c.processNested()
	}

	op := c.part.Op
	switch op {
	case types.CONTAINING, types.NOT_CONTAINING:
		// Element-level predicate: the argument is one candidate element,
		// not a whole list.
		rewritten, ok := op.OnCollection()
		if !ok {
			return nil, &types.UnsupportedOperationError{Op: op, Shape: meta.ShapeCollection.String(), Path: c.prop.Path}
		}
		op = rewritten
	}

	spec := types.LeafSpec{
		Op:         op,
		Path:       c.prop.Path,
		IgnoreCase: c.ignoreCase,
	}
	switch c.part.Op.ValueArity() {
	case 1:
		spec.Value = c.args[0]
	case 2:
		spec.Value, spec.SecondValue = c.args[0], c.args[1]
	}
	return types.NewLeaf(spec)
}

// processNested rewrites the operator to its by-key variant: the
// collection is one entry of the enclosing POJO map, so the comparison
// targets that entry.
func (c *collectionQueryCreator) processNested() (*types.Qualifier, error) {
	rewritten, ok := c.part.Op.OnMapKey()
	if !ok {
		return nil, &types.UnsupportedOperationError{Op: c.part.Op, Shape: "nested " + meta.ShapeCollection.String(), Path: c.prop.Path}
	}
	resolved, err := ctxpath.Resolve(c.prop.Path)
	if err != nil {
		return nil, types.NewIllegalArgument(c.prop.Path, c.part.Op, "%v", err)
	}
	spec := types.LeafSpec{
		Op:         rewritten,
		Path:       resolved.Bin,
		CTX:        resolved.CTX,
		Key:        resolved.Terminal,
		IgnoreCase: c.ignoreCase,
	}
	switch c.part.Op.ValueArity() {
	case 1:
		spec.Value = c.args[0]
	case 2:
		spec.Value, spec.SecondValue = c.args[0], c.args[1]
	}
	return types.NewLeaf(spec)
}
