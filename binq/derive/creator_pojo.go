package derive

import (
	"github.com/binquery/binq/binq/ctxpath"
	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/internal/validation"
	"github.com/binquery/binq/types"
)

// pojoQueryCreator handles struct-typed properties, which are map-encoded
// at the wire level. Containment is rejected outright: querying into an
// opaque struct's sub-fields must go through explicit nested-field query
// methods, since the struct-to-map projection is not re-derived here.
type pojoQueryCreator struct {
	part types.Part
	prop *meta.Property
	args []any
}

func newPojoQueryCreator(part types.Part, prop *meta.Property, args []any) *pojoQueryCreator {
	return &pojoQueryCreator{part: part, prop: prop, args: args}
}

func (c *pojoQueryCreator) Validate() error {
	part, op := c.part.Path, c.part.Op
	switch op {
	case types.CONTAINING, types.NOT_CONTAINING:
		return &types.UnsupportedOperationError{Op: op, Shape: meta.ShapePOJO.String(), Path: part}
	case types.EQ, types.NOTEQ, types.GT, types.GTEQ, types.LT, types.LTEQ:
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		return validation.ExpectAssignable(part, op, c.prop.Type, c.args[0])
	case types.BETWEEN:
		if err := validation.ExpectArgCount(part, op, c.args, 2); err != nil {
			return err
		}
		if err := validation.ExpectSameClass(part, op, c.args[0], c.args[1]); err != nil {
			return err
		}
		if err := validation.ExpectAssignable(part, op, c.prop.Type, c.args[0]); err != nil {
			return err
		}
		return validation.ExpectAssignable(part, op, c.prop.Type, c.args[1])
	case types.IN, types.NOT_IN:
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		return validation.ExpectCollectionArg(part, op, c.prop.Type, c.args[0])
	case types.IS_NULL, types.IS_NOT_NULL:
		return validation.ExpectArgCount(part, op, c.args, 0)
	default:
		return &types.UnsupportedOperationError{Op: op, Shape: meta.ShapePOJO.String(), Path: part}
	}
}

func (c *pojoQueryCreator) Process() (*types.Qualifier, error) {
	spec := types.LeafSpec{
		Op:   c.part.Op,
		Path: c.prop.Path,
	}
	switch c.part.Op.ValueArity() {
	case 1:
		spec.Value = c.args[0]
	case 2:
		spec.Value, spec.SecondValue = c.args[0], c.args[1]
	}

	if c.prop.Nested {
		rewritten, ok := c.part.Op.OnMapKey()
		if !ok {
			return nil, &types.UnsupportedOperationError{Op: c.part.Op, Shape: "nested " + meta.ShapePOJO.String(), Path: c.prop.Path}
		}
		resolved, err := ctxpath.Resolve(c.prop.Path)
		if err != nil {
			return nil, types.NewIllegalArgument(c.prop.Path, c.part.Op, "%v", err)
		}
		spec.Op = rewritten
		spec.Path = resolved.Bin
		spec.CTX = resolved.CTX
		spec.Key = resolved.Terminal
	}
	return types.NewLeaf(spec)
}
