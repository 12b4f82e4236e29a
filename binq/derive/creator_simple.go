package derive

import (
	"github.com/binquery/binq/binq/ctxpath"
	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/internal/validation"
	"github.com/binquery/binq/types"
)

// simplePropertyQueryCreator handles scalar leaf properties: numbers,
// strings, dates, booleans, enums and byte slices. When the property is
// nested inside a POJO (map-encoded at the wire level) the operator is
// rewritten to its by-key counterpart, because equality or comparison must
// then target one entry of the enclosing map rather than the map itself.
type simplePropertyQueryCreator struct {
	part       types.Part
	prop       *meta.Property
	args       []any
	ignoreCase bool
}

func newSimplePropertyQueryCreator(part types.Part, prop *meta.Property, args []any, ignoreCase bool) *simplePropertyQueryCreator {
	return &simplePropertyQueryCreator{part: part, prop: prop, args: args, ignoreCase: ignoreCase}
}

func (c *simplePropertyQueryCreator) Validate() error {
	part, op := c.part.Path, c.part.Op
	switch op {
	case types.EQ, types.NOTEQ, types.GT, types.GTEQ, types.LT, types.LTEQ:
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		return validation.ExpectAssignable(part, op, c.prop.Type, c.args[0])
	case types.CONTAINING, types.NOT_CONTAINING:
		// Substring semantics are only defined on text: both the property
		// and the argument must be strings.
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		if err := validation.ExpectTextual(part, op, c.prop.Type); err != nil {
			return err
		}
		return validation.ExpectTextualArg(part, op, c.args[0])
	case types.STARTS_WITH, types.ENDS_WITH, types.LIKE:
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		if err := validation.ExpectTextual(part, op, c.prop.Type); err != nil {
			return err
		}
		return validation.ExpectTextualArg(part, op, c.args[0])
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
	case types.GEO_WITHIN:
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		return validation.ExpectTextualArg(part, op, c.args[0])
	default:
		return &types.UnsupportedOperationError{Op: op, Shape: meta.ShapeSimple.String(), Path: part}
	}
}

func (c *simplePropertyQueryCreator) Process() (*types.Qualifier, error) {
	spec := types.LeafSpec{
		Op:         c.part.Op,
		Path:       c.prop.Path,
		IgnoreCase: c.ignoreCase,
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
			return nil, &types.UnsupportedOperationError{Op: c.part.Op, Shape: "nested " + meta.ShapeSimple.String(), Path: c.prop.Path}
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
