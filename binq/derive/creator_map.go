package derive

import (
	"reflect"

	"github.com/binquery/binq/binq/ctxpath"
	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/internal/validation"
	"github.com/binquery/binq/types"
)

// mapQueryCreator handles map-like properties. Containment requires an
// explicit KEY / VALUE / KEY_VALUE_PAIR discriminator as the structuring
// argument; equality and comparisons accept either a whole-map argument or
// an explicit key plus value. Multiple pairs expand into an AND chain of
// single-key qualifiers, because the wire filter language has no
// multi-key-at-once primitive.
type mapQueryCreator struct {
	part       types.Part
	prop       *meta.Property
	args       []any
	ignoreCase bool
}

func newMapQueryCreator(part types.Part, prop *meta.Property, args []any, ignoreCase bool) *mapQueryCreator {
	return &mapQueryCreator{part: part, prop: prop, args: args, ignoreCase: ignoreCase}
}

func (c *mapQueryCreator) valueType() reflect.Type {
	if c.prop.Type.Kind() == reflect.Map {
		return c.prop.Type.Elem()
	}
	return nil
}

func (c *mapQueryCreator) Validate() error {
	part, op := c.part.Path, c.part.Op
	switch op {
	case types.CONTAINING, types.NOT_CONTAINING:
		return c.validateContaining()
	case types.EQ, types.NOTEQ:
		// One full map, or an explicit key+value pair; never a mix with
		// unrelated extras.
		if err := validation.ExpectArgCountBetween(part, op, c.args, 1, 2); err != nil {
			return err
		}
		if len(c.args) == 1 {
			return c.expectMapArg(c.args[0])
		}
		if err := validation.ExpectMapKeyType(part, op, c.args[0]); err != nil {
			return err
		}
		return validation.ExpectAssignable(part, op, c.valueType(), c.args[1])
	case types.GT, types.GTEQ, types.LT, types.LTEQ:
		if err := validation.ExpectArgCountBetween(part, op, c.args, 1, 2); err != nil {
			return err
		}
		if len(c.args) == 1 {
			return c.expectMapArg(c.args[0])
		}
		if err := validation.ExpectMapKeyType(part, op, c.args[0]); err != nil {
			return err
		}
		return validation.ExpectAssignable(part, op, c.valueType(), c.args[1])
	case types.BETWEEN:
		// Two full-map bounds, or (key, lower, upper).
		if err := validation.ExpectArgCountBetween(part, op, c.args, 2, 3); err != nil {
			return err
		}
		if len(c.args) == 2 {
			if err := c.expectMapArg(c.args[0]); err != nil {
				return err
			}
			if err := c.expectMapArg(c.args[1]); err != nil {
				return err
			}
			return validation.ExpectSameClass(part, op, c.args[0], c.args[1])
		}
		if err := validation.ExpectMapKeyType(part, op, c.args[0]); err != nil {
			return err
		}
		return validation.ExpectSameClass(part, op, c.args[1], c.args[2])
	case types.IN, types.NOT_IN:
		if err := validation.ExpectArgCount(part, op, c.args, 1); err != nil {
			return err
		}
		return validation.ExpectCollectionArg(part, op, nil, c.args[0])
	case types.IS_NULL, types.IS_NOT_NULL:
		return validation.ExpectArgCount(part, op, c.args, 0)
	default:
		return &types.UnsupportedOperationError{Op: op, Shape: meta.ShapeMap.String(), Path: part}
	}
}

// validateContaining enforces the discriminator contract: the first
// argument must be a MapCriteria, followed by one operand per key or
// value (KEY, VALUE) or pairs of operands (KEY_VALUE_PAIR). Map keys
// pushed into a filter expression are restricted to strings, numbers and
// byte slices.
func (c *mapQueryCreator) validateContaining() error {
	part, op := c.part.Path, c.part.Op
	if len(c.args) == 0 {
		return types.NewIllegalArgument(part, op,
			"expecting a KEY, VALUE or KEY_VALUE_PAIR criterion as the first argument")
	}
	criteria, ok := c.args[0].(types.MapCriteria)
	if !ok {
		return types.NewIllegalArgument(part, op,
			"expecting a KEY, VALUE or KEY_VALUE_PAIR criterion as the first argument, got %T", c.args[0])
	}
	operands := c.args[1:]
	switch criteria {
	case types.MapCriteriaKey:
		if len(operands) == 0 {
			return types.NewIllegalArgument(part, op, "KEY criterion requires at least one key")
		}
		for _, key := range operands {
			if err := validation.ExpectMapKeyType(part, op, key); err != nil {
				return err
			}
		}
	case types.MapCriteriaValue:
		if len(operands) == 0 {
			return types.NewIllegalArgument(part, op, "VALUE criterion requires at least one value")
		}
		for _, value := range operands {
			if err := validation.ExpectAssignable(part, op, c.valueType(), value); err != nil {
				return err
			}
		}
	case types.MapCriteriaKeyValuePair:
		if len(operands) == 0 || len(operands)%2 != 0 {
			return types.NewIllegalArgument(part, op,
				"KEY_VALUE_PAIR criterion requires key/value pairs, got %d operand(s)", len(operands))
		}
		for i := 0; i < len(operands); i += 2 {
			if err := validation.ExpectMapKeyType(part, op, operands[i]); err != nil {
				return err
			}
			if err := validation.ExpectAssignable(part, op, c.valueType(), operands[i+1]); err != nil {
				return err
			}
		}
	default:
		return types.NewIllegalArgument(part, op, "unknown map criterion %v", criteria)
	}
	return nil
}

func (c *mapQueryCreator) expectMapArg(v any) error {
	switch v.(type) {
	case map[any]any, map[string]any:
		return nil
	}
	return types.NewIllegalArgument(c.part.Path, c.part.Op, "expecting a map argument, got %T", v)
}

func (c *mapQueryCreator) Process() (*types.Qualifier, error) {
	switch c.part.Op {
	case types.CONTAINING, types.NOT_CONTAINING:
		return c.processContaining()
	case types.EQ, types.NOTEQ, types.GT, types.GTEQ, types.LT, types.LTEQ:
		if len(c.args) == 1 {
			return c.wholeMap(c.part.Op, c.args[0], nil)
		}
		return c.byKey(c.part.Op, c.args[0], c.args[1], nil)
	case types.BETWEEN:
		if len(c.args) == 2 {
			return c.wholeMap(types.BETWEEN, c.args[0], c.args[1])
		}
		return c.byKey(types.BETWEEN, c.args[0], c.args[1], c.args[2])
	case types.IN, types.NOT_IN:
		return c.wholeMap(c.part.Op, c.args[0], nil)
	case types.IS_NULL, types.IS_NOT_NULL:
		return c.wholeMap(c.part.Op, nil, nil)
	}
	return nil, &types.UnsupportedOperationError{Op: c.part.Op, Shape: meta.ShapeMap.String(), Path: c.part.Path}
}

// processContaining expands the operands into one qualifier per key,
// value or pair, AND-chained when several were supplied together.
func (c *mapQueryCreator) processContaining() (*types.Qualifier, error) {
	criteria := c.args[0].(types.MapCriteria)
	operands := c.args[1:]
	negated := c.part.Op == types.NOT_CONTAINING

	var qualifiers []*types.Qualifier
	switch criteria {
	case types.MapCriteriaKey:
		op := types.MAP_KEYS_CONTAIN
		if negated {
			op = types.MAP_KEYS_NOT_CONTAIN
		}
		for _, key := range operands {
			q, err := c.wholeMap(op, key, nil)
			if err != nil {
				return nil, err
			}
			qualifiers = append(qualifiers, q)
		}
	case types.MapCriteriaValue:
		op := types.MAP_VALUES_CONTAIN
		if negated {
			op = types.MAP_VALUES_NOT_CONTAIN
		}
		for _, value := range operands {
			q, err := c.wholeMap(op, value, nil)
			if err != nil {
				return nil, err
			}
			qualifiers = append(qualifiers, q)
		}
	case types.MapCriteriaKeyValuePair:
		op := types.EQ
		if negated {
			op = types.NOTEQ
		}
		for i := 0; i < len(operands); i += 2 {
			q, err := c.byKey(op, operands[i], operands[i+1], nil)
			if err != nil {
				return nil, err
			}
			qualifiers = append(qualifiers, q)
		}
	}
	return fold(types.AND, qualifiers), nil
}

// wholeMap builds a qualifier targeting the map bin as a whole.
func (c *mapQueryCreator) wholeMap(op types.FilterOperation, value, second any) (*types.Qualifier, error) {
	spec := types.LeafSpec{
		Op:          op,
		Path:        c.prop.Path,
		Value:       value,
		SecondValue: second,
		IgnoreCase:  c.ignoreCase,
	}
	if c.prop.Nested {
		resolved, err := c.resolveNested()
		if err != nil {
			return nil, err
		}
		spec.Path = resolved.Bin
		if rewritten, ok := op.OnMapKey(); ok {
			// Generic operator: compare the nested map as one entry of
			// its enclosing POJO map.
			spec.Op = rewritten
			spec.CTX = resolved.CTX
			spec.Key = resolved.Terminal
		} else {
			// Already a map-specific operator: keep it and navigate into
			// the nested map through the context path instead.
			spec.CTX = append(resolved.CTX, types.MapKey(resolved.Terminal))
		}
	}
	return types.NewLeaf(spec)
}

// byKey builds a qualifier targeting one entry of the map. For nested
// maps the map's own field name joins the context path and the user key
// stays the terminal lookup.
func (c *mapQueryCreator) byKey(op types.FilterOperation, key, value, second any) (*types.Qualifier, error) {
	rewritten, ok := op.OnMapKey()
	if !ok {
		return nil, &types.UnsupportedOperationError{Op: op, Shape: meta.ShapeMap.String(), Path: c.prop.Path}
	}
	spec := types.LeafSpec{
		Op:          rewritten,
		Key:         key,
		Value:       value,
		SecondValue: second,
		IgnoreCase:  c.ignoreCase,
	}
	if c.prop.Nested {
		resolved, err := c.resolveNested()
		if err != nil {
			return nil, err
		}
		spec.Path = resolved.Bin
		spec.CTX = append(resolved.CTX, types.MapKey(resolved.Terminal))
	} else {
		spec.Path = c.prop.Path
	}
	return types.NewLeaf(spec)
}

func (c *mapQueryCreator) resolveNested() (ctxpath.Resolved, error) {
	resolved, err := ctxpath.Resolve(c.prop.Path)
	if err != nil {
		return ctxpath.Resolved{}, types.NewIllegalArgument(c.prop.Path, c.part.Op, "%v", err)
	}
	return resolved, nil
}
