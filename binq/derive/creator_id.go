package derive

import (
	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/internal/validation"
	"github.com/binquery/binq/types"
)

// idQueryCreator handles primary-key parts. Only equality and LIKE
// patterns are legal on ids; its output lets execution dispatch bypass
// general querying with a direct key lookup.
type idQueryCreator struct {
	part types.Part
	prop *meta.Property
	args []any
}

func newIDQueryCreator(part types.Part, prop *meta.Property, args []any) *idQueryCreator {
	return &idQueryCreator{part: part, prop: prop, args: args}
}

func (c *idQueryCreator) Validate() error {
	switch c.part.Op {
	case types.EQ:
		if err := validation.ExpectArgCount(c.part.Path, c.part.Op, c.args, 1); err != nil {
			return err
		}
		return c.validateIDValue(c.args[0])
	case types.IN:
		if err := validation.ExpectArgCount(c.part.Path, c.part.Op, c.args, 1); err != nil {
			return err
		}
		return validation.ExpectCollectionArg(c.part.Path, c.part.Op, nil, c.args[0])
	case types.LIKE:
		if err := validation.ExpectArgCount(c.part.Path, c.part.Op, c.args, 1); err != nil {
			return err
		}
		return validation.ExpectTextualArg(c.part.Path, c.part.Op, c.args[0])
	default:
		return &types.UnsupportedOperationError{Op: c.part.Op, Shape: meta.ShapeID.String(), Path: c.part.Path}
	}
}

// validateIDValue accepts a single id (string, integer or byte slice) or
// a collection of ids; an EQ over a collection becomes an id-IN.
func (c *idQueryCreator) validateIDValue(v any) error {
	switch v.(type) {
	case string, int64, []byte:
		return nil
	case []any:
		return c.validateIDElements(v.([]any))
	}
	return types.NewIllegalArgument(c.part.Path, c.part.Op,
		"id must be a string, number or byte slice, got %T", v)
}

func (c *idQueryCreator) validateIDElements(ids []any) error {
	for i, id := range ids {
		switch id.(type) {
		case string, int64, []byte:
		default:
			return types.NewIllegalArgument(c.part.Path, c.part.Op,
				"id element %d must be a string, number or byte slice, got %T", i, id)
		}
	}
	return nil
}

func (c *idQueryCreator) Process() (*types.Qualifier, error) {
	switch c.part.Op {
	case types.EQ:
		return c.processEquals(c.args[0])
	case types.IN:
		return c.processIn(c.args[0])
	case types.LIKE:
		return types.NewIDLeaf(types.LIKE, c.args[0])
	}
	return nil, &types.UnsupportedOperationError{Op: c.part.Op, Shape: meta.ShapeID.String(), Path: c.part.Path}
}

func (c *idQueryCreator) processEquals(v any) (*types.Qualifier, error) {
	// A collection of ids under EQ is an id-IN: batch lookup of every
	// listed key. The dispatch switches on the ids' runtime element type
	// so mixed collections were already rejected in Validate.
	switch ids := v.(type) {
	case []any:
		return c.idIn(ids)
	default:
		return types.NewIDLeaf(types.EQ, v)
	}
}

func (c *idQueryCreator) processIn(v any) (*types.Qualifier, error) {
	ids, ok := v.([]any)
	if !ok {
		return nil, types.NewIllegalArgument(c.part.Path, c.part.Op,
			"expecting a collection of ids, got %T", v)
	}
	if err := c.validateIDElements(ids); err != nil {
		return nil, err
	}
	return c.idIn(ids)
}

func (c *idQueryCreator) idIn(ids []any) (*types.Qualifier, error) {
	out := make([]any, len(ids))
	for i, id := range ids {
		switch typed := id.(type) {
		case string:
			out[i] = typed
		case int64:
			out[i] = typed
		case []byte:
			out[i] = typed
		}
	}
	return types.NewIDLeaf(types.IN, out)
}
