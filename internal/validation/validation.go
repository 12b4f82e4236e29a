// Package validation holds the argument checks shared by the per-shape
// query creators. Every failure is an IllegalArgumentError naming the
// offending part, the operator and the expected vs actual arguments, and
// is surfaced before any database call.
package validation

import (
	"reflect"

	"github.com/binquery/binq/binq/convert"
	"github.com/binquery/binq/types"
)

// ExpectArgCount fails unless exactly want arguments were supplied.
func ExpectArgCount(part string, op types.FilterOperation, args []any, want int) error {
	if len(args) != want {
		return types.NewIllegalArgument(part, op, "expecting %d argument(s), got %d", want, len(args))
	}
	return nil
}

// ExpectArgCountBetween fails unless the argument count is within
// [min, max].
func ExpectArgCountBetween(part string, op types.FilterOperation, args []any, min, max int) error {
	if len(args) < min || len(args) > max {
		return types.NewIllegalArgument(part, op, "expecting between %d and %d arguments, got %d", min, max, len(args))
	}
	return nil
}

// ExpectSameClass fails unless a and b are of the same concrete type. A
// range over heterogeneous types has no well-defined ordering, so BETWEEN
// bounds must match exactly.
func ExpectSameClass(part string, op types.FilterOperation, a, b any) error {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return types.NewIllegalArgument(part, op, "expecting both arguments to be of the same class, got %v and %v", ta, tb)
	}
	// Converted structs share one map type; their class markers tell the
	// original classes apart.
	ma, aOK := classMarker(a)
	mb, bOK := classMarker(b)
	if aOK && bOK && ma != mb {
		return types.NewIllegalArgument(part, op, "expecting both arguments to be of the same class, got %s and %s", ma, mb)
	}
	return nil
}

func classMarker(v any) (string, bool) {
	m, ok := v.(map[any]any)
	if !ok {
		return "", false
	}
	marker, ok := m[convert.ClassMarker].(string)
	return marker, ok
}

// ExpectAssignable fails unless arg may be compared against a property of
// the declared type.
func ExpectAssignable(part string, op types.FilterOperation, declared reflect.Type, arg any) error {
	if !convert.AssignableTo(declared, arg) {
		return types.NewIllegalArgument(part, op, "expecting argument of type %s, got %T", declared, arg)
	}
	return nil
}

// ExpectTextual fails unless the declared property type is a string kind.
// CONTAINING on non-string scalars has no defined substring semantics.
func ExpectTextual(part string, op types.FilterOperation, declared reflect.Type) error {
	if !convert.IsTextual(declared) {
		return types.NewIllegalArgument(part, op, "operation requires a string property, got %s", declared)
	}
	return nil
}

// ExpectTextualArg fails unless arg is a string.
func ExpectTextualArg(part string, op types.FilterOperation, arg any) error {
	if _, ok := arg.(string); !ok {
		return types.NewIllegalArgument(part, op, "expecting a string argument, got %T", arg)
	}
	return nil
}

// ExpectCollectionArg fails unless arg is itself a slice or array whose
// elements are assignable to the declared element type.
func ExpectCollectionArg(part string, op types.FilterOperation, declared reflect.Type, arg any) error {
	rv := reflect.ValueOf(arg)
	if arg == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return types.NewIllegalArgument(part, op, "expecting a collection argument, got %T", arg)
	}
	if declared == nil {
		return nil
	}
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i).Interface()
		if !convert.AssignableTo(declared, el) {
			return types.NewIllegalArgument(part, op, "collection element %d: expecting type %s, got %T", i, declared, el)
		}
	}
	return nil
}

// ExpectMapKeyType fails unless key is a type the filter language can
// push down as a map key: string, an integer kind, or bytes.
func ExpectMapKeyType(part string, op types.FilterOperation, key any) error {
	switch key.(type) {
	case string, []byte:
		return nil
	}
	if key != nil && convert.IsNumberKind(reflect.TypeOf(key).Kind()) {
		return nil
	}
	return types.NewIllegalArgument(part, op, "map key must be a string, number or byte slice, got %T", key)
}
