package convert

import (
	"reflect"
	"time"
)

// IsNumberKind reports whether k is a numeric kind. All number kinds are
// treated as mutually comparable: a long property may be compared against
// an int literal.
func IsNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// IsTextual reports whether t is a string-kinded type.
func IsTextual(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.String
}

// IsNumeric reports whether t is a number-kinded type or time.Time (which
// persists as epoch milliseconds).
func IsNumeric(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t == reflect.TypeOf(time.Time{}) {
		return true
	}
	return IsNumberKind(t.Kind())
}

// AssignableTo reports whether arg may be compared against a property of
// the declared type. Beyond direct assignability it accepts any number
// against any number, time values against numeric encodings, and a
// map-encoded struct (recognized by its class marker) against the struct
// type it was converted from.
func AssignableTo(declared reflect.Type, arg any) bool {
	if declared == nil {
		return false
	}
	if arg == nil {
		return declared.Kind() == reflect.Ptr ||
			declared.Kind() == reflect.Map ||
			declared.Kind() == reflect.Slice ||
			declared.Kind() == reflect.Interface
	}
	for declared.Kind() == reflect.Ptr {
		declared = declared.Elem()
	}
	argType := reflect.TypeOf(arg)

	if argType.AssignableTo(declared) || argType.ConvertibleTo(declared) && sameFamily(declared, argType) {
		return true
	}
	if IsNumeric(declared) && IsNumberKind(argType.Kind()) {
		return true
	}
	if declared == reflect.TypeOf(time.Time{}) {
		if _, ok := arg.(time.Time); ok {
			return true
		}
	}
	// A converted struct arrives as a map carrying a class marker naming
	// its original type.
	if declared.Kind() == reflect.Struct {
		if marker, ok := classMarkerOf(arg); ok {
			return marker == declared.Name()
		}
	}
	return false
}

func sameFamily(declared, arg reflect.Type) bool {
	dk, ak := declared.Kind(), arg.Kind()
	if dk == ak {
		return true
	}
	return IsNumberKind(dk) && IsNumberKind(ak)
}

func classMarkerOf(arg any) (string, bool) {
	switch m := arg.(type) {
	case map[any]any:
		if marker, ok := m[ClassMarker].(string); ok {
			return marker, true
		}
	case map[string]any:
		if marker, ok := m[ClassMarker].(string); ok {
			return marker, true
		}
	}
	return "", false
}
