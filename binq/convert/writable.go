// Package convert rewrites application-level values into the writable
// representation the wire filter language understands, using the same
// rules the record mapper applies at persistence time. A filter value and
// a persisted value therefore compare equal bit for bit.
package convert

import (
	"bytes"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ClassMarker is the map entry the record mapper embeds so a map-encoded
// struct can be matched back to its declared type.
const ClassMarker = "@_class"

// Writable is implemented by application types that control their own
// wire representation.
type Writable interface {
	WritableValue() any
}

// ToWritable converts v into its wire representation: integers widen to
// int64, typed string/int kinds collapse to their underlying kind,
// time.Time becomes epoch milliseconds, uuid.UUID becomes its string form,
// structs become maps carrying a class marker, and slices/maps convert
// elementwise. nil passes through.
func ToWritable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if w, ok := v.(Writable); ok {
		return ToWritable(w.WritableValue())
	}
	switch t := v.(type) {
	case time.Time:
		return t.UnixMilli(), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.UnixMilli(), nil
	case time.Duration:
		return int64(t), nil
	case uuid.UUID:
		return t.String(), nil
	case []byte:
		return t, nil
	case string:
		return t, nil
	case bool:
		return t, nil
	case float32:
		return float64(t), nil
	case float64:
		return t, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return ToWritable(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		// Typed string kinds (string-backed enums) collapse to string.
		return rv.String(), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			converted, err := ToWritable(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case reflect.Map:
		out := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := ToWritable(iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			val, err := ToWritable(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	case reflect.Struct:
		return structToMap(rv)
	}
	return nil, fmt.Errorf("convert: unsupported value type %T", v)
}

// structToMap encodes a struct as a writable map keyed by field name, with
// a class marker entry so validation can match it back to its declared
// type.
func structToMap(rv reflect.Value) (map[any]any, error) {
	t := rv.Type()
	out := make(map[any]any, t.NumField()+1)
	out[ClassMarker] = t.Name()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := fieldKey(field)
		if name == "-" {
			continue
		}
		converted, err := ToWritable(rv.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("convert: field %s: %w", field.Name, err)
		}
		out[name] = converted
	}
	return out, nil
}

// fieldKey returns the map key a struct field persists under: the bin tag
// name when present, the lower-camel field name otherwise.
func fieldKey(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("bin"); ok {
		name, _, _ := cutTag(tag)
		if name != "" {
			return name
		}
	}
	return lowerFirst(field.Name)
}

func cutTag(tag string) (name, opts string, hasOpts bool) {
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			return tag[:i], tag[i+1:], true
		}
	}
	return tag, "", false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}

// Blob renders a writable value in its canonical packed encoding. Used for
// whole-structure equality where the server compares encoded bytes.
func Blob(v any) ([]byte, error) {
	writable, err := ToWritable(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	// Sorted map keys keep the encoding stable across runs, so byte
	// comparison works for maps too.
	enc.SetSortMapKeys(true)
	if err := enc.Encode(writable); err != nil {
		return nil, fmt.Errorf("convert: packing %T: %w", v, err)
	}
	return buf.Bytes(), nil
}
