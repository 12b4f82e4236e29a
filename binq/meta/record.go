package meta

import (
	"fmt"
	"reflect"
	"time"

	"github.com/binquery/binq/binq/convert"
)

// Marshal converts an entity value into its bin map, using the same
// writable-value rules argument coercion uses, so filter values and
// persisted values share one encoding. The primary-key field is returned
// separately and not stored as a bin.
func (e *Entity) Marshal(v any) (key any, bins map[string]any, err error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil, fmt.Errorf("meta: cannot marshal nil %s", e.Type.Name())
		}
		rv = rv.Elem()
	}
	if rv.Type() != e.Type {
		return nil, nil, fmt.Errorf("meta: expected %s, got %s", e.Type.Name(), rv.Type().Name())
	}
	bins = make(map[string]any, len(e.fields))
	for _, f := range e.fields {
		value, convErr := convert.ToWritable(rv.Field(f.index).Interface())
		if convErr != nil {
			return nil, nil, fmt.Errorf("meta: marshal %s.%s: %w", e.Type.Name(), f.name, convErr)
		}
		if f.pk {
			key = value
			continue
		}
		bins[f.binName] = value
	}
	if e.pk != nil && emptyKey(key) {
		return nil, nil, fmt.Errorf("meta: %s has an empty primary key", e.Type.Name())
	}
	return key, bins, nil
}

// Unmarshal populates a new entity value from a bin map and its key.
// target must be a pointer to the entity struct.
func (e *Entity) Unmarshal(key any, bins map[string]any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("meta: unmarshal target must be a non-nil pointer")
	}
	rv = rv.Elem()
	if rv.Type() != e.Type {
		return fmt.Errorf("meta: expected *%s, got %s", e.Type.Name(), rv.Type())
	}
	for _, f := range e.fields {
		var raw any
		if f.pk {
			raw = key
		} else {
			var ok bool
			raw, ok = bins[f.binName]
			if !ok {
				continue
			}
		}
		if raw == nil {
			continue
		}
		if err := assign(rv.Field(f.index), raw); err != nil {
			return fmt.Errorf("meta: unmarshal %s.%s: %w", e.Type.Name(), f.name, err)
		}
	}
	return nil
}

// assign writes a wire value into a struct field, reversing the writable
// conversion (int64 back to narrow ints, epoch millis back to time.Time,
// maps back to structs).
func assign(field reflect.Value, raw any) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return assign(field.Elem(), raw)
	}
	t := field.Type()
	if t == timeType {
		millis, ok := asInt64(raw)
		if !ok {
			return fmt.Errorf("expected epoch millis, got %T", raw)
		}
		field.Set(reflect.ValueOf(time.UnixMilli(millis).UTC()))
		return nil
	}
	rawValue := reflect.ValueOf(raw)
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := asInt64(raw)
		if !ok {
			return fmt.Errorf("expected integer, got %T", raw)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := asInt64(raw)
		if !ok {
			return fmt.Errorf("expected integer, got %T", raw)
		}
		field.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		switch n := raw.(type) {
		case float64:
			field.SetFloat(n)
		case int64:
			field.SetFloat(float64(n))
		default:
			return fmt.Errorf("expected float, got %T", raw)
		}
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", raw)
		}
		field.SetString(s)
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", raw)
		}
		field.SetBool(b)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			data, ok := raw.([]byte)
			if !ok {
				return fmt.Errorf("expected bytes, got %T", raw)
			}
			field.SetBytes(data)
			return nil
		}
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("expected list, got %T", raw)
		}
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			if err := assign(out.Index(i), item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		field.Set(out)
	case reflect.Map:
		entries, err := asMap(raw)
		if err != nil {
			return err
		}
		out := reflect.MakeMapWithSize(t, len(entries))
		for k, v := range entries {
			mk := reflect.New(t.Key()).Elem()
			if err := assign(mk, k); err != nil {
				return fmt.Errorf("map key %v: %w", k, err)
			}
			mv := reflect.New(t.Elem()).Elem()
			if err := assign(mv, v); err != nil {
				return fmt.Errorf("map value for %v: %w", k, err)
			}
			out.SetMapIndex(mk, mv)
		}
		field.Set(out)
	case reflect.Struct:
		entries, err := asMap(raw)
		if err != nil {
			return err
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			v, ok := entries[persistedName(sf)]
			if !ok || v == nil {
				continue
			}
			if err := assign(field.Field(i), v); err != nil {
				return fmt.Errorf("field %s: %w", sf.Name, err)
			}
		}
	case reflect.Interface:
		field.Set(rawValue)
	default:
		return fmt.Errorf("unsupported field kind %s", t.Kind())
	}
	return nil
}

func emptyKey(key any) bool {
	switch k := key.(type) {
	case nil:
		return true
	case string:
		return k == ""
	case []byte:
		return len(k) == 0
	}
	return false
}

func asInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func asMap(raw any) (map[any]any, error) {
	switch m := raw.(type) {
	case map[any]any:
		return m, nil
	case map[string]any:
		out := make(map[any]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected map, got %T", raw)
}
