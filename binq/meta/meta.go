// Package meta derives entity metadata from struct types: bin names,
// primary-key detection, property-shape classification and dotted-path
// resolution for method-name segments.
//
// Field mapping follows the `bin` struct tag:
//
//	FirstName string `bin:"first_name"`  // renamed bin
//	Secret    string `bin:"-"`           // not persisted
//	ID        string `bin:"id,pk"`       // primary key
//
// Untagged fields persist under their lower-camel name. A field named ID
// is the primary key when no field carries the pk option.
package meta

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Shape classifies how a property is queried. The classification is
// computed once per property from its static type and drives which query
// creator handles a part.
type Shape int

const (
	ShapeSimple Shape = iota
	ShapeID
	ShapeCollection
	ShapeMap
	ShapePOJO
)

func (s Shape) String() string {
	switch s {
	case ShapeSimple:
		return "simple"
	case ShapeID:
		return "id"
	case ShapeCollection:
		return "collection"
	case ShapeMap:
		return "map"
	case ShapePOJO:
		return "pojo"
	}
	return "unknown"
}

// Property is one resolvable property of an entity, possibly nested.
type Property struct {
	// FieldName is the Go field name of the terminal segment.
	FieldName string
	// BinName is the persisted name of the top-level bin the property
	// lives in (honoring a rename tag on the top-level field).
	BinName string
	// Path is the full dotted path: the bin name followed by the
	// persisted names of nested segments, e.g. "friend.address.zipCode".
	Path string
	// Type is the declared type with pointers stripped.
	Type reflect.Type
	// Shape classifies the terminal segment.
	Shape Shape
	// Nested reports whether the property sits inside a POJO (depth > 1).
	Nested bool
	// PK reports whether the property is the primary key.
	PK bool
}

// Entity is the parsed metadata of one mapped struct type.
type Entity struct {
	Type reflect.Type
	// SetName is the store set the entity maps to, the struct name by
	// default.
	SetName string
	pk      *field
	fields  []field
}

type field struct {
	name    string // Go name
	binName string // persisted name
	typ     reflect.Type
	shape   Shape
	pk      bool
	index   int
}

var timeType = reflect.TypeOf(time.Time{})

// Parse builds entity metadata for a struct type. Pointer types are
// dereferenced.
func Parse(t reflect.Type) (*Entity, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("meta: expected struct type, got %s", t.Kind())
	}
	e := &Entity{Type: t, SetName: t.Name()}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("bin")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = lowerFirst(sf.Name)
		}
		f := field{
			name:    sf.Name,
			binName: name,
			typ:     derefType(sf.Type),
			index:   i,
			pk:      hasOption(opts, "pk"),
		}
		f.shape = classify(f.typ)
		if f.pk {
			if e.pk != nil {
				return nil, fmt.Errorf("meta: %s: multiple primary key fields", t.Name())
			}
			f.shape = ShapeID
			pkCopy := f
			e.pk = &pkCopy
		}
		e.fields = append(e.fields, f)
	}
	if e.pk == nil {
		for i := range e.fields {
			if e.fields[i].name == "ID" {
				e.fields[i].pk = true
				e.fields[i].shape = ShapeID
				pkCopy := e.fields[i]
				e.pk = &pkCopy
				break
			}
		}
	}
	if len(e.fields) == 0 {
		return nil, fmt.Errorf("meta: %s has no persistable fields", t.Name())
	}
	return e, nil
}

// MustParse is Parse for statically valid entity types.
func MustParse(t reflect.Type) *Entity {
	e, err := Parse(t)
	if err != nil {
		panic(err)
	}
	return e
}

// PK returns the primary-key property, nil when the entity has none.
func (e *Entity) PK() *Property {
	if e.pk == nil {
		return nil
	}
	return &Property{
		FieldName: e.pk.name,
		BinName:   e.pk.binName,
		Path:      e.pk.binName,
		Type:      e.pk.typ,
		Shape:     ShapeID,
		PK:        true,
	}
}

// Property resolves a dotted path ("friend.address.zipCode") against the
// entity. Segment names match either the Go field name (any case of the
// first letter) or the persisted name.
func (e *Entity) Property(path string) (*Property, error) {
	segments := strings.Split(path, ".")
	return e.resolveSegments(segments)
}

// PropertyForSegment resolves a camel-case method-name segment such as
// "FriendAddressZipCode" by longest-prefix matching against field names,
// descending into POJO fields. An underscore forces a segment boundary.
func (e *Entity) PropertyForSegment(segment string) (*Property, error) {
	segments, err := splitSegment(e.Type, segment)
	if err != nil {
		return nil, err
	}
	return e.resolveSegments(segments)
}

func (e *Entity) resolveSegments(segments []string) (*Property, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("meta: empty property path")
	}
	top := e.lookup(segments[0])
	if top == nil {
		return nil, fmt.Errorf("meta: %s has no property %q", e.Type.Name(), segments[0])
	}
	prop := &Property{
		FieldName: top.name,
		BinName:   top.binName,
		Path:      top.binName,
		Type:      top.typ,
		Shape:     top.shape,
		PK:        top.pk,
	}
	current := top.typ
	for _, seg := range segments[1:] {
		if classify(current) != ShapePOJO {
			return nil, fmt.Errorf("meta: cannot descend into %s via %q: not a struct", current, seg)
		}
		sf, ok := findField(current, seg)
		if !ok {
			return nil, fmt.Errorf("meta: %s has no field %q", current.Name(), seg)
		}
		current = derefType(sf.Type)
		prop.FieldName = sf.Name
		prop.Path += "." + persistedName(sf)
		prop.Type = current
		prop.Shape = classify(current)
		prop.Nested = true
		prop.PK = false
	}
	return prop, nil
}

func (e *Entity) lookup(name string) *field {
	for i := range e.fields {
		f := &e.fields[i]
		if f.name == name || f.binName == name || lowerFirst(f.name) == name || f.name == upperFirst(name) {
			return f
		}
	}
	return nil
}

func findField(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Name == name || sf.Name == upperFirst(name) || persistedName(sf) == name {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

// splitSegment decomposes a camel-case segment into property path
// segments by greedy longest-match against the fields of each level.
func splitSegment(t reflect.Type, segment string) ([]string, error) {
	var out []string
	for _, explicit := range strings.Split(segment, "_") {
		remaining := explicit
		current := t
		for remaining != "" {
			match, rest := longestFieldPrefix(current, remaining)
			if match == "" {
				if len(out) == 0 && remaining == explicit {
					// Single unmatched segment: let resolveSegments report
					// the missing property by its full name.
					out = append(out, lowerFirst(remaining))
					remaining = ""
					continue
				}
				return nil, fmt.Errorf("meta: cannot resolve %q against %s", remaining, current)
			}
			out = append(out, match)
			if rest != "" {
				sf, _ := findField(current, match)
				current = derefType(sf.Type)
				if current.Kind() != reflect.Struct || current == timeType {
					return nil, fmt.Errorf("meta: cannot descend into %q resolving %q", match, remaining)
				}
			}
			remaining = rest
		}
	}
	return out, nil
}

// longestFieldPrefix finds the longest field name of t that is a
// case-insensitive prefix of s at a camel-case boundary.
func longestFieldPrefix(t reflect.Type, s string) (match, rest string) {
	if t.Kind() != reflect.Struct {
		return "", ""
	}
	lower := strings.ToLower(s)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := strings.ToLower(sf.Name)
		if !strings.HasPrefix(lower, name) {
			continue
		}
		tail := s[len(name):]
		if tail != "" && !isUpper(tail[0]) {
			continue // not a camel boundary
		}
		if len(sf.Name) > len(match) {
			match, rest = sf.Name, tail
		}
	}
	return match, rest
}

func classify(t reflect.Type) Shape {
	t = derefType(t)
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return ShapeSimple // []byte is a blob scalar
		}
		return ShapeCollection
	case reflect.Map:
		return ShapeMap
	case reflect.Struct:
		if t == timeType {
			return ShapeSimple
		}
		return ShapePOJO
	default:
		return ShapeSimple
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func persistedName(sf reflect.StructField) string {
	tag := sf.Tag.Get("bin")
	name, _, _ := strings.Cut(tag, ",")
	if name != "" && name != "-" {
		return name
	}
	return lowerFirst(sf.Name)
}

func hasOption(opts, want string) bool {
	for _, opt := range strings.Split(opts, ",") {
		if opt == want {
			return true
		}
	}
	return false
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

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
