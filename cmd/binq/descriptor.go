package main

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/binquery/binq/binq/meta"
)

// entitySpec is the YAML shape of an entity descriptor. The CLI has no
// compiled entity structs, so descriptors are rebuilt into struct types
// at runtime and fed to the same metadata parser the library uses.
//
//	set: Person
//	fields:
//	  - name: ID
//	    bin: id
//	    pk: true
//	    type: string
//	  - name: Age
//	    type: int
//	  - name: Friend
//	    type: object
//	    fields:
//	      - name: ZipCode
//	        bin: zipCode
//	        type: string
type entitySpec struct {
	Set    string      `yaml:"set"`
	Fields []fieldSpec `yaml:"fields"`
}

type fieldSpec struct {
	Name   string      `yaml:"name"`
	Bin    string      `yaml:"bin"`
	Type   string      `yaml:"type"`
	PK     bool        `yaml:"pk"`
	Fields []fieldSpec `yaml:"fields"`
}

// loadEntity reads a YAML descriptor and parses it into entity metadata.
func loadEntity(path string) (*meta.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading entity descriptor: %w", err)
	}
	var spec entitySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing entity descriptor %s: %w", path, err)
	}
	if len(spec.Fields) == 0 {
		return nil, fmt.Errorf("entity descriptor %s declares no fields", path)
	}
	t, err := buildStructType(spec.Fields)
	if err != nil {
		return nil, fmt.Errorf("entity descriptor %s: %w", path, err)
	}
	entity, err := meta.Parse(t)
	if err != nil {
		return nil, err
	}
	if spec.Set != "" {
		entity.SetName = spec.Set
	}
	return entity, nil
}

func buildStructType(fields []fieldSpec) (reflect.Type, error) {
	structFields := make([]reflect.StructField, 0, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field without a name")
		}
		t, err := fieldType(f)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		tag := f.Bin
		if f.PK {
			tag += ",pk"
		}
		sf := reflect.StructField{Name: f.Name, Type: t}
		if tag != "" {
			sf.Tag = reflect.StructTag(fmt.Sprintf(`bin:%q`, tag))
		}
		structFields = append(structFields, sf)
	}
	return reflect.StructOf(structFields), nil
}

func fieldType(f fieldSpec) (reflect.Type, error) {
	switch f.Type {
	case "string", "":
		return reflect.TypeOf(""), nil
	case "int", "int64":
		return reflect.TypeOf(int64(0)), nil
	case "float", "float64":
		return reflect.TypeOf(float64(0)), nil
	case "bool":
		return reflect.TypeOf(false), nil
	case "time":
		return reflect.TypeOf(time.Time{}), nil
	case "bytes":
		return reflect.TypeOf([]byte(nil)), nil
	case "[]string":
		return reflect.TypeOf([]string(nil)), nil
	case "[]int", "[]int64":
		return reflect.TypeOf([]int64(nil)), nil
	case "map[string]string":
		return reflect.TypeOf(map[string]string(nil)), nil
	case "map[string]int", "map[string]int64":
		return reflect.TypeOf(map[string]int64(nil)), nil
	case "object":
		if len(f.Fields) == 0 {
			return nil, fmt.Errorf("object type needs nested fields")
		}
		return buildStructType(f.Fields)
	}
	return nil, fmt.Errorf("unsupported type %q", f.Type)
}
