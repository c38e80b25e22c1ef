package tool

import (
	"reflect"
	"strings"
)

// SchemaFor generates a parameter schema from a Go type using reflection.
// Struct fields map to object properties via their json tags; fields
// without an omitempty option are required. Unsupported kinds (channels,
// funcs) are skipped.
func SchemaFor(t reflect.Type) *Schema {
	if t == nil {
		return nil
	}
	return schemaOf(t)
}

func schemaOf(t reflect.Type) *Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: schemaOf(t.Elem())}
	case reflect.Map:
		return &Schema{Type: "object"}
	case reflect.Struct:
		return structSchema(t)
	default:
		return nil
	}
}

func structSchema(t reflect.Type) *Schema {
	s := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitempty, skip := parseJSONTag(field)
		if skip {
			continue
		}

		prop := schemaOf(field.Type)
		if prop == nil {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop.Description = desc
		}

		s.Properties[name] = prop
		if !omitempty {
			s.Required = append(s.Required, name)
		}
	}

	return s
}

func parseJSONTag(field reflect.StructField) (name string, omitempty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name = field.Name
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, false
}
