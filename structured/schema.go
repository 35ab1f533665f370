package structured

import (
	"fmt"
	"slices"
	"strings"
)

// FieldType is the expected JSON type of a record field.
type FieldType string

const (
	String     FieldType = "string"
	Number     FieldType = "number"
	Boolean    FieldType = "boolean"
	Enum       FieldType = "enum"
	StringList FieldType = "string_list"
	RecordList FieldType = "record_list"
)

// Field declares one record field. Fields are required unless Optional
// is set.
type Field struct {
	Name string    `yaml:"name" json:"name" validate:"required"`
	Type FieldType `yaml:"type" json:"type" validate:"required,oneof=string number boolean enum string_list record_list"`
	// Enum lists the accepted values for Enum fields. Comparison is exact.
	Enum []string `yaml:"enum,omitempty" json:"enum,omitempty"`
	// Items is the element schema for RecordList fields. Nil accepts any object.
	Items    *Schema `yaml:"items,omitempty" json:"items,omitempty"`
	Optional bool    `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// Schema declares the fields a structured record must carry. Fields not
// declared are kept but not checked.
type Schema struct {
	Fields []Field `yaml:"fields" json:"fields" validate:"dive"`
}

// Fields builds a schema from fields.
func Fields(fields ...Field) Schema { return Schema{Fields: fields} }

// Required declares a required field of type t.
func Required(name string, t FieldType) Field { return Field{Name: name, Type: t} }

// OneOf declares a required enum field.
func OneOf(name string, values ...string) Field {
	return Field{Name: name, Type: Enum, Enum: values}
}

// ListOf declares a required list-of-record field with an element schema.
func ListOf(name string, items Schema) Field {
	return Field{Name: name, Type: RecordList, Items: &items}
}

// Names returns the declared field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Check reports a malformed schema: duplicate or empty names, unknown
// types, or enum fields without values.
func (s Schema) Check() error {
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("field with empty name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		switch f.Type {
		case String, Number, Boolean, StringList:
		case Enum:
			if len(f.Enum) == 0 {
				return fmt.Errorf("enum field %q has no values", f.Name)
			}
		case RecordList:
			if f.Items != nil {
				if err := f.Items.Check(); err != nil {
					return fmt.Errorf("%s: %w", f.Name, err)
				}
			}
		default:
			return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}

// ValidationError lists every schema violation found in a record.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	switch len(e.Violations) {
	case 0:
		return "record does not match schema"
	case 1:
		return e.Violations[0]
	default:
		return fmt.Sprintf("%s (and %d more)", e.Violations[0], len(e.Violations)-1)
	}
}

// Validate checks r against the schema and reports every violation. The
// returned error is a *ValidationError.
func (s Schema) Validate(r Record) error {
	var v []string
	s.validate("", r, &v)
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

func (s Schema) validate(prefix string, r Record, out *[]string) {
	for _, f := range s.Fields {
		path := prefix + f.Name
		val, ok := r[f.Name]
		if !ok || val == nil {
			if !f.Optional {
				*out = append(*out, fmt.Sprintf("missing required field %q", path))
			}
			continue
		}
		f.check(path, val, out)
	}
}

func (f Field) check(path string, val any, out *[]string) {
	mismatch := func(want string) {
		*out = append(*out, fmt.Sprintf("field %q must be %s, got %s", path, want, jsonType(val)))
	}
	switch f.Type {
	case String:
		if _, ok := val.(string); !ok {
			mismatch("a string")
		}
	case Number:
		if !isNumber(val) {
			mismatch("a number")
		}
	case Boolean:
		if _, ok := val.(bool); !ok {
			mismatch("a boolean")
		}
	case Enum:
		str, ok := val.(string)
		if !ok {
			mismatch("a string")
			return
		}
		if !slices.Contains(f.Enum, str) {
			*out = append(*out, fmt.Sprintf("field %q must be one of [%s], got %q",
				path, strings.Join(f.Enum, ", "), str))
		}
	case StringList:
		items, ok := val.([]any)
		if !ok {
			mismatch("a list of strings")
			return
		}
		for i, item := range items {
			if _, ok := item.(string); !ok {
				*out = append(*out, fmt.Sprintf("field %q must be a string, got %s",
					fmt.Sprintf("%s[%d]", path, i), jsonType(item)))
			}
		}
	case RecordList:
		items, ok := val.([]any)
		if !ok {
			mismatch("a list of objects")
			return
		}
		for i, item := range items {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			obj, ok := item.(map[string]any)
			if !ok {
				*out = append(*out, fmt.Sprintf("field %q must be an object, got %s", elemPath, jsonType(item)))
				continue
			}
			if f.Items != nil {
				f.Items.validate(elemPath+".", obj, out)
			}
		}
	default:
		*out = append(*out, fmt.Sprintf("field %q has unknown type %q", path, f.Type))
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	}
	return false
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
