package ecml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ExCiteS/geokey-epicollect/models"
)

// ErrUnknownFieldType is returned when a schema references a field type
// outside the supported set. Compiling or decoding aborts, no partial
// output is produced.
var ErrUnknownFieldType = errors.New("unknown field type")

// baseInput creates a basic <input> element for text, number, date and
// time inputs. Type-specific attributes are added by the callers.
func baseInput(field *models.Field) *Element {
	el := NewElement("input", Attr{Name: "ref", Value: field.CompositeKey()})
	if field.Required {
		el.SetAttr("required", "true")
	}
	return el
}

// baseSelect creates a basic select element (<radio> or <select>) for
// lookup fields.
func baseSelect(field *models.Field, tag string) *Element {
	el := NewElement(tag, Attr{Name: "ref", Value: field.CompositeKey()})
	if field.Required {
		el.SetAttr("required", "true")
	}
	return el
}

func compileTextField(field *models.Field) *Element {
	el := baseInput(field)
	el.Append(newLabel(field.Name))
	return el
}

func compileNumericField(field *models.Field) *Element {
	el := baseInput(field)
	el.SetAttr("decimal", "true")

	if field.MinVal != nil {
		el.SetAttr("min", strconv.FormatFloat(*field.MinVal, 'f', -1, 64))
	}
	if field.MaxVal != nil {
		el.SetAttr("max", strconv.FormatFloat(*field.MaxVal, 'f', -1, 64))
	}

	el.Append(newLabel(field.Name))
	return el
}

func compileDateField(field *models.Field) *Element {
	el := baseInput(field)
	el.SetAttr("date", "dd/MM/yyyy")
	el.Append(newLabel(field.Name))
	return el
}

func compileTimeField(field *models.Field) *Element {
	el := baseInput(field)
	el.SetAttr("time", "HH:mm")
	el.Append(newLabel(field.Name))
	return el
}

func compileSingleLookupField(field *models.Field) *Element {
	el := baseSelect(field, "radio")
	el.Append(newLabel(field.Name))

	for _, value := range field.Lookups {
		el.Append(newItem(value.Name, formatUint(value.ID)))
	}
	return el
}

func compileMultipleLookupField(field *models.Field) *Element {
	el := baseSelect(field, "select")
	el.Append(newLabel(field.Name))

	for _, value := range field.Lookups {
		el.Append(newItem(value.Name, formatUint(value.ID)))
	}
	return el
}

// CompileField turns one schema field into its EcML input element.
func CompileField(field *models.Field) (*Element, error) {
	switch field.FieldType {
	case models.TextField:
		return compileTextField(field), nil
	case models.NumericField:
		return compileNumericField(field), nil
	case models.DateField, models.DateTimeField:
		return compileDateField(field), nil
	case models.TimeField:
		return compileTimeField(field), nil
	case models.LookupField:
		return compileSingleLookupField(field), nil
	case models.MultipleLookupField:
		return compileMultipleLookupField(field), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, field.FieldType)
	}
}

// DecodeValue turns a submitted raw value into the property value stored
// on an observation. A missing or empty raw value decodes to nil, never
// an empty string; export prints nil as the literal Null. Numeric and
// date values pass through unvalidated, validation belongs to the record
// store. Multiple-lookup values arrive as a comma-separated list of
// option ids and decode to an ordered string slice.
func DecodeValue(field *models.Field, raw string) (interface{}, error) {
	switch field.FieldType {
	case models.TextField, models.NumericField, models.DateField,
		models.DateTimeField, models.TimeField, models.LookupField:
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	case models.MultipleLookupField:
		values := splitList(raw)
		if len(values) == 0 {
			return nil, nil
		}
		return values, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, field.FieldType)
	}
}

// splitList splits a multiple-lookup submission on commas, trimming
// whitespace and dropping empty tokens. Deliberately not JSON: option
// ids arrive unquoted.
func splitList(raw string) []string {
	var out []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		out = append(out, token)
	}
	return out
}

// EncodeValue renders a stored property value back into export text.
// Nil and empty values encode to the literal "Null", the wire contract
// of the EpiCollect import path. Multiple-lookup slices encode back to
// the comma-separated form they were submitted in.
func EncodeValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "Null"
	case string:
		if v == "" {
			return "Null"
		}
		return v
	case []string:
		if len(v) == 0 {
			return "Null"
		}
		return strings.Join(v, ", ")
	case []interface{}:
		// JSONB round-trips string slices as []interface{}
		if len(v) == 0 {
			return "Null"
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
