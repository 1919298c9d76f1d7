// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// JSONSchema is the declarative shape a worker expects its job variables to
// have. Workers declare one schema per task type and validate before any
// business logic runs.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

// Property constrains a single variable. Items applies to array elements,
// Properties and Required to nested objects.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Default     interface{}         `json:"default,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput checks job variables against a schema. Fields are visited in
// sorted order so the error list is stable for identical inputs.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	var errs []ValidationError

	for _, required := range schema.Required {
		if _, ok := input[required]; !ok {
			errs = append(errs, ValidationError{
				Field:   required,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, declared := schema.Properties[name]
		if !declared {
			if !schema.AdditionalProperties {
				errs = append(errs, ValidationError{
					Field:   name,
					Message: "field not allowed in schema",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}
		errs = append(errs, checkField(name, input[name], prop)...)
	}

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func checkField(field string, value interface{}, prop Property) []ValidationError {
	if err := checkType(value, prop.Type); err != nil {
		// Constraint checks assume the declared type.
		return []ValidationError{{Field: field, Message: err.Error(), Code: "INVALID_TYPE"}}
	}

	var errs []ValidationError
	switch v := value.(type) {
	case string:
		errs = append(errs, checkString(field, v, prop)...)
	case float64:
		errs = append(errs, checkNumber(field, v, prop)...)
	case []interface{}:
		if prop.Items != nil {
			for i, item := range v {
				errs = append(errs, checkField(fmt.Sprintf("%s[%d]", field, i), item, *prop.Items)...)
			}
		}
	case map[string]interface{}:
		if prop.Properties != nil {
			nested := ValidateInput(v, JSONSchema{
				Type:       "object",
				Properties: prop.Properties,
				Required:   prop.Required,
				// Nested payloads often carry extra process data.
				AdditionalProperties: true,
			})
			for _, ne := range nested.Errors {
				errs = append(errs, ValidationError{
					Field:   field + "." + ne.Field,
					Message: ne.Message,
					Code:    ne.Code,
				})
			}
		}
	}
	return errs
}

func checkString(field, value string, prop Property) []ValidationError {
	var errs []ValidationError

	if prop.MinLength != nil && len(value) < *prop.MinLength {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be at least %d characters", *prop.MinLength),
			Code:    "MIN_LENGTH_VIOLATION",
		})
	}
	if prop.MaxLength != nil && len(value) > *prop.MaxLength {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be at most %d characters", *prop.MaxLength),
			Code:    "MAX_LENGTH_VIOLATION",
		})
	}
	if prop.Pattern != nil {
		if matched, err := regexp.MatchString(*prop.Pattern, value); err != nil || !matched {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("value must match pattern %s", *prop.Pattern),
				Code:    "PATTERN_MISMATCH",
			})
		}
	}
	if len(prop.Enum) > 0 && !containsString(prop.Enum, value) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be one of %v", prop.Enum),
			Code:    "INVALID_ENUM_VALUE",
		})
	}
	return errs
}

func checkNumber(field string, value float64, prop Property) []ValidationError {
	var errs []ValidationError
	if prop.Minimum != nil && value < *prop.Minimum {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be >= %v", *prop.Minimum),
			Code:    "MINIMUM_VIOLATION",
		})
	}
	if prop.Maximum != nil && value > *prop.Maximum {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be <= %v", *prop.Maximum),
			Code:    "MAXIMUM_VIOLATION",
		})
	}
	return errs
}

// checkType verifies the JSON-decoded value against the declared schema
// type. Variables arrive through encoding/json, so numbers are float64, but
// integer kinds coming from in-process callers are accepted too.
func checkType(value interface{}, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		if !isNumeric(value) {
			return fmt.Errorf("expected number, got %T", value)
		}
	case "integer":
		switch value.(type) {
		case int, int32, int64:
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	case "null":
		if value != nil {
			return fmt.Errorf("expected null, got %T", value)
		}
	}
	return nil
}

func isNumeric(value interface{}) bool {
	switch value.(type) {
	case float64, int, int32, int64:
		return true
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// GetSchemaFromJSON parses a schema from its JSON representation.
func GetSchemaFromJSON(schemaJSON string) (JSONSchema, error) {
	var schema JSONSchema
	err := json.Unmarshal([]byte(schemaJSON), &schema)
	return schema, err
}

// GetErrorMessages flattens the errors into "field: message" strings.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors reports whether the given field failed validation.
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns the errors for a field, including errors on its
// nested members and array elements.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var out []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			out = append(out, err)
		}
	}
	return out
}
