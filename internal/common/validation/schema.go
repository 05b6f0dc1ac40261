package validation

import (
	"fmt"
	"sort"
	"strings"

	apperrors "school-pickup/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Err converts a failed result into an INVALID_INPUT error. It returns nil for valid results.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return apperrors.NewInvalidInputError(strings.Join(parts, "; "))
}

// Schema is a compiled JSON schema for job input.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses a JSON schema document.
func Compile(name, document string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(name, document string) *Schema {
	s, err := Compile(name, document)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateJSON validates a raw JSON document.
func (s *Schema) ValidateJSON(raw []byte) *ValidationResult {
	return s.validate(gojsonschema.NewBytesLoader(raw))
}

// Validate validates a Go value through its JSON representation.
func (s *Schema) Validate(v interface{}) *ValidationResult {
	return s.validate(gojsonschema.NewGoLoader(v))
}

func (s *Schema) validate(doc gojsonschema.JSONLoader) *ValidationResult {
	res, err := s.schema.Validate(doc)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "INVALID_JSON",
			}},
		}
	}
	if res.Valid() {
		return &ValidationResult{Valid: true}
	}

	out := make([]ValidationError, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return &ValidationResult{Valid: false, Errors: out}
}

func (s *Schema) Name() string { return s.name }
