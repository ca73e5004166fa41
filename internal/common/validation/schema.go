// Package validation checks applicant payloads against a JSON schema before
// they reach the risk pipeline.
package validation

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
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

// Fields returns the distinct offending field names in sorted order.
func (r *ValidationResult) Fields() []string {
	seen := map[string]bool{}
	var fields []string
	for _, e := range r.Errors {
		if !seen[e.Field] {
			seen[e.Field] = true
			fields = append(fields, e.Field)
		}
	}
	sort.Strings(fields)
	return fields
}

// Summary joins the error messages into one line.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

var applicantSchema = gojsonschema.NewGoLoader(buildApplicantSchema())

// buildApplicantSchema allows any object whose recognized attributes are
// numbers or null. Unknown attributes are ignored.
func buildApplicantSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(models.RecognizedAttributes))
	for _, name := range models.RecognizedAttributes {
		properties[name] = map[string]interface{}{
			"type": []string{"number", "null"},
		}
	}
	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
}

// ApplicantSchema returns a fresh copy of the applicant schema.
func ApplicantSchema() map[string]interface{} {
	return buildApplicantSchema()
}

// ApplicantSchemaJSON returns the applicant schema document.
func ApplicantSchemaJSON() ([]byte, error) {
	return json.MarshalIndent(buildApplicantSchema(), "", "  ")
}

// ValidateApplicantJSON validates a raw applicant document. An error is
// returned only when data is not JSON at all.
func ValidateApplicantJSON(data []byte) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(applicantSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON document: %w", err)
	}
	return convert(result), nil
}

func convert(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		field := e.Field()
		if prop, ok := e.Details()["property"].(string); ok && prop != "" && field == gojsonschema.STRING_CONTEXT_ROOT {
			field = prop
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out
}

// DecodeApplicant validates data against the applicant schema and decodes it.
// Malformed JSON yields a parse error; a document that is not an object, or
// whose recognized attributes are not numbers, yields a validation error.
func DecodeApplicant(data []byte) (models.RawApplicant, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewParseError(stderrors.New("empty applicant document"))
	}

	result, err := ValidateApplicantJSON(data)
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	if !result.Valid {
		return nil, errors.NewValidationError(result.Summary(), result.Fields())
	}

	var raw models.RawApplicant
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewParseError(err)
	}
	return raw, nil
}
