// Package validation guards REST write payloads with JSON Schema.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// applicantRowSchema constrains inserts into the applicants table. The
// contact identifier is mandatory; field columns are free-form strings.
const applicantRowSchema = `{
	"type": "object",
	"required": ["contact_id", "full_name"],
	"properties": {
		"contact_id": {"type": "string", "minLength": 1},
		"display_name": {"type": "string"},
		"full_name": {"type": "string", "minLength": 1},
		"aadhaar_number": {"type": "string"},
		"date_of_birth": {"type": "string"},
		"education_level": {"type": "string"},
		"parents_occupation": {"type": "string"},
		"interests": {"type": "string"},
		"previous_experience": {"type": "string"},
		"skills": {"type": "string"}
	},
	"additionalProperties": false
}`

var applicantSchema = gojsonschema.NewStringLoader(applicantRowSchema)

// ValidateApplicantRow checks one insert payload for the applicants
// table and returns a single error listing every violation.
func ValidateApplicantRow(row map[string]interface{}) error {
	result, err := gojsonschema.Validate(applicantSchema, gojsonschema.NewGoLoader(row))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return fmt.Errorf("invalid applicant row: %s", strings.Join(violations, "; "))
}
