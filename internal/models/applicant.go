package models

import (
	"strings"
	"time"
)

// NotProvided is the sentinel the extraction model emits for fields the
// applicant has not yet supplied. It only exists at the serialization
// boundary; code must test for it through IsProvided, never by direct
// string comparison.
const NotProvided = "Not Provided"

// IsProvided reports whether a field value carries real applicant data.
// The check is a case-insensitive substring match because models restate
// the sentinel in free variations ("not provided yet", "NOT PROVIDED").
func IsProvided(value string) bool {
	return !strings.Contains(strings.ToLower(value), strings.ToLower(NotProvided))
}

// Field names as they appear in the extraction schema and in follow-up
// messages to the applicant. Order matters: missing-field enumeration
// follows this order.
const (
	FieldFullName           = "Full Name"
	FieldAadhaarNumber      = "Aadhaar Number"
	FieldDateOfBirth        = "Date of Birth"
	FieldEducationLevel     = "Education Level"
	FieldParentsOccupation  = "Parents' Occupation"
	FieldInterests          = "Interests"
	FieldPreviousExperience = "Previous Experience"
	FieldSkills             = "Skills"
)

// FieldSchema lists the extraction fields in canonical order.
var FieldSchema = []string{
	FieldFullName,
	FieldAadhaarNumber,
	FieldDateOfBirth,
	FieldEducationLevel,
	FieldParentsOccupation,
	FieldInterests,
	FieldPreviousExperience,
	FieldSkills,
}

// ApplicantFields is the closed record of extracted onboarding fields.
// Every field is a populated string or the NotProvided sentinel, never
// empty, so completeness checks reduce to the IsProvided predicate.
type ApplicantFields struct {
	FullName           string `json:"fullName"`
	AadhaarNumber      string `json:"aadhaarNumber"`
	DateOfBirth        string `json:"dateOfBirth"`
	EducationLevel     string `json:"educationLevel"`
	ParentsOccupation  string `json:"parentsOccupation"`
	Interests          string `json:"interests"`
	PreviousExperience string `json:"previousExperience"`
	Skills             string `json:"skills"`
}

// Get returns the value for a schema field name.
func (f *ApplicantFields) Get(field string) string {
	switch field {
	case FieldFullName:
		return f.FullName
	case FieldAadhaarNumber:
		return f.AadhaarNumber
	case FieldDateOfBirth:
		return f.DateOfBirth
	case FieldEducationLevel:
		return f.EducationLevel
	case FieldParentsOccupation:
		return f.ParentsOccupation
	case FieldInterests:
		return f.Interests
	case FieldPreviousExperience:
		return f.PreviousExperience
	case FieldSkills:
		return f.Skills
	}
	return ""
}

// Set assigns the value for a schema field name.
func (f *ApplicantFields) Set(field, value string) {
	switch field {
	case FieldFullName:
		f.FullName = value
	case FieldAadhaarNumber:
		f.AadhaarNumber = value
	case FieldDateOfBirth:
		f.DateOfBirth = value
	case FieldEducationLevel:
		f.EducationLevel = value
	case FieldParentsOccupation:
		f.ParentsOccupation = value
	case FieldInterests:
		f.Interests = value
	case FieldPreviousExperience:
		f.PreviousExperience = value
	case FieldSkills:
		f.Skills = value
	}
}

// Missing returns the schema field names whose values are not provided,
// in canonical order.
func (f *ApplicantFields) Missing() []string {
	var missing []string
	for _, field := range FieldSchema {
		if !IsProvided(f.Get(field)) {
			missing = append(missing, field)
		}
	}
	return missing
}

// ApplicantRecord is the persisted onboarding record: the transport
// identity plus the extracted fields.
type ApplicantRecord struct {
	ContactID   string          `json:"contactId"`
	DisplayName string          `json:"displayName"`
	Fields      ApplicantFields `json:"fields"`
	OnboardedAt time.Time       `json:"onboardedAt"`
}
