// Package evaluatecompleteness decides whether an applicant's record is
// ready for document verification. The gate is deterministic: no model
// call, just the provided/not-provided state of each schema field.
package evaluatecompleteness

import (
	"strings"

	"magicbus-backend/internal/models"
)

const (
	// CompleteMessage is sent once every field is on record.
	CompleteMessage = "Thank you! We have all your details. Please send a clear photo of your Aadhaar card to finish your registration."

	missingPreamble = "Thanks for the details so far! To continue your registration, please share the following:"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Evaluate reports whether the field record is complete and returns the
// reply to send the applicant: the document request when complete, or an
// enumeration of missing fields in schema order when not.
func (s *Service) Evaluate(fields models.ApplicantFields) (bool, string) {
	missing := fields.Missing()
	if len(missing) == 0 {
		return true, CompleteMessage
	}

	var b strings.Builder
	b.WriteString(missingPreamble)
	for _, name := range missing {
		b.WriteString("\n- ")
		b.WriteString(name)
	}
	return false, b.String()
}
