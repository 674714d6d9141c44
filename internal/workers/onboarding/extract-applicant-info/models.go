package extractapplicantinfo

import "magicbus-backend/internal/models"

// Input is one chat message from a prospective applicant.
type Input struct {
	SessionID  string
	SenderName string
	Message    string
}

// Output carries the merged field state after this turn.
type Output struct {
	Fields models.ApplicantFields
	// RawResponse is the unprocessed model output, kept for diagnostics.
	RawResponse string
}
