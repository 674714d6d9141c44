package verifydocument

import "magicbus-backend/internal/models"

// Input is one document image submitted on a session.
type Input struct {
	SessionID string
	ContactID string
	Image     []byte
}

// Output is the scored verdict. Degraded runs still produce a verdict
// (score 0, reject tier, retry message) rather than an error.
type Output struct {
	Verdict models.AuthenticityVerdict
	// Degraded marks verdicts produced without a usable model answer.
	Degraded bool
}
