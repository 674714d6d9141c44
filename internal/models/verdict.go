package models

import "time"

// VerdictTier is the decision derived from a document authenticity score.
type VerdictTier string

const (
	TierAccept   VerdictTier = "accept"
	TierEscalate VerdictTier = "escalate"
	TierReject   VerdictTier = "reject"
)

// Authenticity score thresholds on the enforced 0-10 scale.
const (
	ScoreAcceptMin   = 6
	ScoreEscalateMin = 3
)

// Replies per tier.
const (
	MsgDocumentAccepted  = "Your document appears authentic. Your onboarding is now complete!"
	MsgDocumentEscalated = "Thanks for sharing your document. Our team will review it and get back to you shortly."
	MsgDocumentRejected  = "We could not verify the document you shared. Please send a clear photo of a valid ID document."
	MsgDocumentError     = "There was an error analyzing your document. Please try again later."
)

// AuthenticityVerdict captures the outcome of one document check.
type AuthenticityVerdict struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionId"`
	ContactID string      `json:"contactId"`
	Score     int         `json:"score"`
	Tier      VerdictTier `json:"tier"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TierForScore maps an authenticity score to its decision tier:
// score >= 6 accept, 3 <= score < 6 escalate, score < 3 reject.
func TierForScore(score int) VerdictTier {
	switch {
	case score >= ScoreAcceptMin:
		return TierAccept
	case score >= ScoreEscalateMin:
		return TierEscalate
	default:
		return TierReject
	}
}

// MessageForTier returns the applicant-facing reply for a tier.
func MessageForTier(tier VerdictTier) string {
	switch tier {
	case TierAccept:
		return MsgDocumentAccepted
	case TierEscalate:
		return MsgDocumentEscalated
	default:
		return MsgDocumentRejected
	}
}
