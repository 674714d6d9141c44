// Package verifydocument scores the authenticity of a submitted ID
// document. OCR text from the image is cross-checked by the model
// against the details the applicant claimed earlier in the session.
//
// The check fails closed: any OCR, model, or parse failure produces a
// score of zero and an explicit retry message, never an acceptance.
package verifydocument

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/genai"
	"magicbus-backend/internal/llmjson"
	"magicbus-backend/internal/models"
	"magicbus-backend/internal/ocr"
	"magicbus-backend/internal/session"
)

type Service struct {
	config   *Config
	model    genai.Model
	ocr      ocr.TextExtractor
	sessions *session.Store
	logger   logger.Logger
}

func NewService(config *Config, model genai.Model, extractor ocr.TextExtractor, sessions *session.Store, log logger.Logger) *Service {
	return &Service{
		config:   config,
		model:    model,
		ocr:      extractor,
		sessions: sessions,
		logger:   log.WithFields(map[string]interface{}{"worker": "verify-document"}),
	}
}

// Execute scores the document and returns a verdict. The returned error
// is always nil for scoring failures; those degrade to a zero-score
// verdict with the retry message so the applicant always hears back.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	text := s.ocr.ExtractText(ctx, input.Image)

	transcript, err := s.sessions.Read(ctx, input.SessionID)
	if err != nil {
		s.logger.Warn("transcript unavailable for cross-check", map[string]interface{}{
			"sessionId": input.SessionID,
			"error":     err.Error(),
		})
		transcript = ""
	}

	score, scoreErr := s.scoreDocument(ctx, text, transcript)

	verdict := models.AuthenticityVerdict{
		ID:        uuid.NewString(),
		SessionID: input.SessionID,
		ContactID: input.ContactID,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}

	if scoreErr != nil {
		s.logger.Warn("verification degraded", map[string]interface{}{
			"sessionId": input.SessionID,
			"error":     scoreErr.Error(),
		})
		verdict.Tier = models.TierReject
		verdict.Message = models.MsgDocumentError
		return &Output{Verdict: verdict, Degraded: true}, nil
	}

	verdict.Tier = models.TierForScore(score)
	verdict.Message = models.MessageForTier(verdict.Tier)

	s.logger.Info("document scored", map[string]interface{}{
		"sessionId": input.SessionID,
		"score":     score,
		"tier":      string(verdict.Tier),
	})

	return &Output{Verdict: verdict}, nil
}

const verificationSystemPrompt = `You are a document verification assistant for an NGO onboarding process.
You are given the OCR text of an identity document and the conversation in which the applicant stated their details.
Judge how likely the document is authentic and belongs to this applicant: do the name, date of birth and ID number in the document match the applicant's claims, and does the text look like a genuine government ID rather than a fabrication?
Answer with a JSON object of the form {"score": N} where N is an integer from 0 (certainly not authentic) to 10 (certainly authentic).
Respond with the JSON object only.`

func (s *Service) scoreDocument(ctx context.Context, ocrText, transcript string) (int, error) {
	userPrompt := fmt.Sprintf("Document OCR text:\n%s\n\nConversation with the applicant:\n%s", ocrText, transcript)

	raw, err := s.model.Complete(ctx, verificationSystemPrompt, userPrompt)
	if err != nil {
		return 0, err
	}

	parsed, err := llmjson.Extract(raw)
	if err != nil {
		return 0, err
	}

	return clampScore(parsed["score"]), nil
}

// clampScore coerces the model's score value to an int on [0, 10].
// Missing or non-numeric values score zero.
func clampScore(value interface{}) int {
	var score int
	switch v := value.(type) {
	case float64:
		score = int(v)
	case string:
		fmt.Sscanf(v, "%d", &score)
	default:
		return 0
	}
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
