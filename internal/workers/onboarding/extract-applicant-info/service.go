// Package extractapplicantinfo turns a free-form applicant chat message
// into the structured onboarding field record. The model sees the whole
// session transcript, so fields supplied in earlier turns survive into
// every later extraction.
package extractapplicantinfo

import (
	"context"
	"fmt"
	"strings"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/genai"
	"magicbus-backend/internal/llmjson"
	"magicbus-backend/internal/models"
	"magicbus-backend/internal/session"
)

type Service struct {
	config   *Config
	model    genai.Model
	sessions *session.Store
	logger   logger.Logger
}

func NewService(config *Config, model genai.Model, sessions *session.Store, log logger.Logger) *Service {
	return &Service{
		config:   config,
		model:    model,
		sessions: sessions,
		logger:   log.WithFields(map[string]interface{}{"worker": "extract-applicant-info"}),
	}
}

// Extract records the message in the session, runs the extraction model
// over the full transcript, and returns the merged field state. The user
// turn is made durable before the model is called so a model failure
// never loses the applicant's words.
func (s *Service) Extract(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if err := s.sessions.Append(ctx, input.SessionID, session.RoleUser, input.Message); err != nil {
		return nil, errors.NewSessionWriteFailedError(input.SessionID, err)
	}

	transcript, err := s.sessions.Read(ctx, input.SessionID)
	if err != nil {
		return nil, errors.NewSessionWriteFailedError(input.SessionID, err)
	}

	raw, err := s.model.Complete(ctx, extractionSystemPrompt, s.buildUserPrompt(input, transcript))
	if err != nil {
		return nil, err
	}

	parsed, err := llmjson.Extract(raw)
	if err != nil {
		return nil, errors.NewExtractionFailedError(raw, err)
	}

	fields := coerceFields(parsed)

	if err := s.sessions.Append(ctx, input.SessionID, session.RoleAssistant, raw); err != nil {
		s.logger.Warn("failed to record assistant turn", map[string]interface{}{
			"sessionId": input.SessionID,
			"error":     err.Error(),
		})
	}

	s.logger.Info("extraction complete", map[string]interface{}{
		"sessionId":    input.SessionID,
		"missingCount": len(fields.Missing()),
	})

	return &Output{Fields: fields, RawResponse: raw}, nil
}

const extractionSystemPrompt = `You are an onboarding assistant for an NGO that trains underprivileged youth.
From the conversation transcript, extract the applicant's details into a JSON object with exactly these keys:
"Full Name", "Aadhaar Number", "Date of Birth", "Education Level", "Parents' Occupation", "Interests", "Previous Experience", "Skills".
For any detail the applicant has not supplied anywhere in the conversation, use the exact string "Not Provided".
Respond with the JSON object only. No prose, no markdown fences.`

func (s *Service) buildUserPrompt(input *Input, transcript string) string {
	var b strings.Builder
	b.WriteString("Conversation so far:\n\n")
	b.WriteString(transcript)
	b.WriteString(fmt.Sprintf("\nThe applicant's display name on the chat is %q.\n", input.SenderName))
	b.WriteString("Extract the applicant details now.")
	return b.String()
}

// coerceFields maps the parsed model object onto the closed field
// schema. Keys the model omitted, and values that are not strings or
// are blank, all collapse to the sentinel.
func coerceFields(parsed map[string]interface{}) models.ApplicantFields {
	var fields models.ApplicantFields
	for _, name := range models.FieldSchema {
		value, ok := parsed[name].(string)
		if !ok || strings.TrimSpace(value) == "" {
			fields.Set(name, models.NotProvided)
			continue
		}
		fields.Set(name, strings.TrimSpace(value))
	}
	return fields
}
