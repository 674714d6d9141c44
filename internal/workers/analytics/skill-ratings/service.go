// Package skillratings rates student skill proficiency from quiz
// behavioral data in the warehouse. One model call covers all quizzes;
// the answer is the top five general skill categories on a 0-10 scale.
package skillratings

import (
	"context"
	"encoding/json"
	"fmt"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/genai"
	"magicbus-backend/internal/llmjson"
	"magicbus-backend/internal/models"
	"magicbus-backend/internal/warehouse"
)

const attemptsSQL = `SELECT q1.question_text, q2.quiz_title, q3.attempt_number,
	q4.confidence_level, q4.is_correct, q4.hint_used, q4.time_taken_seconds
FROM quiz_questions q1
JOIN quizzes q2 ON q1.quiz_id = q2.quiz_id
JOIN quiz_attempts q3 ON q1.quiz_id = q3.quiz_id
JOIN quiz_responses q4 ON q1.question_id = q4.question_id`

type Service struct {
	config    *Config
	model     genai.Model
	warehouse *warehouse.Client
	logger    logger.Logger
}

func NewService(config *Config, model genai.Model, wh *warehouse.Client, log logger.Logger) *Service {
	return &Service{
		config:    config,
		model:     model,
		warehouse: wh,
		logger:    log.WithFields(map[string]interface{}{"worker": "skill-ratings"}),
	}
}

// Execute pulls the quiz data, asks the model for an assessment and
// returns the parsed ratings.
func (s *Service) Execute(ctx context.Context) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	records, err := s.warehouse.ExecuteQuery(ctx, attemptsSQL)
	if err != nil {
		return nil, err
	}

	grouped := s.groupByQuiz(records)
	payload, err := json.Marshal(grouped)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quiz data: %w", err)
	}

	raw, err := s.model.Complete(ctx, assessmentSystemPrompt,
		"Evaluate the following skill data and return the skill ratings as instructed.\n"+string(payload))
	if err != nil {
		return nil, err
	}

	output, err := parseAssessment(raw)
	if err != nil {
		return nil, errors.NewExtractionFailedError(raw, err)
	}

	s.logger.Info("skill assessment complete", map[string]interface{}{
		"quizzes": len(grouped),
		"skills":  len(output.TopSkills),
	})
	return output, nil
}

// groupByQuiz shapes warehouse rows into per-quiz attempt lists, capped
// at the configured sample size per quiz.
func (s *Service) groupByQuiz(records []map[string]interface{}) map[string][]QuizAttempt {
	grouped := make(map[string][]QuizAttempt)
	for _, rec := range records {
		title, _ := rec["quiz_title"].(string)
		if title == "" {
			continue
		}
		if len(grouped[title]) >= s.config.SamplePerQuiz {
			continue
		}
		grouped[title] = append(grouped[title], QuizAttempt{
			QuestionText:     asString(rec["question_text"]),
			IsCorrect:        asBool(rec["is_correct"]),
			AttemptNumber:    int(asFloat(rec["attempt_number"])),
			HintUsed:         asBool(rec["hint_used"]),
			ConfidenceLevel:  asString(rec["confidence_level"]),
			TimeTakenSeconds: asFloat(rec["time_taken_seconds"]),
		})
	}
	return grouped
}

func parseAssessment(raw string) (*Output, error) {
	parsed, err := llmjson.Extract(raw)
	if err != nil {
		return nil, err
	}

	skills, ok := parsed["top_5_skills"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("top_5_skills missing or not a list")
	}
	if len(skills) > 5 {
		return nil, fmt.Errorf("expected at most 5 skills, got %d", len(skills))
	}

	output := &Output{}
	for _, entry := range skills {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("skill entry is not an object")
		}
		name, _ := m["skill"].(string)
		rating, ok := m["rating"].(float64)
		if name == "" || !ok {
			return nil, fmt.Errorf("skill entry missing skill or rating")
		}
		if rating < 0 || rating > 10 {
			return nil, fmt.Errorf("rating %v out of range", rating)
		}
		output.TopSkills = append(output.TopSkills, models.SkillRating{Skill: name, Rating: int(rating)})
	}
	return output, nil
}

const assessmentSystemPrompt = `You are an expert skill assessment evaluator.

INPUT:
You will receive a JSON object where:
- Each top-level key represents a skill (quiz title).
- The value for each key is a list of question attempts related to that skill.
- Each question attempt contains behavioral data such as correctness, confidence, hint usage, and time taken.

TASK:
For each quiz title (skill):
1. Analyze the associated attempts.
2. Assign a proficiency rating for that skill on a scale from 0 to 10.

SCORING SCALE:
- 0-2  : Very weak
- 3-4  : Weak
- 5-6  : Average
- 7-8  : Strong
- 9-10 : Excellent

GROUPING:
Group skills into general categories: AI, Life Skills, Social Media, Technical Skills, Security Awareness.

Return only the top 5 general skill categories with their corresponding rating.

OUTPUT FORMAT (STRICT):
{
  "top_5_skills": [
    {"skill": "<Skill Category>", "rating": <rating out of 10>}
  ]
}

The output should be strictly in this format, and you should include only the top 5 skills based on their proficiency ratings.`

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "t" || b == "1"
	case int64:
		return b != 0
	case float64:
		return b != 0
	}
	return false
}

func asFloat(v interface{}) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	}
	return 0
}
