package skillratings

import "magicbus-backend/internal/models"

// QuizAttempt is one behavioral record pulled from the warehouse.
type QuizAttempt struct {
	QuizTitle        string  `json:"-"`
	QuestionText     string  `json:"question_text"`
	IsCorrect        bool    `json:"is_correct"`
	AttemptNumber    int     `json:"attempt_number"`
	HintUsed         bool    `json:"hint_used"`
	ConfidenceLevel  string  `json:"confidence_level"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
}

// Output is the model's skill assessment.
type Output struct {
	TopSkills []models.SkillRating `json:"top_5_skills"`
}
