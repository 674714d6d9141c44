package skillratings

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/warehouse"
)

type fakeModel struct {
	response string
	err      error
	sawUser  string
}

func (f *fakeModel) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.sawUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func attemptRows() *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"question_text", "quiz_title", "attempt_number",
		"confidence_level", "is_correct", "hint_used", "time_taken_seconds",
	})
	rows.AddRow("What is phishing?", "Phishing Awareness Quiz", int64(1), "high", true, false, 12.5)
	rows.AddRow("Pick a strong password", "Password Basics Quiz", int64(2), "low", false, true, 40.0)
	return rows
}

func newTestService(t *testing.T, model *fakeModel) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wh := warehouse.NewClientWithDB(db, "hackathon", "apac", logger.NewNoOpLogger())
	return NewService(LoadConfig(), model, wh, logger.NewNoOpLogger()), mock
}

func TestExecute(t *testing.T) {
	model := &fakeModel{response: `{"top_5_skills": [
		{"skill": "Security Awareness", "rating": 6},
		{"skill": "Technical Skills", "rating": 4}
	]}`}
	svc, mock := newTestService(t, model)
	mock.ExpectQuery("FROM quiz_questions").WillReturnRows(attemptRows())

	out, err := svc.Execute(context.Background())

	require.NoError(t, err)
	require.Len(t, out.TopSkills, 2)
	assert.Equal(t, "Security Awareness", out.TopSkills[0].Skill)
	assert.Equal(t, 6, out.TopSkills[0].Rating)
	assert.Contains(t, model.sawUser, "Phishing Awareness Quiz")
	assert.Contains(t, model.sawUser, "What is phishing?")
}

func TestExecute_UnparseableAnswer(t *testing.T) {
	model := &fakeModel{response: "the student is doing great"}
	svc, mock := newTestService(t, model)
	mock.ExpectQuery("FROM quiz_questions").WillReturnRows(attemptRows())

	_, err := svc.Execute(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExtractionFailed, errors.CodeOf(err))
}

func TestParseAssessment_RejectsTooManySkills(t *testing.T) {
	_, err := parseAssessment(`{"top_5_skills": [
		{"skill": "A", "rating": 1}, {"skill": "B", "rating": 2},
		{"skill": "C", "rating": 3}, {"skill": "D", "rating": 4},
		{"skill": "E", "rating": 5}, {"skill": "F", "rating": 6}
	]}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 5")
}

func TestParseAssessment_RejectsOutOfRangeRating(t *testing.T) {
	_, err := parseAssessment(`{"top_5_skills": [{"skill": "AI", "rating": 12}]}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestGroupByQuiz_SampleCap(t *testing.T) {
	svc := &Service{config: &Config{SamplePerQuiz: 2}}

	records := make([]map[string]interface{}, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, map[string]interface{}{
			"quiz_title":    "Budgeting Quiz",
			"question_text": "q",
		})
	}

	grouped := svc.groupByQuiz(records)
	assert.Len(t, grouped["Budgeting Quiz"], 2)
}
