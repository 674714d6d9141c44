package extractapplicantinfo

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/models"
	"magicbus-backend/internal/session"
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

func newTestService(t *testing.T, model *fakeModel) (*Service, *session.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := session.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewService(LoadConfig(), model, store, logger.NewNoOpLogger()), store
}

func TestExtract(t *testing.T) {
	model := &fakeModel{response: "```json\n" + `{
		"Full Name": "Asha Kumari",
		"Aadhaar Number": "Not Provided",
		"Date of Birth": "Not Provided",
		"Education Level": "10th pass",
		"Parents' Occupation": "Not Provided",
		"Interests": "Not Provided",
		"Previous Experience": "Not Provided",
		"Skills": "Not Provided"
	}` + "\n```"}
	svc, _ := newTestService(t, model)

	out, err := svc.Extract(context.Background(), &Input{
		SessionID:  "919876543210@c.us",
		SenderName: "Asha",
		Message:    "My name is Asha Kumari, I finished 10th",
	})

	require.NoError(t, err)
	assert.Equal(t, "Asha Kumari", out.Fields.FullName)
	assert.Equal(t, "10th pass", out.Fields.EducationLevel)
	assert.Equal(t, models.NotProvided, out.Fields.Skills)
	assert.Len(t, out.Fields.Missing(), 6)
	assert.Contains(t, model.sawUser, "My name is Asha Kumari")
	assert.Contains(t, model.sawUser, `"Asha"`)
}

func TestExtract_OmittedKeysBecomeNotProvided(t *testing.T) {
	model := &fakeModel{response: `{"Full Name": "Ravi", "Education Level": ""}`}
	svc, _ := newTestService(t, model)

	out, err := svc.Extract(context.Background(), &Input{SessionID: "s1", Message: "I am Ravi"})

	require.NoError(t, err)
	assert.Equal(t, "Ravi", out.Fields.FullName)
	assert.Equal(t, models.NotProvided, out.Fields.EducationLevel)
	assert.Equal(t, models.NotProvided, out.Fields.AadhaarNumber)
}

func TestExtract_ModelFailureKeepsUserTurn(t *testing.T) {
	model := &fakeModel{err: errors.NewModelCallFailedError(assert.AnError)}
	svc, store := newTestService(t, model)

	_, err := svc.Extract(context.Background(), &Input{SessionID: "s1", Message: "hello there"})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeModelCallFailed, errors.CodeOf(err))

	transcript, readErr := store.Read(context.Background(), "s1")
	require.NoError(t, readErr)
	assert.Contains(t, transcript, "Content: hello there")
}

func TestExtract_UnparseableResponse(t *testing.T) {
	model := &fakeModel{response: "I'm sorry, I cannot help with that."}
	svc, _ := newTestService(t, model)

	_, err := svc.Extract(context.Background(), &Input{SessionID: "s1", Message: "hi"})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExtractionFailed, errors.CodeOf(err))
}

func TestExtract_TranscriptAccumulatesAcrossTurns(t *testing.T) {
	model := &fakeModel{response: `{"Full Name": "Asha"}`}
	svc, _ := newTestService(t, model)

	_, err := svc.Extract(context.Background(), &Input{SessionID: "s1", Message: "first message"})
	require.NoError(t, err)

	_, err = svc.Extract(context.Background(), &Input{SessionID: "s1", Message: "second message"})
	require.NoError(t, err)

	assert.Contains(t, model.sawUser, "first message")
	assert.Contains(t, model.sawUser, "second message")
}
