package verifydocument

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

type fakeOCR struct {
	text string
}

func (f *fakeOCR) ExtractText(ctx context.Context, image []byte) string {
	return f.text
}

func newTestService(t *testing.T, model *fakeModel, extractor *fakeOCR) (*Service, *session.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := session.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewService(LoadConfig(), model, extractor, store, logger.NewNoOpLogger()), store
}

func TestExecute_Accept(t *testing.T) {
	model := &fakeModel{response: `{"score": 8}`}
	svc, store := newTestService(t, model, &fakeOCR{text: "Aadhaar 1234 5678 9012 Asha Kumari"})
	require.NoError(t, store.Append(context.Background(), "s1", session.RoleUser, "My name is Asha Kumari"))

	out, err := svc.Execute(context.Background(), &Input{SessionID: "s1", ContactID: "s1", Image: []byte{1}})

	require.NoError(t, err)
	assert.Equal(t, 8, out.Verdict.Score)
	assert.Equal(t, models.TierAccept, out.Verdict.Tier)
	assert.Equal(t, models.MsgDocumentAccepted, out.Verdict.Message)
	assert.False(t, out.Degraded)
	assert.NotEmpty(t, out.Verdict.ID)
	assert.Contains(t, model.sawUser, "Aadhaar 1234 5678 9012")
	assert.Contains(t, model.sawUser, "My name is Asha Kumari")
}

func TestExecute_Escalate(t *testing.T) {
	model := &fakeModel{response: `{"score": 4}`}
	svc, _ := newTestService(t, model, &fakeOCR{text: "blurry text"})

	out, err := svc.Execute(context.Background(), &Input{SessionID: "s1", Image: []byte{1}})

	require.NoError(t, err)
	assert.Equal(t, models.TierEscalate, out.Verdict.Tier)
	assert.Equal(t, models.MsgDocumentEscalated, out.Verdict.Message)
}

func TestExecute_Reject(t *testing.T) {
	model := &fakeModel{response: `{"score": 1}`}
	svc, _ := newTestService(t, model, &fakeOCR{text: "shopping list"})

	out, err := svc.Execute(context.Background(), &Input{SessionID: "s1", Image: []byte{1}})

	require.NoError(t, err)
	assert.Equal(t, models.TierReject, out.Verdict.Tier)
	assert.Equal(t, models.MsgDocumentRejected, out.Verdict.Message)
}

func TestExecute_ModelFailureFailsClosed(t *testing.T) {
	model := &fakeModel{err: errors.NewModelCallFailedError(assert.AnError)}
	svc, _ := newTestService(t, model, &fakeOCR{text: "some text"})

	out, err := svc.Execute(context.Background(), &Input{SessionID: "s1", Image: []byte{1}})

	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Equal(t, 0, out.Verdict.Score)
	assert.Equal(t, models.TierReject, out.Verdict.Tier)
	assert.Equal(t, models.MsgDocumentError, out.Verdict.Message)
}

func TestExecute_UnparseableAnswerFailsClosed(t *testing.T) {
	model := &fakeModel{response: "the document looks fine to me"}
	svc, _ := newTestService(t, model, &fakeOCR{text: "some text"})

	out, err := svc.Execute(context.Background(), &Input{SessionID: "s1", Image: []byte{1}})

	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Equal(t, models.MsgDocumentError, out.Verdict.Message)
}

func TestExecute_MissingScoreKeyScoresZero(t *testing.T) {
	model := &fakeModel{response: `{"confidence": "high"}`}
	svc, _ := newTestService(t, model, &fakeOCR{text: "some text"})

	out, err := svc.Execute(context.Background(), &Input{SessionID: "s1", Image: []byte{1}})

	require.NoError(t, err)
	assert.Equal(t, 0, out.Verdict.Score)
	assert.Equal(t, models.TierReject, out.Verdict.Tier)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 10, clampScore(float64(15)))
	assert.Equal(t, 0, clampScore(float64(-3)))
	assert.Equal(t, 7, clampScore("7"))
	assert.Equal(t, 0, clampScore(nil))
	assert.Equal(t, 0, clampScore(true))
}
