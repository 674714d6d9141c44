package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magicbus-backend/internal/common/config"
	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/dedup"
	"magicbus-backend/internal/models"
	evaluatecompleteness "magicbus-backend/internal/workers/onboarding/evaluate-completeness"
	extractapplicantinfo "magicbus-backend/internal/workers/onboarding/extract-applicant-info"
	verifydocument "magicbus-backend/internal/workers/onboarding/verify-document"
)

type fakeTransport struct {
	events     []models.InboundEvent
	fetchErr   error
	sent       []models.Reply
	sendErr    error
	media      map[string][]byte
	markedRead bool
}

func (f *fakeTransport) FetchUnread(ctx context.Context) ([]models.InboundEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.events, nil
}

func (f *fakeTransport) SendText(ctx context.Context, reply models.Reply) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, reply)
	return nil
}

func (f *fakeTransport) FetchMedia(ctx context.Context, mediaRef string) ([]byte, error) {
	if media, ok := f.media[mediaRef]; ok {
		return media, nil
	}
	return nil, errors.NewMediaFetchFailedError(mediaRef, assert.AnError)
}

func (f *fakeTransport) MarkAllRead(ctx context.Context) error {
	f.markedRead = true
	return nil
}

type fakeExtractor struct {
	fields map[string]models.ApplicantFields
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, input *extractapplicantinfo.Input) (*extractapplicantinfo.Output, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &extractapplicantinfo.Output{Fields: f.fields[input.SessionID]}, nil
}

type fakeVerifier struct {
	verdict models.AuthenticityVerdict
}

func (f *fakeVerifier) Execute(ctx context.Context, input *verifydocument.Input) (*verifydocument.Output, error) {
	v := f.verdict
	v.SessionID = input.SessionID
	v.ContactID = input.ContactID
	return &verifydocument.Output{Verdict: v}, nil
}

type fakeApplicants struct {
	inserted []*models.ApplicantRecord
	err      error
}

func (f *fakeApplicants) Insert(ctx context.Context, record *models.ApplicantRecord) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, record)
	return nil
}

type fakeVerdicts struct {
	inserted []*models.AuthenticityVerdict
}

func (f *fakeVerdicts) Insert(ctx context.Context, verdict *models.AuthenticityVerdict) error {
	f.inserted = append(f.inserted, verdict)
	return nil
}

type fakeNotifier struct {
	notified []*models.AuthenticityVerdict
}

func (f *fakeNotifier) NotifyEscalation(ctx context.Context, verdict *models.AuthenticityVerdict) error {
	f.notified = append(f.notified, verdict)
	return nil
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "[" + targetLang + "] " + text, nil
}

func completeFields() models.ApplicantFields {
	var fields models.ApplicantFields
	for _, name := range models.FieldSchema {
		fields.Set(name, "value")
	}
	return fields
}

func partialFields() models.ApplicantFields {
	fields := completeFields()
	fields.Set(models.FieldAadhaarNumber, models.NotProvided)
	return fields
}

func chatEvent(sender, body string) models.InboundEvent {
	return models.InboundEvent{
		SenderName: "Asha",
		SenderID:   sender,
		Kind:       models.EventKindChat,
		Body:       body,
	}
}

type fixture struct {
	transport  *fakeTransport
	extractor  *fakeExtractor
	verifier   *fakeVerifier
	applicants *fakeApplicants
	verdicts   *fakeVerdicts
	notifier   *fakeNotifier
	orch       *Orchestrator
}

func newFixture(cfg config.OnboardingConfig, transport *fakeTransport, extractor *fakeExtractor, verifier *fakeVerifier) *fixture {
	f := &fixture{
		transport:  transport,
		extractor:  extractor,
		verifier:   verifier,
		applicants: &fakeApplicants{},
		verdicts:   &fakeVerdicts{},
		notifier:   &fakeNotifier{},
	}
	f.orch = New(cfg, transport, extractor, evaluatecompleteness.NewService(), verifier,
		f.applicants, f.verdicts, dedup.NewSeenSet(),
		Options{Notifier: f.notifier}, logger.NewNoOpLogger())
	return f
}

func TestRunBatch_IncompleteSubjectGetsFollowUp(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{chatEvent("a@c.us", "hello")}}
	extractor := &fakeExtractor{fields: map[string]models.ApplicantFields{"a@c.us": partialFields()}}
	f := newFixture(config.OnboardingConfig{}, transport, extractor, &fakeVerifier{})

	require.NoError(t, f.orch.RunBatch(context.Background()))

	require.Len(t, transport.sent, 1)
	assert.True(t, strings.HasPrefix(transport.sent[0].Message, "Hi Asha,\n"))
	assert.Contains(t, transport.sent[0].Message, models.FieldAadhaarNumber)
	assert.Empty(t, f.applicants.inserted)
	assert.True(t, transport.markedRead)
}

func TestRunBatch_CompleteSubjectIsPersistedThenReplied(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{chatEvent("a@c.us", "all details")}}
	extractor := &fakeExtractor{fields: map[string]models.ApplicantFields{"a@c.us": completeFields()}}
	f := newFixture(config.OnboardingConfig{}, transport, extractor, &fakeVerifier{})

	require.NoError(t, f.orch.RunBatch(context.Background()))

	require.Len(t, f.applicants.inserted, 1)
	assert.Equal(t, "a@c.us", f.applicants.inserted[0].ContactID)
	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0].Message, evaluatecompleteness.CompleteMessage)
}

func TestRunBatch_DuplicateApplicantIsLoggedConflict(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{chatEvent("a@c.us", "all details")}}
	extractor := &fakeExtractor{fields: map[string]models.ApplicantFields{"a@c.us": completeFields()}}
	f := newFixture(config.OnboardingConfig{}, transport, extractor, &fakeVerifier{})
	f.applicants.err = errors.NewDuplicateApplicantError("a@c.us")

	require.NoError(t, f.orch.RunBatch(context.Background()))

	// The subject still hears back even though the record already exists.
	require.Len(t, transport.sent, 1)
}

func TestRunBatch_InsertFailureDropsCompletionReply(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{chatEvent("a@c.us", "all details")}}
	extractor := &fakeExtractor{fields: map[string]models.ApplicantFields{"a@c.us": completeFields()}}
	f := newFixture(config.OnboardingConfig{}, transport, extractor, &fakeVerifier{})
	f.applicants.err = errors.NewDatabaseInsertFailedError(assert.AnError)

	require.NoError(t, f.orch.RunBatch(context.Background()))

	assert.Empty(t, transport.sent)
}

func TestRunBatch_FatalErrorAbortsBatch(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{chatEvent("a@c.us", "all details")}}
	extractor := &fakeExtractor{fields: map[string]models.ApplicantFields{"a@c.us": completeFields()}}
	f := newFixture(config.OnboardingConfig{}, transport, extractor, &fakeVerifier{})
	f.applicants.err = errors.NewDatabaseConnectionFailedError(assert.AnError)

	err := f.orch.RunBatch(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDatabaseConnectionFailed, errors.CodeOf(err))
	assert.Empty(t, transport.sent)
}

func TestRunBatch_ExcludedSenderSkipped(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{chatEvent("919146623526@c.us", "admin ping")}}
	extractor := &fakeExtractor{}
	cfg := config.OnboardingConfig{ExcludedSenders: []string{"919146623526@c.us"}}
	f := newFixture(cfg, transport, extractor, &fakeVerifier{})

	require.NoError(t, f.orch.RunBatch(context.Background()))

	assert.Zero(t, extractor.calls)
	assert.Empty(t, transport.sent)
}

func TestRunBatch_DuplicateEventProcessedOnce(t *testing.T) {
	event := chatEvent("a@c.us", "hello")
	transport := &fakeTransport{events: []models.InboundEvent{event, event}}
	extractor := &fakeExtractor{fields: map[string]models.ApplicantFields{"a@c.us": partialFields()}}
	f := newFixture(config.OnboardingConfig{}, transport, extractor, &fakeVerifier{})

	require.NoError(t, f.orch.RunBatch(context.Background()))

	assert.Equal(t, 1, extractor.calls)
	assert.Len(t, transport.sent, 1)
}

func TestRunBatch_DedupSpansBatches(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{chatEvent("a@c.us", "hello")}}
	extractor := &fakeExtractor{fields: map[string]models.ApplicantFields{"a@c.us": partialFields()}}
	f := newFixture(config.OnboardingConfig{}, transport, extractor, &fakeVerifier{})

	require.NoError(t, f.orch.RunBatch(context.Background()))
	require.NoError(t, f.orch.RunBatch(context.Background()))

	assert.Equal(t, 1, extractor.calls)
}

func TestRunBatch_TransportUnavailable(t *testing.T) {
	transport := &fakeTransport{fetchErr: errors.NewTransportUnavailableError(assert.AnError)}
	f := newFixture(config.OnboardingConfig{}, transport, &fakeExtractor{}, &fakeVerifier{})

	err := f.orch.RunBatch(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransportUnavailable, errors.CodeOf(err))
	assert.Empty(t, transport.sent)
	assert.False(t, transport.markedRead)
}

func TestRunBatch_ExtractionFailureIsolatedPerSubject(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{
		chatEvent("bad@c.us", "garbled"),
		chatEvent("good@c.us", "hello"),
	}}
	extractor := &failOnceExtractor{
		failFor: "bad@c.us",
		fields:  map[string]models.ApplicantFields{"good@c.us": partialFields()},
	}
	f := &fixture{transport: transport, applicants: &fakeApplicants{}, verdicts: &fakeVerdicts{}}
	f.orch = New(config.OnboardingConfig{}, transport, extractor, evaluatecompleteness.NewService(),
		&fakeVerifier{}, f.applicants, f.verdicts, dedup.NewSeenSet(), Options{}, logger.NewNoOpLogger())

	require.NoError(t, f.orch.RunBatch(context.Background()))

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "good@c.us", transport.sent[0].To)
}

type failOnceExtractor struct {
	failFor string
	fields  map[string]models.ApplicantFields
}

func (f *failOnceExtractor) Extract(ctx context.Context, input *extractapplicantinfo.Input) (*extractapplicantinfo.Output, error) {
	if input.SessionID == f.failFor {
		return nil, errors.NewExtractionFailedError("garbled", assert.AnError)
	}
	return &extractapplicantinfo.Output{Fields: f.fields[input.SessionID]}, nil
}

func TestRunBatch_ImageEventProducesVerdictAndReply(t *testing.T) {
	transport := &fakeTransport{
		events: []models.InboundEvent{{
			SenderName: "Asha",
			SenderID:   "a@c.us",
			Kind:       models.EventKindImage,
			MediaRef:   "media-1",
		}},
		media: map[string][]byte{"media-1": {0x01}},
	}
	verifier := &fakeVerifier{verdict: models.AuthenticityVerdict{
		ID:      "v1",
		Score:   8,
		Tier:    models.TierAccept,
		Message: models.MsgDocumentAccepted,
	}}
	f := newFixture(config.OnboardingConfig{}, transport, &fakeExtractor{}, verifier)

	require.NoError(t, f.orch.RunBatch(context.Background()))

	require.Len(t, f.verdicts.inserted, 1)
	assert.Equal(t, "a@c.us", f.verdicts.inserted[0].ContactID)
	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0].Message, models.MsgDocumentAccepted)
	assert.Empty(t, f.notifier.notified)
}

func TestRunBatch_EscalatedVerdictNotifiesStaff(t *testing.T) {
	transport := &fakeTransport{
		events: []models.InboundEvent{{
			SenderID: "a@c.us",
			Kind:     models.EventKindImage,
			MediaRef: "media-1",
		}},
		media: map[string][]byte{"media-1": {0x01}},
	}
	verifier := &fakeVerifier{verdict: models.AuthenticityVerdict{
		ID:      "v2",
		Score:   4,
		Tier:    models.TierEscalate,
		Message: models.MsgDocumentEscalated,
	}}
	f := newFixture(config.OnboardingConfig{}, transport, &fakeExtractor{}, verifier)

	require.NoError(t, f.orch.RunBatch(context.Background()))

	require.Len(t, f.notifier.notified, 1)
	assert.Equal(t, "v2", f.notifier.notified[0].ID)
}

func TestRunBatch_MediaFetchFailureFailsClosed(t *testing.T) {
	transport := &fakeTransport{
		events: []models.InboundEvent{{
			SenderID: "a@c.us",
			Kind:     models.EventKindImage,
			MediaRef: "missing",
		}},
	}
	f := newFixture(config.OnboardingConfig{}, transport, &fakeExtractor{}, &fakeVerifier{})

	require.NoError(t, f.orch.RunBatch(context.Background()))

	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0].Message, models.MsgDocumentError)
	require.Len(t, f.verdicts.inserted, 1)
	assert.Equal(t, 0, f.verdicts.inserted[0].Score)
}

func TestRunBatch_RepliesTranslated(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{chatEvent("a@c.us", "hello")}}
	extractor := &fakeExtractor{fields: map[string]models.ApplicantFields{"a@c.us": partialFields()}}
	cfg := config.OnboardingConfig{ReplyLanguage: "hi"}
	f := &fixture{transport: transport, applicants: &fakeApplicants{}, verdicts: &fakeVerdicts{}}
	f.orch = New(cfg, transport, extractor, evaluatecompleteness.NewService(), &fakeVerifier{},
		f.applicants, f.verdicts, dedup.NewSeenSet(),
		Options{Translator: &fakeTranslator{}}, logger.NewNoOpLogger())

	require.NoError(t, f.orch.RunBatch(context.Background()))

	require.Len(t, transport.sent, 1)
	assert.True(t, strings.HasPrefix(transport.sent[0].Message, "[hi] Hi Asha,"))
}

func TestRunBatch_TranslationFailureFallsBackToEnglish(t *testing.T) {
	transport := &fakeTransport{events: []models.InboundEvent{chatEvent("a@c.us", "hello")}}
	extractor := &fakeExtractor{fields: map[string]models.ApplicantFields{"a@c.us": partialFields()}}
	cfg := config.OnboardingConfig{ReplyLanguage: "hi"}
	f := &fixture{transport: transport, applicants: &fakeApplicants{}, verdicts: &fakeVerdicts{}}
	f.orch = New(cfg, transport, extractor, evaluatecompleteness.NewService(), &fakeVerifier{},
		f.applicants, f.verdicts, dedup.NewSeenSet(),
		Options{Translator: &fakeTranslator{err: errors.NewTranslationFailedError("hi", assert.AnError)}},
		logger.NewNoOpLogger())

	require.NoError(t, f.orch.RunBatch(context.Background()))

	require.Len(t, transport.sent, 1)
	assert.True(t, strings.HasPrefix(transport.sent[0].Message, "Hi Asha,\n"))
}
