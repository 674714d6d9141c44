// Package orchestrator drives the onboarding batch cycle: pull unread
// messages off the bridge, run chat events through extraction and the
// completeness gate, run image events through document verification,
// then persist completed records and deliver every staged reply.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"magicbus-backend/internal/common/config"
	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/common/metrics"
	"magicbus-backend/internal/common/observability"
	"magicbus-backend/internal/dedup"
	"magicbus-backend/internal/models"
	evaluatecompleteness "magicbus-backend/internal/workers/onboarding/evaluate-completeness"
	extractapplicantinfo "magicbus-backend/internal/workers/onboarding/extract-applicant-info"
	verifydocument "magicbus-backend/internal/workers/onboarding/verify-document"
)

// Transport is the chat bridge boundary.
type Transport interface {
	FetchUnread(ctx context.Context) ([]models.InboundEvent, error)
	SendText(ctx context.Context, reply models.Reply) error
	FetchMedia(ctx context.Context, mediaRef string) ([]byte, error)
	MarkAllRead(ctx context.Context) error
}

// Extractor turns one chat message into the merged field state.
type Extractor interface {
	Extract(ctx context.Context, input *extractapplicantinfo.Input) (*extractapplicantinfo.Output, error)
}

// Verifier scores one submitted document.
type Verifier interface {
	Execute(ctx context.Context, input *verifydocument.Input) (*verifydocument.Output, error)
}

// ApplicantStore persists completed onboarding records.
type ApplicantStore interface {
	Insert(ctx context.Context, record *models.ApplicantRecord) error
}

// VerdictStore persists document check outcomes.
type VerdictStore interface {
	Insert(ctx context.Context, verdict *models.AuthenticityVerdict) error
}

// ApplicantIndexer mirrors onboarded records into the search index.
type ApplicantIndexer interface {
	IndexApplicant(ctx context.Context, record *models.ApplicantRecord) error
}

// EscalationNotifier alerts staff about escalated verdicts.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, verdict *models.AuthenticityVerdict) error
}

// Translator renders replies in the applicant's language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type Orchestrator struct {
	config     config.OnboardingConfig
	transport  Transport
	extractor  Extractor
	gate       *evaluatecompleteness.Service
	verifier   Verifier
	applicants ApplicantStore
	verdicts   VerdictStore
	indexer    ApplicantIndexer
	notifier   EscalationNotifier
	translator Translator
	seen       *dedup.SeenSet
	obs        *observability.Observability
	logger     logger.Logger
}

// Options carries the optional collaborators. Nil members disable the
// corresponding side effect without changing the core pipeline.
type Options struct {
	Indexer    ApplicantIndexer
	Notifier   EscalationNotifier
	Translator Translator
	Obs        *observability.Observability
}

func New(
	cfg config.OnboardingConfig,
	transport Transport,
	extractor Extractor,
	gate *evaluatecompleteness.Service,
	verifier Verifier,
	applicants ApplicantStore,
	verdicts VerdictStore,
	seen *dedup.SeenSet,
	opts Options,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:     cfg,
		transport:  transport,
		extractor:  extractor,
		gate:       gate,
		verifier:   verifier,
		applicants: applicants,
		verdicts:   verdicts,
		indexer:    opts.Indexer,
		notifier:   opts.Notifier,
		translator: opts.Translator,
		seen:       seen,
		obs:        opts.Obs,
		logger:     log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// pendingRecord is a completed applicant awaiting the load phase.
type pendingRecord struct {
	record *models.ApplicantRecord
	// replyIdx points at the staged completion reply; dropped when the
	// record cannot be persisted.
	replyIdx int
}

// Run polls in a loop until the context is cancelled. A failed cycle is
// logged and the loop continues on the next tick.
func (o *Orchestrator) Run(ctx context.Context) error {
	interval := time.Duration(o.config.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := o.RunBatch(ctx); err != nil {
			o.logger.Error("batch cycle failed", map[string]interface{}{
				"error": err.Error(),
			})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunBatch executes one extract, transform, load cycle.
func (o *Orchestrator) RunBatch(ctx context.Context) error {
	runID := uuid.NewString()
	start := time.Now()
	log := o.logger.WithFields(map[string]interface{}{"runId": runID})

	err := o.runBatch(ctx, log)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BatchCyclesTotal.WithLabelValues(status).Inc()
	metrics.BatchDuration.Observe(time.Since(start).Seconds())
	if o.obs != nil {
		o.obs.RecordBatchProcessed(ctx, status)
		o.obs.RecordBatchDuration(ctx, time.Since(start), status)
	}
	return err
}

func (o *Orchestrator) runBatch(ctx context.Context, log logger.Logger) error {
	// Extract phase: one pull of everything currently unread.
	events, err := o.transport.FetchUnread(ctx)
	if err != nil {
		log.Warn("transport unavailable, batch yields no events", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	if len(events) == 0 {
		log.Debug("no unread messages", nil)
		return nil
	}

	// Transform phase: per-subject processing with error isolation.
	var replies []models.Reply
	var pending []pendingRecord
	var verdicts []*models.AuthenticityVerdict

	for _, event := range events {
		if o.isExcluded(event.SenderID) {
			metrics.EventsSkipped.WithLabelValues("excluded").Inc()
			continue
		}
		if o.seen.Seen(event.SenderID, event.Body+event.MediaRef) {
			metrics.EventsSkipped.WithLabelValues("duplicate").Inc()
			continue
		}
		metrics.EventsProcessed.WithLabelValues(string(event.Kind)).Inc()

		switch event.Kind {
		case models.EventKindImage:
			verdict := o.processImage(ctx, log, event)
			if verdict != nil {
				verdicts = append(verdicts, verdict)
				replies = append(replies, o.buildReply(event, verdict.Message))
			}
		default:
			record, message, err := o.processChat(ctx, log, event)
			if err != nil {
				if errors.IsFatalToBatch(err) {
					return err
				}
				metrics.ExtractionFailures.Inc()
				log.Error("event processing failed, subject skipped", map[string]interface{}{
					"senderId": event.SenderID,
					"error":    err.Error(),
				})
				continue
			}
			replies = append(replies, o.buildReply(event, message))
			if record != nil {
				pending = append(pending, pendingRecord{record: record, replyIdx: len(replies) - 1})
			}
		}
	}

	// Load phase: records land before their completion replies go out.
	dropped := make(map[int]bool)
	for _, p := range pending {
		if err := o.persistRecord(ctx, log, p.record); err != nil {
			if errors.IsFatalToBatch(err) {
				return err
			}
			dropped[p.replyIdx] = true
		}
	}

	for _, v := range verdicts {
		if err := o.verdicts.Insert(ctx, v); err != nil {
			if errors.IsFatalToBatch(err) {
				return err
			}
			log.Error("verdict persistence failed", map[string]interface{}{
				"verdictId": v.ID,
				"error":     err.Error(),
			})
		}
	}

	for i, reply := range replies {
		if dropped[i] {
			metrics.RepliesSent.WithLabelValues("dropped").Inc()
			continue
		}
		o.sendReply(ctx, log, reply)
	}

	if err := o.transport.MarkAllRead(ctx); err != nil {
		log.Warn("failed to acknowledge messages, next batch will re-filter them", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("batch complete", map[string]interface{}{
		"events":  len(events),
		"replies": len(replies),
		"records": len(pending),
	})
	return nil
}

// processChat runs extraction and the completeness gate. It returns a
// non-nil record when the subject finished onboarding this turn.
func (o *Orchestrator) processChat(ctx context.Context, log logger.Logger, event models.InboundEvent) (*models.ApplicantRecord, string, error) {
	out, err := o.extractor.Extract(ctx, &extractapplicantinfo.Input{
		SessionID:  event.SenderID,
		SenderName: event.SenderName,
		Message:    event.Body,
	})
	if err != nil {
		return nil, "", err
	}

	complete, message := o.gate.Evaluate(out.Fields)
	if !complete {
		return nil, message, nil
	}

	record := &models.ApplicantRecord{
		ContactID:   event.SenderID,
		DisplayName: event.SenderName,
		Fields:      out.Fields,
		OnboardedAt: time.Now().UTC(),
	}
	return record, message, nil
}

// processImage fetches the media and scores it. Verification never
// blocks the batch: failures yield a fail-closed verdict so the subject
// always hears back.
func (o *Orchestrator) processImage(ctx context.Context, log logger.Logger, event models.InboundEvent) *models.AuthenticityVerdict {
	image, err := o.transport.FetchMedia(ctx, event.MediaRef)
	if err != nil {
		log.Error("media fetch failed", map[string]interface{}{
			"senderId": event.SenderID,
			"mediaRef": event.MediaRef,
			"error":    err.Error(),
		})
		return &models.AuthenticityVerdict{
			ID:        uuid.NewString(),
			SessionID: event.SenderID,
			ContactID: event.SenderID,
			Score:     0,
			Tier:      models.TierReject,
			Message:   models.MsgDocumentError,
			CreatedAt: time.Now().UTC(),
		}
	}

	out, err := o.verifier.Execute(ctx, &verifydocument.Input{
		SessionID: event.SenderID,
		ContactID: event.SenderID,
		Image:     image,
	})
	if err != nil {
		log.Error("verification failed", map[string]interface{}{
			"senderId": event.SenderID,
			"error":    err.Error(),
		})
		return nil
	}

	metrics.VerdictTiers.WithLabelValues(string(out.Verdict.Tier)).Inc()

	if out.Verdict.Tier == models.TierEscalate && o.notifier != nil {
		if err := o.notifier.NotifyEscalation(ctx, &out.Verdict); err != nil {
			log.Error("escalation notification failed", map[string]interface{}{
				"verdictId": out.Verdict.ID,
				"error":     err.Error(),
			})
		}
	}
	return &out.Verdict
}

// persistRecord inserts the applicant and mirrors it into the search
// index. A duplicate contact is a logged conflict, not a failure.
func (o *Orchestrator) persistRecord(ctx context.Context, log logger.Logger, record *models.ApplicantRecord) error {
	err := o.applicants.Insert(ctx, record)
	switch {
	case err == nil:
		metrics.SubjectsOnboarded.Inc()
	case errors.CodeOf(err) == errors.ErrCodeDuplicateApplicant:
		log.Warn("applicant already onboarded", map[string]interface{}{
			"contactId": record.ContactID,
		})
		return nil
	default:
		log.Error("applicant persistence failed", map[string]interface{}{
			"contactId": record.ContactID,
			"error":     err.Error(),
		})
		return err
	}

	if o.indexer != nil {
		if err := o.indexer.IndexApplicant(ctx, record); err != nil {
			log.Error("search indexing failed", map[string]interface{}{
				"contactId": record.ContactID,
				"error":     err.Error(),
			})
		}
	}
	return nil
}

// buildReply prefixes the greeting and renders the body in the
// configured reply language, falling back to English on failure.
func (o *Orchestrator) buildReply(event models.InboundEvent, message string) models.Reply {
	return models.Reply{
		To:      event.SenderID,
		Name:    event.SenderName,
		Message: fmt.Sprintf("Hi %s,\n%s", event.SenderName, message),
	}
}

func (o *Orchestrator) sendReply(ctx context.Context, log logger.Logger, reply models.Reply) {
	message := reply.Message
	lang := o.config.ReplyLanguage
	if o.translator != nil && lang != "" && lang != "en" {
		translated, err := o.translator.Translate(ctx, message, lang)
		if err != nil {
			log.Warn("translation degraded, sending English reply", map[string]interface{}{
				"to":    reply.To,
				"lang":  lang,
				"error": err.Error(),
			})
		} else {
			message = translated
		}
	}
	reply.Message = message

	if err := o.transport.SendText(ctx, reply); err != nil {
		metrics.RepliesSent.WithLabelValues("failed").Inc()
		log.Error("reply delivery failed", map[string]interface{}{
			"to":    reply.To,
			"error": err.Error(),
		})
		return
	}
	metrics.RepliesSent.WithLabelValues("sent").Inc()
}

func (o *Orchestrator) isExcluded(senderID string) bool {
	for _, excluded := range o.config.ExcludedSenders {
		if strings.EqualFold(excluded, senderID) {
			return true
		}
	}
	return false
}
