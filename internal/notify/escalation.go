// Package notify alerts program staff when a document verification
// escalates for human review. Email via SES, SMS via SNS; either channel
// can be disabled in config and failures never block the batch.
package notify

import (
	"context"
	"fmt"

	commonaws "magicbus-backend/internal/common/aws"
	"magicbus-backend/internal/common/config"
	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/models"
)

type EscalationNotifier struct {
	config    config.NotificationConfig
	sesClient *commonaws.SESClient
	snsClient *commonaws.SNSClient
	logger    logger.Logger
}

func NewEscalationNotifier(cfg config.NotificationConfig, sesClient *commonaws.SESClient, snsClient *commonaws.SNSClient, log logger.Logger) *EscalationNotifier {
	return &EscalationNotifier{
		config:    cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// NotifyEscalation tells staff a document needs review. Errors from
// individual channels are logged and folded into one summary error.
func (n *EscalationNotifier) NotifyEscalation(ctx context.Context, verdict *models.AuthenticityVerdict) error {
	subject := "Document review needed"
	body := fmt.Sprintf(
		"A submitted ID document scored %d/10 and needs human review.\nContact: %s\nSession: %s\nVerdict: %s",
		verdict.Score, verdict.ContactID, verdict.SessionID, verdict.ID)

	var failed int

	if n.config.AWS.SES.Enabled && n.sesClient != nil {
		if err := n.sendEmail(ctx, subject, body); err != nil {
			failed++
			n.logger.Error("escalation email failed", map[string]interface{}{
				"verdictId": verdict.ID,
				"error":     err.Error(),
			})
		}
	}

	if n.config.AWS.SNS.Enabled && n.snsClient != nil {
		if err := n.sendSMS(ctx, body); err != nil {
			failed++
			n.logger.Error("escalation SMS failed", map[string]interface{}{
				"verdictId": verdict.ID,
				"error":     err.Error(),
			})
		}
	}

	if failed > 0 {
		return errors.NewNotificationSendFailedError("escalation",
			fmt.Errorf("%d channel(s) failed", failed))
	}
	return nil
}

func (n *EscalationNotifier) sendEmail(ctx context.Context, subject, body string) error {
	return n.sesClient.SendPlainEmail(ctx, n.config.AWS.SES.FromEmail, n.config.AWS.SES.StaffEmail, subject, body)
}

func (n *EscalationNotifier) sendSMS(ctx context.Context, body string) error {
	return n.snsClient.PublishSMS(ctx, n.config.AWS.SNS.StaffPhone, body, n.config.AWS.SNS.DefaultSMSSenderID)
}
