// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESClient sends plain-text staff notification emails.
type SESClient struct {
	client *ses.Client
}

func NewSESClient(ctx context.Context, region string) (*SESClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESClient{client: ses.NewFromConfig(cfg)}, nil
}

// SendPlainEmail sends a UTF-8 text email from the configured sender to
// one or more staff addresses.
func (s *SESClient) SendPlainEmail(ctx context.Context, from string, to []string, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awssdk.String(from),
		Destination: &sestypes.Destination{ToAddresses: to},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject), Charset: awssdk.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body), Charset: awssdk.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
