// internal/service/email/ses.go
package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends email through Amazon SES.
type SESSender struct {
	client SESAPI
	from   string
}

func NewSESSender(cfg aws.Config, from string) *SESSender {
	return &SESSender{client: ses.NewFromConfig(cfg), from: from}
}

func (s *SESSender) Send(ctx context.Context, m Message) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{m.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(m.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(m.HTML), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(m.Text), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(s.from),
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}
	return nil
}
