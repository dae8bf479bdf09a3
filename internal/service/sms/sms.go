// internal/service/sms/sms.go
package sms

import (
	"context"
	"fmt"
	"strings"

	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Sender delivers a single text message.
type Sender interface {
	Send(ctx context.Context, phone, body string) error
}

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender publishes transactional SMS directly to phone numbers.
type SNSSender struct {
	client   SNSAPI
	senderID string
}

func NewSNSSender(cfg aws.Config, senderID string) *SNSSender {
	return &SNSSender{client: sns.NewFromConfig(cfg), senderID: senderID}
}

func newSNSSenderWithClient(client SNSAPI, senderID string) *SNSSender {
	return &SNSSender{client: client, senderID: senderID}
}

func (s *SNSSender) Send(ctx context.Context, phone, body string) error {
	number, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(number),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sms to %s failed: %w", number, err)
	}
	return nil
}

// NormalizePhone converts local Philippine numbers to E.164 and strips
// formatting characters.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", xerrors.Invalid("phone_number", "Invalid phone number")
		}
	}
	n := b.String()

	switch {
	case strings.HasPrefix(n, "+"):
	case strings.HasPrefix(n, "09") && len(n) == 11:
		n = "+63" + n[1:]
	case strings.HasPrefix(n, "639") && len(n) == 12:
		n = "+" + n
	case strings.HasPrefix(n, "9") && len(n) == 10:
		n = "+63" + n
	default:
		n = "+" + n
	}

	if len(n) < 8 || len(n) > 16 {
		return "", xerrors.Invalid("phone_number", "Invalid phone number")
	}
	return n, nil
}

// DisabledSender is used when SMS is not configured.
type DisabledSender struct{}

func (DisabledSender) Send(_ context.Context, phone, _ string) error {
	return fmt.Errorf("sms to %s: %w", phone, xerrors.ErrNotConfigured)
}
