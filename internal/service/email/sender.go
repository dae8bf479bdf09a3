// internal/service/email/sender.go
package email

import (
	"context"
	"fmt"

	xerrors "amayalert-service/internal/pkg/errors"
)

// Message is one outgoing email with HTML and plain-text alternatives.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DisabledSender is used when no email provider is configured.
type DisabledSender struct{}

func (DisabledSender) Send(_ context.Context, msg Message) error {
	return fmt.Errorf("email to %s: %w", msg.To, xerrors.ErrNotConfigured)
}
