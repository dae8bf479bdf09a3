// internal/service/push/push.go
package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	xerrors "amayalert-service/internal/pkg/errors"
)

// Notification targets users by their account id.
type Notification struct {
	UserIDs []string          `json:"user_ids"`
	Title   string            `json:"title"`
	Body    string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

// Sender delivers a push notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// VendorError is a non-2xx answer from the push provider.
type VendorError struct {
	StatusCode int
	Body       string
}

func (e *VendorError) Error() string {
	if e.StatusCode == http.StatusServiceUnavailable {
		return fmt.Sprintf("%d %s (push vendor outage)", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Body)
}

// IsOutage reports whether err is the provider's 503.
func IsOutage(err error) bool {
	var ve *VendorError
	return errors.As(err, &ve) && ve.StatusCode == http.StatusServiceUnavailable
}

// DisabledSender is used when no push provider is configured.
type DisabledSender struct{}

func (DisabledSender) Send(context.Context, Notification) error {
	return xerrors.ErrNotConfigured
}
