// internal/service/push/onesignal.go
package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	onesignal "github.com/OneSignal/onesignal-go-api/v2"
)

// OneSignalSender posts notifications addressed to external user ids.
type OneSignalSender struct {
	appID  string
	apiKey string
	client *onesignal.APIClient
}

func NewOneSignalSender(appID, apiKey string) *OneSignalSender {
	return newOneSignalSender(appID, apiKey, onesignal.NewConfiguration())
}

func newOneSignalSender(appID, apiKey string, cfg *onesignal.Configuration) *OneSignalSender {
	cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	cfg.UserAgent = "amayalert-service"
	return &OneSignalSender{
		appID:  appID,
		apiKey: apiKey,
		client: onesignal.NewAPIClient(cfg),
	}
}

func (s *OneSignalSender) Send(ctx context.Context, n Notification) error {
	if len(n.UserIDs) == 0 {
		return fmt.Errorf("push has no recipients")
	}

	notification := onesignal.NewNotification(s.appID)
	notification.SetIncludeExternalUserIds(n.UserIDs)
	notification.SetChannelForExternalUserIds("push")
	notification.SetHeadings(onesignal.StringMap{En: onesignal.PtrString(n.Title)})
	notification.SetContents(onesignal.StringMap{En: onesignal.PtrString(n.Body)})
	if len(n.Data) > 0 {
		data := make(map[string]interface{}, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		notification.SetData(data)
	}

	authCtx := context.WithValue(ctx, onesignal.AppAuth, s.apiKey)
	_, httpResp, err := s.client.DefaultApi.CreateNotification(authCtx).Notification(*notification).Execute()
	if err == nil {
		return nil
	}

	if httpResp != nil && (httpResp.StatusCode < 200 || httpResp.StatusCode >= 300) {
		body := err.Error()
		var apiErr interface{ Body() []byte }
		if errors.As(err, &apiErr) && len(apiErr.Body()) > 0 {
			body = string(apiErr.Body())
		}
		return &VendorError{StatusCode: httpResp.StatusCode, Body: strings.TrimSpace(body)}
	}
	return fmt.Errorf("push request failed: %w", err)
}
