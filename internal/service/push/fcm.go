// internal/service/push/fcm.go
package push

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMSender publishes to a per-user topic, user_<id>, which the mobile
// app subscribes to after sign-in.
type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(ctx context.Context, serviceAccountPath string) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, n Notification) error {
	if len(n.UserIDs) == 0 {
		return fmt.Errorf("push has no recipients")
	}

	for _, id := range n.UserIDs {
		msg := &messaging.Message{
			Topic: Topic(id),
			Notification: &messaging.Notification{
				Title: n.Title,
				Body:  n.Body,
			},
			Data: n.Data,
		}
		if _, err := s.client.Send(ctx, msg); err != nil {
			if messaging.IsUnavailable(err) {
				return &VendorError{StatusCode: http.StatusServiceUnavailable, Body: err.Error()}
			}
			return fmt.Errorf("fcm send to %s failed: %w", id, err)
		}
	}
	return nil
}

// Topic is the FCM topic a user's devices subscribe to.
func Topic(userID string) string {
	return "user_" + userID
}
