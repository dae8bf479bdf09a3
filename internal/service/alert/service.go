// internal/service/alert/service.go
package alert

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"amayalert-service/internal/cache"
	"amayalert-service/internal/domain/alert"
	"amayalert-service/internal/domain/notification"
	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/service/email"
	"amayalert-service/internal/service/push"
	"amayalert-service/internal/service/sms"

	"go.uber.org/zap"
)

// smsBudget is the longest SMS body that may carry content and link.
const smsBudget = 150

type Store interface {
	Create(ctx context.Context, a *alert.Alert) error
	List(ctx context.Context, f alert.ListFilters) ([]*alert.Alert, error)
	FindByID(ctx context.Context, id int64) (*alert.Alert, error)
	Update(ctx context.Context, id int64, req *alert.UpdateAlertRequest) (*alert.Alert, error)
	SoftDelete(ctx context.Context, id int64) error
}

// RecipientSource lists the end-user accounts an alert is broadcast to.
type RecipientSource interface {
	ListRecipients(ctx context.Context) ([]*user.User, error)
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, content string)
}

// Publisher fans new alerts out to connected sockets.
type Publisher interface {
	BroadcastAlert(a *alert.Alert)
}

type Deps struct {
	Store      Store
	Recipients RecipientSource
	Email      email.Sender
	Templates  *email.Templates
	SMS        sms.Sender
	Push       push.Sender
	Auditor    Auditor
	Publisher  Publisher
	Cache      *cache.ListCache
	BaseURL    string
	Logger     *zap.Logger
}

type Service struct {
	Deps
}

func NewService(deps Deps) *Service {
	return &Service{Deps: deps}
}

// CreateAndBroadcast persists the alert and then delivers it to every
// recipient over the channels the method selects. Delivery failures are
// reported, never returned.
func (s *Service) CreateAndBroadcast(ctx context.Context, req *alert.CreateAlertRequest, actorID string) (*alert.BroadcastResult, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" {
		return nil, xerrors.Required("title", "Title")
	}
	if content == "" {
		return nil, xerrors.Required("content", "Content")
	}

	level := req.AlertLevel
	if level == "" {
		level = alert.LevelMedium
	}
	if !level.Valid() {
		return nil, xerrors.Invalid("alert_level", "Invalid alert level")
	}

	method := req.NotificationMethod
	if method == "" {
		method = alert.MethodAppPush
	}
	if !method.Valid() {
		return nil, xerrors.Invalid("notification_method", "Invalid notification method")
	}

	a := &alert.Alert{Title: title, Content: content, AlertLevel: level}
	if err := s.Store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	s.Logger.Info("alert created",
		zap.Int64("alert_id", a.ID),
		zap.String("level", string(level)),
		zap.String("method", string(method)),
	)

	report := s.broadcast(ctx, a, method)

	message := fmt.Sprintf("Alert created. Notifications sent - push: %d, email: %d, sms: %d (method: %s)",
		report.Push.Sent, report.Email.Sent, report.SMS.Sent, method)

	s.Auditor.Record(ctx, actorID, "create", fmt.Sprintf("Created alert %q (push=%d, email=%d, sms=%d)",
		title, report.Push.Sent, report.Email.Sent, report.SMS.Sent))

	s.Cache.Invalidate(ctx, cache.KeyAlerts)
	if s.Publisher != nil {
		s.Publisher.BroadcastAlert(a)
	}

	return &alert.BroadcastResult{Alert: a, Notifications: report, Message: message}, nil
}

// broadcast walks the recipients sequentially, one attempt per channel.
func (s *Service) broadcast(ctx context.Context, a *alert.Alert, method alert.Method) *notification.Report {
	report := notification.NewReport()

	recipients, err := s.Recipients.ListRecipients(ctx)
	if err != nil {
		s.Logger.Error("failed to load alert recipients", zap.Int64("alert_id", a.ID), zap.Error(err))
		return report
	}
	if len(recipients) == 0 {
		return report
	}

	link := s.BaseURL + "/alerts"
	smsBody := ComposeSMS(a.Title, string(a.AlertLevel), a.Content, link)

	for _, u := range recipients {
		addr, phone := u.Contact()

		if method.Push() && u.ID != "" {
			report.Record(s.sendPush(ctx, u.ID, a))
		}

		if method.Email() && addr != "" {
			msg := s.Templates.Alert(addr, a.Title, a.Content, string(a.AlertLevel))
			res := notification.AttemptResult{Channel: notification.ChannelEmail, RecipientID: u.ID, Success: true}
			if err := s.Email.Send(ctx, msg); err != nil {
				res.Success = false
				res.Err = fmt.Errorf("email failed for %s: %w", addr, err)
			}
			report.Record(res)
		}

		if method.SMS() && phone != "" {
			res := notification.AttemptResult{Channel: notification.ChannelSMS, RecipientID: u.ID, Success: true}
			if err := s.SMS.Send(ctx, phone, smsBody); err != nil {
				res.Success = false
				res.Err = fmt.Errorf("sms failed for %s: %w", phone, err)
			}
			report.Record(res)
		}
	}

	s.Logger.Info("alert broadcast finished",
		zap.Int64("alert_id", a.ID),
		zap.Int("recipients", len(recipients)),
		zap.Int("push_sent", report.Push.Sent),
		zap.Int("email_sent", report.Email.Sent),
		zap.Int("sms_sent", report.SMS.Sent),
	)
	return report
}

func (s *Service) sendPush(ctx context.Context, userID string, a *alert.Alert) notification.AttemptResult {
	res := notification.AttemptResult{Channel: notification.ChannelPush, RecipientID: userID, Success: true}
	err := s.Push.Send(ctx, push.Notification{
		UserIDs: []string{userID},
		Title:   fmt.Sprintf("%s alert: %s", strings.ToUpper(string(a.AlertLevel)), a.Title),
		Body:    a.Content,
		Data: map[string]string{
			"type":        "alert",
			"alert_id":    strconv.FormatInt(a.ID, 10),
			"alert_level": string(a.AlertLevel),
		},
	})
	if err != nil {
		if push.IsOutage(err) {
			s.Logger.Warn("push vendor outage", zap.String("user_id", userID), zap.Error(err))
		}
		res.Success = false
		res.Err = fmt.Errorf("push failed for %s: %w", userID, err)
	}
	return res
}

// ComposeSMS builds the alert text. Content and link are appended only
// when the whole message stays within the SMS budget.
func ComposeSMS(title, level, content, link string) string {
	base := fmt.Sprintf(`Alert: "%s" level %s.`, title, level)
	full := base + " " + strings.TrimSpace(content) + " " + link
	if utf8.RuneCountInString(full) <= smsBudget {
		return full
	}
	return base
}

// List returns live alerts; the unfiltered list is served from cache.
func (s *Service) List(ctx context.Context, f alert.ListFilters) ([]*alert.Alert, error) {
	var (
		gen       int64
		cacheable bool
	)
	if f.IsDefault() {
		var cached []*alert.Alert
		if s.Cache.Get(ctx, cache.KeyAlerts, &cached) {
			return cached, nil
		}
		gen, cacheable = s.Cache.Generation(ctx, cache.KeyAlerts)
	}

	alerts, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.Cache.SetIfGeneration(ctx, cache.KeyAlerts, gen, alerts)
	}
	return alerts, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*alert.Alert, error) {
	return s.Store.FindByID(ctx, id)
}

// Update applies a partial update with the same field rules as create.
func (s *Service) Update(ctx context.Context, id int64, req *alert.UpdateAlertRequest, actorID string) (*alert.Alert, error) {
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			return nil, xerrors.Required("title", "Title")
		}
		req.Title = &t
	}
	if req.Content != nil {
		c := strings.TrimSpace(*req.Content)
		if c == "" {
			return nil, xerrors.Required("content", "Content")
		}
		req.Content = &c
	}
	if req.AlertLevel != nil && !req.AlertLevel.Valid() {
		return nil, xerrors.Invalid("alert_level", "Invalid alert level")
	}

	a, err := s.Store.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.Auditor.Record(ctx, actorID, "update", fmt.Sprintf("Updated alert %q", a.Title))
	s.Cache.Invalidate(ctx, cache.KeyAlerts)
	return a, nil
}

// SoftDelete hides the alert from every default query.
func (s *Service) SoftDelete(ctx context.Context, id int64, actorID string) error {
	if err := s.Store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.Auditor.Record(ctx, actorID, "delete", fmt.Sprintf("Deleted alert #%d", id))
	s.Cache.Invalidate(ctx, cache.KeyAlerts)
	return nil
}
