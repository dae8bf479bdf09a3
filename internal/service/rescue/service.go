// internal/service/rescue/service.go
package rescue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"amayalert-service/internal/domain/notification"
	"amayalert-service/internal/domain/rescue"
	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/service/email"
	"amayalert-service/internal/service/sms"

	"go.uber.org/zap"
)

type Store interface {
	List(ctx context.Context, f rescue.ListFilters) ([]*rescue.Rescue, error)
	FindByID(ctx context.Context, id int64) (*rescue.Rescue, error)
	Update(ctx context.Context, item *rescue.Rescue) error
}

// UserLookup resolves the reporting account for contact fallbacks.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, content string)
}

type Service struct {
	store     Store
	users     UserLookup
	email     email.Sender
	templates *email.Templates
	sms       sms.Sender
	auditor   Auditor
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, users UserLookup, mail email.Sender, templates *email.Templates, smsSender sms.Sender, auditor Auditor, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		users:     users,
		email:     mail,
		templates: templates,
		sms:       smsSender,
		auditor:   auditor,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context, f rescue.ListFilters) ([]*rescue.Rescue, error) {
	if f.Status != "" && !rescue.Status(f.Status).Valid() {
		return nil, xerrors.Invalid("status", "Invalid status")
	}
	return s.store.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id int64) (*rescue.Rescue, error) {
	return s.store.FindByID(ctx, id)
}

// Update changes status, priority or notes and tells the reporter about it.
// A status change sends an SMS and an email; send_email forces the email.
func (s *Service) Update(ctx context.Context, id int64, req *rescue.UpdateRescueRequest, actorID string) (*rescue.UpdateResult, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, xerrors.Invalid("status", "Invalid status")
	}
	if req.Priority != nil && (*req.Priority < 1 || *req.Priority > 5) {
		return nil, xerrors.Invalid("priority", "Priority must be between 1 and 5")
	}

	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	statusChanged := req.Status != nil && *req.Status != item.Status
	if statusChanged {
		item.Status = *req.Status
		if item.Status == rescue.StatusCompleted {
			now := s.now()
			item.CompletedAt = &now
		} else {
			item.CompletedAt = nil
		}
	}
	if req.Priority != nil {
		item.Priority = *req.Priority
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		item.Notes = &notes
	}

	if err := s.store.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update rescue: %w", err)
	}

	report := notification.NewReport()
	if statusChanged || req.SendEmail {
		s.notify(ctx, item, statusChanged, report)
	}

	s.auditor.Record(ctx, actorID, "update", fmt.Sprintf("Updated rescue #%d %q (status=%s, sms=%d, email=%d)",
		item.ID, item.Title, item.Status, report.SMS.Sent, report.Email.Sent))

	return &rescue.UpdateResult{Rescue: item, Notifications: report}, nil
}

func (s *Service) notify(ctx context.Context, item *rescue.Rescue, statusChanged bool, report *notification.Report) {
	addr, phone := s.contact(ctx, item)
	recipient := ""
	if item.UserID != nil {
		recipient = *item.UserID
	}

	if statusChanged && phone != "" {
		body := fmt.Sprintf(`Rescue update: your request "%s" is now %s.`, item.Title, item.Status.Label())
		res := notification.AttemptResult{Channel: notification.ChannelSMS, RecipientID: recipient, Success: true}
		if err := s.sms.Send(ctx, phone, body); err != nil {
			res.Success = false
			res.Err = fmt.Errorf("sms failed for %s: %w", phone, err)
		}
		report.Record(res)
	}

	if addr != "" {
		notes := ""
		if item.Notes != nil {
			notes = *item.Notes
		}
		msg := s.templates.RescueStatus(addr, item.Title, item.Status.Label(), notes)
		res := notification.AttemptResult{Channel: notification.ChannelEmail, RecipientID: recipient, Success: true}
		if err := s.email.Send(ctx, msg); err != nil {
			res.Success = false
			res.Err = fmt.Errorf("email failed for %s: %w", addr, err)
		}
		report.Record(res)
	}
}

// contact prefers the details on the request and falls back to the
// reporting user's account.
func (s *Service) contact(ctx context.Context, item *rescue.Rescue) (addr, phone string) {
	if item.ContactEmail != nil {
		addr = strings.TrimSpace(*item.ContactEmail)
	}
	if item.ContactPhone != nil {
		phone = strings.TrimSpace(*item.ContactPhone)
	}
	if (addr != "" && phone != "") || item.UserID == nil || s.users == nil {
		return addr, phone
	}

	u, err := s.users.FindByID(ctx, *item.UserID)
	if err != nil {
		s.logger.Warn("failed to resolve rescue reporter", zap.Int64("rescue_id", item.ID), zap.Error(err))
		return addr, phone
	}
	userAddr, userPhone := u.Contact()
	if addr == "" {
		addr = userAddr
	}
	if phone == "" {
		phone = userPhone
	}
	return addr, phone
}
