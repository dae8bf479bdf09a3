// internal/service/evacuation/service.go
package evacuation

import (
	"context"
	"fmt"
	"strings"

	"amayalert-service/internal/cache"
	"amayalert-service/internal/domain/evacuation"
	"amayalert-service/internal/domain/notification"
	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/service/email"

	"go.uber.org/zap"
)

type Store interface {
	List(ctx context.Context, f evacuation.ListFilters) ([]*evacuation.Center, error)
	FindByID(ctx context.Context, id int64) (*evacuation.Center, error)
	Create(ctx context.Context, c *evacuation.Center) error
	Update(ctx context.Context, c *evacuation.Center) error
	Delete(ctx context.Context, id int64) error
}

// Mailbox lists the accounts a new center is announced to.
type Mailbox interface {
	ListWithEmail(ctx context.Context) ([]*user.User, error)
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, content string)
}

type Service struct {
	store     Store
	users     Mailbox
	email     email.Sender
	templates *email.Templates
	auditor   Auditor
	cache     *cache.ListCache
	logger    *zap.Logger
}

func NewService(store Store, users Mailbox, sender email.Sender, templates *email.Templates, auditor Auditor, listCache *cache.ListCache, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		users:     users,
		email:     sender,
		templates: templates,
		auditor:   auditor,
		cache:     listCache,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, f evacuation.ListFilters) ([]*evacuation.Center, error) {
	var (
		gen       int64
		cacheable bool
	)
	if f.IsDefault() {
		var cached []*evacuation.Center
		if s.cache.Get(ctx, cache.KeyEvacuation, &cached) {
			return cached, nil
		}
		gen, cacheable = s.cache.Generation(ctx, cache.KeyEvacuation)
	}

	centers, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.SetIfGeneration(ctx, cache.KeyEvacuation, gen, centers)
	}
	return centers, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*evacuation.Center, error) {
	return s.store.FindByID(ctx, id)
}

// Create stores the center and announces it by email to every user that
// has an address.
func (s *Service) Create(ctx context.Context, req *evacuation.CenterRequest, actorID string) (*evacuation.CreateResult, error) {
	c, err := buildCenter(req)
	if err != nil {
		return nil, err
	}
	if actorID != "" {
		c.CreatedBy = &actorID
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create evacuation center: %w", err)
	}

	report := s.announce(ctx, c)

	s.auditor.Record(ctx, actorID, "create", fmt.Sprintf("Created evacuation center %q (email=%d)", c.Name, report.Email.Sent))
	s.cache.Invalidate(ctx, cache.KeyEvacuation)

	return &evacuation.CreateResult{Center: c, Notifications: report}, nil
}

func (s *Service) announce(ctx context.Context, c *evacuation.Center) *notification.EmailOnly {
	report := &notification.EmailOnly{Email: notification.ChannelReport{Errors: []string{}}}

	users, err := s.users.ListWithEmail(ctx)
	if err != nil {
		s.logger.Error("failed to load users for evacuation notice", zap.Int64("center_id", c.ID), zap.Error(err))
		return report
	}

	for _, u := range users {
		addr, _ := u.Contact()
		if addr == "" {
			continue
		}
		msg := s.templates.EvacuationCenter(addr, c.Name, c.Address, c.Capacity, string(c.Status))
		if err := s.email.Send(ctx, msg); err != nil {
			report.Email.Errors = append(report.Email.Errors, fmt.Sprintf("email failed for %s: %v", addr, err))
			continue
		}
		report.Email.Sent++
	}

	s.logger.Info("evacuation center announced",
		zap.Int64("center_id", c.ID),
		zap.Int("email_sent", report.Email.Sent),
		zap.Int("email_failed", len(report.Email.Errors)),
	)
	return report
}

// Update merges the provided fields over the stored center and validates
// the result with the same rules as create.
func (s *Service) Update(ctx context.Context, id int64, req *evacuation.UpdateCenterRequest, actorID string) (*evacuation.Center, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c, err := buildCenter(req.Apply(existing))
	if err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedBy = existing.CreatedBy
	c.CreatedAt = existing.CreatedAt

	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, actorID, "update", fmt.Sprintf("Updated evacuation center %q", c.Name))
	s.cache.Invalidate(ctx, cache.KeyEvacuation)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id int64, actorID string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, actorID, "delete", fmt.Sprintf("Deleted evacuation center #%d", id))
	s.cache.Invalidate(ctx, cache.KeyEvacuation)
	return nil
}

func buildCenter(req *evacuation.CenterRequest) (*evacuation.Center, error) {
	name := strings.TrimSpace(req.Name)
	address := strings.TrimSpace(req.Address)
	switch {
	case name == "":
		return nil, xerrors.Required("name", "Name")
	case address == "":
		return nil, xerrors.Required("address", "Address")
	case req.Latitude < -90 || req.Latitude > 90:
		return nil, xerrors.Invalid("latitude", "Latitude must be between -90 and 90")
	case req.Longitude < -180 || req.Longitude > 180:
		return nil, xerrors.Invalid("longitude", "Longitude must be between -180 and 180")
	case req.Capacity < 0:
		return nil, xerrors.Invalid("capacity", "Capacity cannot be negative")
	case req.CurrentOccupancy < 0 || req.CurrentOccupancy > req.Capacity:
		return nil, xerrors.Invalid("current_occupancy", "Current occupancy must be between 0 and capacity")
	}

	status := req.Status
	if status == "" {
		status = evacuation.StatusOpen
	}
	if !status.Valid() {
		return nil, xerrors.Invalid("status", "Invalid status")
	}

	return &evacuation.Center{
		Name:             name,
		Address:          address,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Capacity:         req.Capacity,
		CurrentOccupancy: req.CurrentOccupancy,
		Status:           status,
		ContactName:      trimmed(req.ContactName),
		ContactPhone:     trimmed(req.ContactPhone),
		PhotoURL:         trimmed(req.PhotoURL),
	}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
