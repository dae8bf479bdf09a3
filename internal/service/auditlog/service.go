// internal/service/auditlog/service.go
package auditlog

import (
	"context"

	"amayalert-service/internal/domain/auditlog"

	"go.uber.org/zap"
)

const latestLimit = 100

type Store interface {
	Create(ctx context.Context, e *auditlog.Entry) error
	Latest(ctx context.Context, limit int) ([]*auditlog.Entry, error)
}

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Record writes an audit entry. Failures are logged and swallowed.
func (s *Service) Record(ctx context.Context, actorID, action, content string) {
	entry := &auditlog.Entry{Action: action, Content: content}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.store.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("actor_id", actorID),
			zap.Error(err),
		)
	}
}

// Latest returns the most recent entries.
func (s *Service) Latest(ctx context.Context) ([]*auditlog.Entry, error) {
	return s.store.Latest(ctx, latestLimit)
}
