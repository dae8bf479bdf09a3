// internal/realtime/feed.go
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"amayalert-service/internal/domain/message"
	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	Channel = "message_changes"

	minReconnect = 10 * time.Second
	maxReconnect = time.Minute
	pingInterval = 90 * time.Second
)

// Sink receives decoded changes.
type Sink interface {
	PublishChange(ev *message.ChangeEvent)
	Resync()
}

// Loader reloads rows announced without a body.
type Loader interface {
	FindByID(ctx context.Context, id int64) (*message.Message, error)
}

// Feed listens for message row changes and forwards them to a sink.
type Feed struct {
	dsn    string
	sink   Sink
	loader Loader
	logger *zap.Logger
}

func NewFeed(dsn string, sink Sink, loader Loader, logger *zap.Logger) *Feed {
	return &Feed{dsn: dsn, sink: sink, loader: loader, logger: logger}
}

// Run blocks until ctx is cancelled. The listener reconnects on its own;
// every reconnect triggers a resync because notifications sent while it
// was down are gone.
func (f *Feed) Run(ctx context.Context) error {
	listener := pq.NewListener(f.dsn, minReconnect, maxReconnect, f.onEvent)
	defer listener.Close()

	if err := listener.Listen(Channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", Channel, err)
	}
	f.logger.Info("message change feed started", zap.String("channel", Channel))

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("message change feed stopped")
			return nil

		case n := <-listener.Notify:
			if n == nil {
				f.sink.Resync()
				continue
			}
			f.handle(ctx, n.Extra)

		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					f.logger.Warn("message change feed ping failed", zap.Error(err))
				}
			}()
		}
	}
}

func (f *Feed) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		f.logger.Info("message change feed connected")
	case pq.ListenerEventDisconnected:
		f.logger.Warn("message change feed disconnected", zap.Error(err))
	case pq.ListenerEventReconnected:
		f.logger.Info("message change feed reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		f.logger.Warn("message change feed reconnect failed", zap.Error(err))
	}
}

func (f *Feed) handle(ctx context.Context, payload string) {
	ev, err := DecodeChange([]byte(payload))
	if err != nil {
		f.logger.Warn("dropping malformed change event", zap.Error(err))
		return
	}

	if ev.Truncated && ev.Type != message.ChangeDelete {
		row, err := f.loader.FindByID(ctx, ev.ID)
		if err != nil {
			if !errors.Is(err, xerrors.ErrNotFound) {
				f.logger.Error("failed to reload truncated change", zap.Int64("message_id", ev.ID), zap.Error(err))
			}
			return
		}
		ev.Record = row
	}

	f.sink.PublishChange(ev)
}

// DecodeChange parses one notification payload.
func DecodeChange(payload []byte) (*message.ChangeEvent, error) {
	var ev message.ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode change: %w", err)
	}

	switch ev.Type {
	case message.ChangeInsert, message.ChangeUpdate:
		if ev.Record == nil && !ev.Truncated {
			return nil, fmt.Errorf("decode change: %s without record", ev.Type)
		}
	case message.ChangeDelete:
		if ev.OldRecord == nil {
			return nil, fmt.Errorf("decode change: DELETE without old_record")
		}
	default:
		return nil, fmt.Errorf("decode change: unknown type %q", ev.Type)
	}

	if ev.ID == 0 {
		if row := ev.Row(); row != nil {
			ev.ID = row.ID
		}
	}
	return &ev, nil
}
