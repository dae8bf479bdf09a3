// internal/websocket/events.go
package websocket

import (
	"context"
	"fmt"
	"sort"
	"sync"

	wstypes "amayalert-service/internal/domain/websocket"
)

// EventHandler serves client events backed by an application service,
// such as the chat events served through the connection's bridge.
type EventHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// builtinEvents are answered by the client itself and cannot be claimed.
var builtinEvents = map[wstypes.EventType]bool{
	wstypes.EventTypePing:        true,
	wstypes.EventTypeSubscribe:   true,
	wstypes.EventTypeUnsubscribe: true,
}

// eventRouter maps each client event type to the one handler that owns it.
type eventRouter struct {
	mu     sync.RWMutex
	routes map[wstypes.EventType]EventHandler
}

func newEventRouter() *eventRouter {
	return &eventRouter{routes: make(map[wstypes.EventType]EventHandler)}
}

// add claims the handler's events. Nothing is registered when any of them
// is built in or already owned.
func (r *eventRouter) add(h EventHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := h.SupportedEvents()
	for _, ev := range events {
		if builtinEvents[ev] {
			return fmt.Errorf("event %q is built in: %w", ev, ErrEventClaimed)
		}
		if _, taken := r.routes[ev]; taken {
			return fmt.Errorf("event %q: %w", ev, ErrEventClaimed)
		}
	}
	for _, ev := range events {
		r.routes[ev] = h
	}
	return nil
}

// dispatch runs the owning handler and reports whether one existed.
func (r *eventRouter) dispatch(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	r.mu.RLock()
	h, ok := r.routes[msg.Type]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, h.HandleMessage(ctx, client, msg)
}

// events lists the routed event types in order, for the stats endpoint.
func (r *eventRouter) events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.routes))
	for ev := range r.routes {
		out = append(out, string(ev))
	}
	sort.Strings(out)
	return out
}
