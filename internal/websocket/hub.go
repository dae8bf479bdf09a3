// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"amayalert-service/internal/domain/alert"
	"amayalert-service/internal/domain/message"
	wstypes "amayalert-service/internal/domain/websocket"
	"amayalert-service/internal/pkg/jwt"
	"amayalert-service/internal/service/chat"

	"go.uber.org/zap"
)

// Authenticator validates a bearer token for a socket connection.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

// BridgeFactory opens the chat view for a newly connected user.
type BridgeFactory interface {
	NewBridge(userID string) *chat.Bridge
}

type Hub struct {
	// Registered clients by user ID
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	// Registration/unregistration
	Register   chan *Client
	unregister chan *Client

	// Broadcasting
	broadcast chan *BroadcastMessage

	// Message change feed
	changes chan *message.ChangeEvent
	resync  chan struct{}

	// client events owned by registered handlers
	events *eventRouter

	auth    Authenticator
	bridges BridgeFactory
	logger  *zap.Logger
}

type BroadcastMessage struct {
	UserIDs []string
	Channel wstypes.ChannelType
	Message *wstypes.WSMessage
}

func NewHub(auth Authenticator, bridges BridgeFactory, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		changes:    make(chan *message.ChangeEvent, 256),
		resync:     make(chan struct{}, 1),
		events:     newEventRouter(),
		auth:       auth,
		bridges:    bridges,
		logger:     logger,
	}
}

// AuthenticateClient validates the JWT token and returns the client identity.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	claims, err := h.auth.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &ClientAuth{
		UserID:    claims.UserID,
		SessionID: claims.ID,
		Role:      claims.Role,
		Email:     claims.Email,
	}, nil
}

// RegisterHandler routes the handler's events to it.
func (h *Hub) RegisterHandler(handler EventHandler) error {
	if err := h.events.add(handler); err != nil {
		return err
	}
	h.logger.Info("websocket events routed", zap.Strings("events", h.events.events()))
	return nil
}

// HandleClientMessage reports false when no registered handler owns the
// event, leaving it to the client's built-in handling.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	return h.events.dispatch(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)

		case ev := <-h.changes:
			h.dispatchChange(ev)

		case <-h.resync:
			h.resyncClients()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info("websocket client connected",
		zap.String("user_id", client.userID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id":    client.userID,
		"session_id": client.sessionID,
		"role":       client.role,
		"channels":   client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}

			h.logger.Info("websocket client disconnected",
				zap.String("user_id", client.userID),
				zap.String("session_id", client.sessionID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.UserIDs == nil {
		for _, clients := range h.clients {
			for client := range clients {
				if client.IsSubscribed(msg.Channel) {
					client.SendMessage(msg.Message)
				}
			}
		}
		return
	}

	for _, userID := range msg.UserIDs {
		for client := range h.clients[userID] {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}
}

// dispatchChange queues a message change on the sockets of both parties.
func (h *Hub) dispatchChange(ev *message.ChangeEvent) {
	row := ev.Row()
	if row == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[row.Sender] {
		client.QueueChange(ev)
	}
	if row.Receiver != row.Sender {
		for client := range h.clients[row.Receiver] {
			client.QueueChange(ev)
		}
	}
}

func (h *Hub) resyncClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.RequestResync()
		}
	}
}

// Public methods for broadcasting

// PublishChange hands a change-feed event to the hub.
func (h *Hub) PublishChange(ev *message.ChangeEvent) {
	h.changes <- ev
}

// Resync asks every client to reload its chat state; used after the
// change feed reconnects and events may have been lost.
func (h *Hub) Resync() {
	select {
	case h.resync <- struct{}{}:
	default:
	}
}

// BroadcastAlert announces a new alert to every client on the alerts channel.
func (h *Hub) BroadcastAlert(a *alert.Alert) {
	h.broadcast <- &BroadcastMessage{
		UserIDs: nil,
		Channel: wstypes.ChannelAlerts,
		Message: wstypes.NewMessage(wstypes.EventTypeAlertCreated, a),
	}
}

func (h *Hub) GetConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// RoutedEvents lists the client events served by registered handlers.
func (h *Hub) RoutedEvents() []string {
	return h.events.events()
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}
