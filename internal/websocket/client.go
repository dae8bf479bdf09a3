// internal/websocket/client.go
package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"amayalert-service/internal/domain/message"
	wstypes "amayalert-service/internal/domain/websocket"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/service/chat"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024 * 1024 // inline chat images

	changeBuffer = 256
)

// ClientAuth holds authentication information
type ClientAuth struct {
	UserID    string
	SessionID string
	Role      string
	Email     string
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    string
	sessionID string
	role      string
	email     string

	bridge    *chat.Bridge
	changes   chan *message.ChangeEvent
	resyncReq chan struct{}

	// Subscriptions - what channels this client is listening to
	subscriptions map[wstypes.ChannelType]bool
	subMutex      sync.RWMutex

	// Context for graceful shutdown
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewClient builds a client subscribed to chat and alerts.
func NewClient(hub *Hub, conn *websocket.Conn, auth *ClientAuth) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		userID:    auth.UserID,
		sessionID: auth.SessionID,
		role:      auth.Role,
		email:     auth.Email,
		changes:   make(chan *message.ChangeEvent, changeBuffer),
		resyncReq: make(chan struct{}, 1),
		subscriptions: map[wstypes.ChannelType]bool{
			wstypes.ChannelChat:   true,
			wstypes.ChannelAlerts: true,
		},
		ctx:    ctx,
		cancel: cancel,
	}
	if hub.bridges != nil {
		c.bridge = hub.bridges.NewBridge(auth.UserID)
	}
	return c
}

// Subscribe to a known channel.
func (c *Client) Subscribe(channel wstypes.ChannelType) bool {
	switch channel {
	case wstypes.ChannelChat, wstypes.ChannelAlerts:
	default:
		return false
	}

	c.subMutex.Lock()
	already := c.subscriptions[channel]
	c.subscriptions[channel] = true
	c.subMutex.Unlock()

	// Changes were not queued while unsubscribed.
	if channel == wstypes.ChannelChat && !already {
		c.RequestResync()
	}
	return true
}

// Unsubscribe from a channel
func (c *Client) Unsubscribe(channel wstypes.ChannelType) {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	delete(c.subscriptions, channel)
}

// IsSubscribed checks if client is subscribed to a channel
func (c *Client) IsSubscribed(channel wstypes.ChannelType) bool {
	c.subMutex.RLock()
	defer c.subMutex.RUnlock()
	return c.subscriptions[channel]
}

func (c *Client) Channels() []wstypes.ChannelType {
	c.subMutex.RLock()
	defer c.subMutex.RUnlock()
	out := make([]wstypes.ChannelType, 0, len(c.subscriptions))
	for ch := range c.subscriptions {
		out = append(out, ch)
	}
	return out
}

func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) SessionID() string {
	return c.sessionID
}

// Bridge returns the client's chat view.
func (c *Client) Bridge() *chat.Bridge {
	return c.bridge
}

// QueueChange hands a feed event to the change pump without blocking.
// When the buffer is full the event is dropped and a resync is requested.
func (c *Client) QueueChange(ev *message.ChangeEvent) {
	if c.bridge == nil || !c.IsSubscribed(wstypes.ChannelChat) {
		return
	}
	select {
	case c.changes <- ev:
	default:
		c.hub.logger.Warn("chat change buffer full, resyncing client",
			zap.String("user_id", c.userID),
			zap.String("session_id", c.sessionID),
		)
		c.RequestResync()
	}
}

// RequestResync schedules a full reload of the chat view.
func (c *Client) RequestResync() {
	select {
	case c.resyncReq <- struct{}{}:
	default:
	}
}

// ChangePump applies feed events to the bridge in arrival order.
func (c *Client) ChangePump() {
	if c.bridge == nil {
		return
	}

	updates, err := c.bridge.LoadUnreadCounts(c.ctx)
	if err != nil {
		c.hub.logger.Error("failed to load unread counts", zap.String("user_id", c.userID), zap.Error(err))
	}
	c.Deliver(updates)

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.changes:
			c.Deliver(c.bridge.Apply(c.ctx, ev))
		case <-c.resyncReq:
			c.resyncBridge()
		}
	}
}

func (c *Client) resyncBridge() {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeChatResync, nil))
	updates, err := c.bridge.Resync(c.ctx)
	if err != nil {
		c.hub.logger.Error("chat resync failed", zap.String("user_id", c.userID), zap.Error(err))
		c.SendError("resync_failed", "Failed to reload conversations", "")
		return
	}
	c.Deliver(updates)
}

// Deliver sends bridge updates as socket events.
func (c *Client) Deliver(updates []chat.Update) {
	for _, u := range updates {
		if msg := updateMessage(u); msg != nil {
			c.SendMessage(msg)
		}
	}
}

// ReadPump handles incoming messages from client
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		c.handleMessage(data)
	}
}

// WritePump handles outgoing messages to client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from client
func (c *Client) handleMessage(data []byte) {
	msg, err := wstypes.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message", err.Error())
		return
	}

	handled, err := c.hub.HandleClientMessage(c.ctx, c, msg)
	if err != nil {
		c.SendHandlerError(err)
		return
	}
	if handled {
		return
	}

	// Built-in message handling
	switch msg.Type {
	case wstypes.EventTypePing:
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))

	case wstypes.EventTypeSubscribe:
		var req wstypes.SubscribeRequest
		if err := DecodeData(msg.Data, &req); err != nil {
			c.SendError("invalid_subscribe", "Invalid subscribe request", err.Error())
			return
		}
		accepted := make([]wstypes.ChannelType, 0, len(req.Channels))
		for _, channel := range req.Channels {
			if c.Subscribe(channel) {
				accepted = append(accepted, channel)
			}
		}
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypeSubscribe, map[string]interface{}{
			"channels": accepted,
			"status":   "subscribed",
		}))

	case wstypes.EventTypeUnsubscribe:
		var req wstypes.UnsubscribeRequest
		if err := DecodeData(msg.Data, &req); err != nil {
			c.SendError("invalid_unsubscribe", "Invalid unsubscribe request", err.Error())
			return
		}
		for _, channel := range req.Channels {
			c.Unsubscribe(channel)
		}
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypeUnsubscribe, map[string]interface{}{
			"channels": req.Channels,
			"status":   "unsubscribed",
		}))

	default:
		c.SendError("unknown_event", "Unsupported event type", string(msg.Type))
	}
}

// SendMessage queues a message for the write pump. A client that cannot
// keep up is disconnected.
func (c *Client) SendMessage(msg *wstypes.WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		c.hub.logger.Error("failed to marshal websocket message", zap.Error(err))
		return
	}

	select {
	case <-c.ctx.Done():
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket send buffer full, disconnecting", zap.String("user_id", c.userID))
		go func() { c.hub.unregister <- c }()
	}
}

// SendError sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// SendHandlerError reports a failed request; validation messages are
// shown as-is.
func (c *Client) SendHandlerError(err error) {
	var ve *xerrors.ValidationError
	switch {
	case errors.As(err, &ve):
		c.SendError("invalid_request", ve.Message, ve.Field)
	case errors.Is(err, xerrors.ErrNotFound):
		c.SendError("not_found", "Resource not found", "")
	default:
		c.hub.logger.Error("websocket handler failed", zap.String("user_id", c.userID), zap.Error(err))
		c.SendError("handler_error", "Failed to process message", "")
	}
}

// Close stops the client's pumps. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(c.cancel)
}
