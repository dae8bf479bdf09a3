// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"amayalert-service/internal/domain/message"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing      EventType = "ping"
	EventTypePong      EventType = "pong"
	EventTypeConnected EventType = "connected"
	EventTypeError     EventType = "error"

	// Chat events (client -> server)
	EventTypeChatSelect EventType = "chat:select"
	EventTypeChatSend   EventType = "chat:send"

	// Chat events (server -> client); chat:unread is also a client request
	EventTypeChatThread         EventType = "chat:thread"
	EventTypeChatMessage        EventType = "chat:message"
	EventTypeChatMessageUpdated EventType = "chat:message_updated"
	EventTypeChatMessageDeleted EventType = "chat:message_deleted"
	EventTypeChatUnread         EventType = "chat:unread"
	EventTypeChatScroll         EventType = "chat:scroll"
	EventTypeChatResync         EventType = "chat:resync"
	EventTypeChatSent           EventType = "chat:sent"

	// Alert events
	EventTypeAlertCreated EventType = "alert:created"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

// Subscription channels that clients can subscribe to
type ChannelType string

const (
	ChannelChat   ChannelType = "chat"
	ChannelAlerts ChannelType = "alerts"
)

type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type SelectPeerRequest struct {
	PeerID string `json:"peer_id"`
}

// SendChatRequest carries either a pre-uploaded attachment URL or an
// inline base64 image.
type SendChatRequest struct {
	Content          string  `json:"content"`
	AttachmentURL    *string `json:"attachment_url,omitempty"`
	AttachmentBase64 string  `json:"attachment_base64,omitempty"`
	Filename         string  `json:"filename,omitempty"`
}

type MessageIDData struct {
	ID int64 `json:"id"`
}

type UnreadData struct {
	Counts map[string]int `json:"counts"`
}

type ThreadData struct {
	PeerID   string             `json:"peer_id"`
	Messages []*message.Message `json:"messages"`
}

type ScrollData struct {
	PeerID string `json:"peer_id"`
}

func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        generateMessageID(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}

func generateMessageID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
