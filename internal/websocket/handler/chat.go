// internal/websocket/handler/chat.go
package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	wstypes "amayalert-service/internal/domain/websocket"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/pkg/validation"
	"amayalert-service/internal/service/chat"
	ws "amayalert-service/internal/websocket"

	"go.uber.org/zap"
)

type ChatHandler struct {
	logger *zap.Logger
}

func NewChatHandler(logger *zap.Logger) *ChatHandler {
	return &ChatHandler{logger: logger}
}

// SupportedEvents returns events this handler supports
func (h *ChatHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeChatSelect,
		wstypes.EventTypeChatSend,
		wstypes.EventTypeChatUnread,
	}
}

// HandleMessage processes chat messages against the client's bridge.
func (h *ChatHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	bridge := client.Bridge()
	if bridge == nil {
		return fmt.Errorf("chat is not available on this connection")
	}

	switch msg.Type {
	case wstypes.EventTypeChatSelect:
		return h.handleSelect(ctx, client, bridge, msg)

	case wstypes.EventTypeChatSend:
		return h.handleSend(ctx, client, bridge, msg)

	case wstypes.EventTypeChatUnread:
		updates, err := bridge.LoadUnreadCounts(ctx)
		if err != nil {
			return err
		}
		client.Deliver(updates)
		return nil

	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

// handleSelect opens a thread and marks it seen
func (h *ChatHandler) handleSelect(ctx context.Context, client *ws.Client, bridge *chat.Bridge, msg *wstypes.WSMessage) error {
	var req wstypes.SelectPeerRequest
	if err := ws.DecodeData(msg.Data, &req); err != nil {
		return xerrors.Invalid("data", "Invalid select request")
	}

	peerID := strings.TrimSpace(req.PeerID)
	if err := validation.UUID("peer_id", peerID); err != nil {
		return err
	}

	updates, err := bridge.SelectPeer(ctx, peerID)
	if err != nil {
		return err
	}
	h.logger.Debug("chat thread opened",
		zap.String("user_id", bridge.CurrentUserID()),
		zap.String("peer_id", bridge.SelectedPeer()),
	)
	client.Deliver(updates)
	return nil
}

// handleSend posts to the selected peer. The thread itself is updated when
// the insert comes back through the change feed.
func (h *ChatHandler) handleSend(ctx context.Context, client *ws.Client, bridge *chat.Bridge, msg *wstypes.WSMessage) error {
	var req wstypes.SendChatRequest
	if err := ws.DecodeData(msg.Data, &req); err != nil {
		return xerrors.Invalid("data", "Invalid send request")
	}

	var attachment *chat.Attachment
	if req.AttachmentBase64 != "" {
		data, err := decodeImage(req.AttachmentBase64)
		if err != nil {
			return xerrors.Invalid("attachment_base64", "Attachment is not valid base64")
		}
		attachment = &chat.Attachment{Filename: req.Filename, Data: data}
	}

	sent, err := bridge.Send(ctx, req.Content, req.AttachmentURL, attachment)
	if err != nil {
		return err
	}

	h.logger.Debug("chat message sent",
		zap.String("sender", sent.Sender),
		zap.String("receiver", sent.Receiver),
		zap.Int64("message_id", sent.ID),
	)
	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeChatSent, sent))
	return nil
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}
