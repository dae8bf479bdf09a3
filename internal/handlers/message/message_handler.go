// internal/handlers/message/message_handler.go
package message

import (
	"context"
	"net/http"

	"amayalert-service/internal/domain/message"
	"amayalert-service/internal/middleware"
	"amayalert-service/internal/pkg/response"
	"amayalert-service/internal/pkg/validation"
	"amayalert-service/internal/service/chat"

	"github.com/gin-gonic/gin"
)

type Service interface {
	Send(ctx context.Context, in chat.SendInput) (*message.Message, error)
	Thread(ctx context.Context, userID, peerID string) ([]*message.Message, error)
	MarkSeen(ctx context.Context, readerID, peerID string) (int, error)
	UnreadCounts(ctx context.Context, userID string) (map[string]int, error)
}

// MessageHandler is the REST mirror of the chat socket events.
type MessageHandler struct {
	chatService Service
}

func NewMessageHandler(chatService Service) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

func (h *MessageHandler) GetThread(c *gin.Context) {
	peerID := c.Query("peer_id")
	if err := validation.UUID("peer_id", peerID); err != nil {
		response.FromError(c, err, "invalid peer ID")
		return
	}

	msgs, err := h.chatService.Thread(c.Request.Context(), middleware.MustGetUserID(c), peerID)
	if err != nil {
		response.FromError(c, err, "failed to load conversation")
		return
	}
	response.Success(c, http.StatusOK, "conversation retrieved", msgs)
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req message.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := validation.UUID("receiver", req.Receiver); err != nil {
		response.FromError(c, err, "invalid receiver")
		return
	}

	msg, err := h.chatService.Send(c.Request.Context(), chat.SendInput{
		Sender:        middleware.MustGetUserID(c),
		Receiver:      req.Receiver,
		Content:       req.Content,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		response.FromError(c, err, "failed to send message")
		return
	}
	response.Success(c, http.StatusCreated, "message sent", msg)
}

func (h *MessageHandler) MarkSeen(c *gin.Context) {
	var req message.MarkSeenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := validation.UUID("peer_id", req.PeerID); err != nil {
		response.FromError(c, err, "invalid peer ID")
		return
	}

	n, err := h.chatService.MarkSeen(c.Request.Context(), middleware.MustGetUserID(c), req.PeerID)
	if err != nil {
		response.FromError(c, err, "failed to mark messages seen")
		return
	}
	response.Success(c, http.StatusOK, "messages marked seen", gin.H{"updated": n})
}

func (h *MessageHandler) UnreadCounts(c *gin.Context) {
	counts, err := h.chatService.UnreadCounts(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to load unread counts")
		return
	}
	response.Success(c, http.StatusOK, "unread counts retrieved", counts)
}
