// internal/service/chat/service.go
package chat

import (
	"context"
	"fmt"
	"strings"

	"amayalert-service/internal/domain/message"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/service/push"

	"go.uber.org/zap"
)

type Store interface {
	Thread(ctx context.Context, a, b string) ([]*message.Message, error)
	MarkThreadSeen(ctx context.Context, reader, peer string) ([]*message.Message, error)
	MarkMessageSeen(ctx context.Context, id int64) (*message.Message, error)
	UnreadCounts(ctx context.Context, userID string) (map[string]int, error)
	Create(ctx context.Context, m *message.Message) error
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	UploadImage(ctx context.Context, folder, filename string, data []byte) (string, error)
}

// Masker censors filtered words.
type Masker interface {
	Mask(ctx context.Context, text string) (string, error)
}

type Attachment struct {
	Filename string
	Data     []byte
}

type SendInput struct {
	Sender        string
	Receiver      string
	Content       string
	AttachmentURL *string
	Attachment    *Attachment
}

type Service struct {
	store    Store
	uploader Uploader
	masker   Masker
	push     push.Sender
	logger   *zap.Logger
}

func NewService(store Store, uploader Uploader, masker Masker, pushSender push.Sender, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		uploader: uploader,
		masker:   masker,
		push:     pushSender,
		logger:   logger,
	}
}

// Send persists a message. An attachment is uploaded first and a failed
// upload aborts the send; the push to the receiver is best-effort.
func (s *Service) Send(ctx context.Context, in SendInput) (*message.Message, error) {
	content := strings.TrimSpace(in.Content)
	hasURL := in.AttachmentURL != nil && strings.TrimSpace(*in.AttachmentURL) != ""
	if in.Receiver == "" {
		return nil, xerrors.Required("receiver", "Receiver")
	}
	if in.Receiver == in.Sender {
		return nil, xerrors.Invalid("receiver", "Cannot send a message to yourself")
	}
	if content == "" && in.Attachment == nil && !hasURL {
		return nil, xerrors.Invalid("content", "Message text or an image is required")
	}

	var attachmentURL *string
	if hasURL {
		u := strings.TrimSpace(*in.AttachmentURL)
		attachmentURL = &u
	}
	if in.Attachment != nil {
		url, err := s.uploader.UploadImage(ctx, "chat", in.Attachment.Filename, in.Attachment.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to upload attachment: %w", err)
		}
		attachmentURL = &url
	}

	if s.masker != nil && content != "" {
		masked, err := s.masker.Mask(ctx, content)
		if err != nil {
			s.logger.Warn("word filter unavailable, sending unmasked", zap.Error(err))
		} else {
			content = masked
		}
	}

	m := &message.Message{
		Sender:        in.Sender,
		Receiver:      in.Receiver,
		Content:       content,
		AttachmentURL: attachmentURL,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	s.notify(ctx, m)
	return m, nil
}

func (s *Service) notify(ctx context.Context, m *message.Message) {
	body := m.Content
	if body == "" {
		body = "Sent you an image"
	}
	err := s.push.Send(ctx, push.Notification{
		UserIDs: []string{m.Receiver},
		Title:   "New message",
		Body:    body,
		Data: map[string]string{
			"type":   "chat",
			"sender": m.Sender,
		},
	})
	if err != nil {
		s.logger.Warn("chat push failed",
			zap.Int64("message_id", m.ID),
			zap.String("receiver", m.Receiver),
			zap.Error(err),
		)
	}
}

// Thread returns the conversation between userID and peerID.
func (s *Service) Thread(ctx context.Context, userID, peerID string) ([]*message.Message, error) {
	if peerID == "" {
		return nil, xerrors.Required("peer_id", "Peer")
	}
	return s.store.Thread(ctx, userID, peerID)
}

// MarkSeen stamps every unseen message from peerID to readerID.
func (s *Service) MarkSeen(ctx context.Context, readerID, peerID string) (int, error) {
	if peerID == "" {
		return 0, xerrors.Required("peer_id", "Peer")
	}
	rows, err := s.store.MarkThreadSeen(ctx, readerID, peerID)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Service) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	return s.store.UnreadCounts(ctx, userID)
}

// NewBridge opens a realtime view for userID backed by this service.
func (s *Service) NewBridge(userID string) *Bridge {
	return NewBridge(userID, s.store, s, s.logger)
}
