package handlers

import (
	"context"
	"testing"

	"amayalert-service/internal/domain/message"
	wstypes "amayalert-service/internal/domain/websocket"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/pkg/jwt"
	"amayalert-service/internal/service/chat"
	ws "amayalert-service/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminID = "1d2e3f4a-5b6c-4d7e-8f90-a1b2c3d4e5f6"
	peerID  = "6f1c2a9e-3b4d-4e5f-8a7b-9c0d1e2f3a4b"
)

type threadStore struct {
	threads []string
}

func (s *threadStore) Thread(_ context.Context, _, peer string) ([]*message.Message, error) {
	s.threads = append(s.threads, peer)
	return []*message.Message{}, nil
}

func (s *threadStore) MarkThreadSeen(context.Context, string, string) ([]*message.Message, error) {
	return nil, nil
}

func (s *threadStore) MarkMessageSeen(context.Context, int64) (*message.Message, error) {
	return nil, xerrors.ErrNotFound
}

func (s *threadStore) UnreadCounts(context.Context, string) (map[string]int, error) {
	return map[string]int{}, nil
}

func (s *threadStore) Create(context.Context, *message.Message) error { return nil }

type bridges struct{ store *threadStore }

func (b bridges) NewBridge(userID string) *chat.Bridge {
	return chat.NewBridge(userID, b.store, nil, zap.NewNop())
}

type noAuth struct{}

func (noAuth) ValidateToken(context.Context, string) (*jwt.Claims, error) {
	return nil, xerrors.ErrUnauthorized
}

func newClient(store *threadStore) (*ws.Client, *ws.Hub) {
	hub := ws.NewHub(noAuth{}, bridges{store: store}, zap.NewNop())
	return ws.NewClient(hub, nil, &ws.ClientAuth{UserID: adminID, SessionID: "s-1", Role: "admin"}), hub
}

func selectMsg(peer string) *wstypes.WSMessage {
	return &wstypes.WSMessage{Type: wstypes.EventTypeChatSelect, Data: map[string]string{"peer_id": peer}}
}

func TestSelectRejectsMalformedPeer(t *testing.T) {
	store := &threadStore{}
	client, _ := newClient(store)
	h := NewChatHandler(zap.NewNop())

	err := h.HandleMessage(context.Background(), client, selectMsg("abc"))
	var ve *xerrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "peer_id", ve.Field)
	assert.Empty(t, store.threads)
	assert.Empty(t, client.Bridge().SelectedPeer())
}

func TestSelectOpensThread(t *testing.T) {
	store := &threadStore{}
	client, _ := newClient(store)
	h := NewChatHandler(zap.NewNop())

	require.NoError(t, h.HandleMessage(context.Background(), client, selectMsg(" "+peerID+" ")))
	assert.Equal(t, []string{peerID}, store.threads)
	assert.Equal(t, peerID, client.Bridge().SelectedPeer())
}

func TestChatEventsRouteThroughHub(t *testing.T) {
	store := &threadStore{}
	client, hub := newClient(store)

	require.NoError(t, hub.RegisterHandler(NewChatHandler(zap.NewNop())))
	assert.ErrorIs(t, hub.RegisterHandler(NewChatHandler(zap.NewNop())), ws.ErrEventClaimed)
	assert.Equal(t, []string{"chat:select", "chat:send", "chat:unread"}, hub.RoutedEvents())

	handled, err := hub.HandleClientMessage(context.Background(), client, selectMsg(peerID))
	require.NoError(t, err)
	assert.True(t, handled)

	handled, err = hub.HandleClientMessage(context.Background(), client, &wstypes.WSMessage{Type: wstypes.EventTypePing})
	require.NoError(t, err)
	assert.False(t, handled)
}
