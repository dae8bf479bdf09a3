package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"amayalert-service/internal/domain/alert"
	"amayalert-service/internal/domain/message"
	wstypes "amayalert-service/internal/domain/websocket"
	"amayalert-service/internal/pkg/jwt"
	"amayalert-service/internal/service/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type emptyStore struct{}

func (emptyStore) Thread(context.Context, string, string) ([]*message.Message, error) {
	return []*message.Message{}, nil
}

func (emptyStore) MarkThreadSeen(context.Context, string, string) ([]*message.Message, error) {
	return nil, nil
}

func (emptyStore) MarkMessageSeen(context.Context, int64) (*message.Message, error) {
	return nil, errors.New("not expected")
}

func (emptyStore) UnreadCounts(context.Context, string) (map[string]int, error) {
	return map[string]int{"user-x": 2}, nil
}

func (emptyStore) Create(context.Context, *message.Message) error { return nil }

type bridgeFactory struct{}

func (bridgeFactory) NewBridge(userID string) *chat.Bridge {
	return chat.NewBridge(userID, emptyStore{}, nil, zap.NewNop())
}

type staticAuth struct {
	claims *jwt.Claims
	err    error
}

func (a staticAuth) ValidateToken(context.Context, string) (*jwt.Claims, error) {
	return a.claims, a.err
}

func newTestHub() *Hub {
	return NewHub(staticAuth{}, bridgeFactory{}, zap.NewNop())
}

func connect(h *Hub, userID string) *Client {
	c := NewClient(h, nil, &ClientAuth{UserID: userID, SessionID: "s-" + userID, Role: "admin"})
	h.registerClient(c)
	<-c.send // connected
	return c
}

func drain(t *testing.T, c *Client) []wstypes.EventType {
	t.Helper()
	var out []wstypes.EventType
	for {
		select {
		case data := <-c.send:
			var msg wstypes.WSMessage
			require.NoError(t, json.Unmarshal(data, &msg))
			out = append(out, msg.Type)
		default:
			return out
		}
	}
}

func insertEvent(sender, receiver string) *message.ChangeEvent {
	return &message.ChangeEvent{
		Type:   message.ChangeInsert,
		Record: &message.Message{ID: 1, Sender: sender, Receiver: receiver, Content: "hi"},
		ID:     1,
	}
}

func TestDispatchChangeReachesBothParties(t *testing.T) {
	h := newTestHub()
	admin := connect(h, "admin-1")
	peer := connect(h, "user-a")
	other := connect(h, "admin-2")

	h.dispatchChange(insertEvent("user-a", "admin-1"))

	assert.Len(t, admin.changes, 1)
	assert.Len(t, peer.changes, 1)
	assert.Len(t, other.changes, 0)
}

func TestDispatchChangeUsesOldRecordForDeletes(t *testing.T) {
	h := newTestHub()
	admin := connect(h, "admin-1")

	h.dispatchChange(&message.ChangeEvent{
		Type:      message.ChangeDelete,
		OldRecord: &message.Message{ID: 3, Sender: "admin-1", Receiver: "user-a"},
	})
	h.dispatchChange(&message.ChangeEvent{Type: message.ChangeDelete, ID: 4})

	assert.Len(t, admin.changes, 1)
}

func TestQueueOverflowRequestsResync(t *testing.T) {
	h := newTestHub()
	admin := connect(h, "admin-1")

	for i := 0; i < changeBuffer; i++ {
		admin.QueueChange(insertEvent("user-a", "admin-1"))
	}
	assert.Len(t, admin.resyncReq, 0)

	admin.QueueChange(insertEvent("user-a", "admin-1"))
	assert.Len(t, admin.changes, changeBuffer)
	assert.Len(t, admin.resyncReq, 1)
}

func TestUnsubscribedClientSkipsChanges(t *testing.T) {
	h := newTestHub()
	admin := connect(h, "admin-1")
	admin.Unsubscribe(wstypes.ChannelChat)

	h.dispatchChange(insertEvent("user-a", "admin-1"))
	assert.Len(t, admin.changes, 0)

	assert.True(t, admin.Subscribe(wstypes.ChannelChat))
	assert.Len(t, admin.resyncReq, 1)
	assert.False(t, admin.Subscribe("billing"))
}

func TestResyncReachesEveryClient(t *testing.T) {
	h := newTestHub()
	a := connect(h, "admin-1")
	b := connect(h, "admin-2")

	h.Resync()
	h.Resync()
	require.Len(t, h.resync, 1)
	<-h.resync
	h.resyncClients()

	assert.Len(t, a.resyncReq, 1)
	assert.Len(t, b.resyncReq, 1)

	a.resyncBridge()
	assert.Equal(t, []wstypes.EventType{wstypes.EventTypeChatResync, wstypes.EventTypeChatUnread}, drain(t, a))
}

func TestBroadcastAlertTargetsAlertSubscribers(t *testing.T) {
	h := newTestHub()
	subscribed := connect(h, "admin-1")
	muted := connect(h, "admin-2")
	muted.Unsubscribe(wstypes.ChannelAlerts)

	h.BroadcastAlert(&alert.Alert{ID: 7, Title: "Flood Warning"})
	h.BroadcastMessage(<-h.broadcast)

	assert.Equal(t, []wstypes.EventType{wstypes.EventTypeAlertCreated}, drain(t, subscribed))
	assert.Empty(t, drain(t, muted))
}

func TestApplyProducesSocketEvents(t *testing.T) {
	h := newTestHub()
	admin := connect(h, "admin-1")

	updates, err := admin.Bridge().SelectPeer(context.Background(), "user-a")
	require.NoError(t, err)
	admin.Deliver(updates)
	assert.Equal(t, []wstypes.EventType{wstypes.EventTypeChatThread, wstypes.EventTypeChatUnread}, drain(t, admin))

	admin.Deliver(admin.Bridge().Apply(context.Background(), &message.ChangeEvent{
		Type:   message.ChangeInsert,
		Record: &message.Message{ID: 9, Sender: "admin-1", Receiver: "user-a", Content: "on our way"},
	}))
	assert.Equal(t, []wstypes.EventType{wstypes.EventTypeChatMessage, wstypes.EventTypeChatScroll}, drain(t, admin))
}

func TestAuthenticateClient(t *testing.T) {
	h := NewHub(staticAuth{claims: &jwt.Claims{UserID: "admin-1", Role: "admin", Email: "a@amayalert.site"}}, bridgeFactory{}, zap.NewNop())

	_, err := h.AuthenticateClient(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)

	auth, err := h.AuthenticateClient(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", auth.UserID)
	assert.Equal(t, "admin", auth.Role)

	denied := NewHub(staticAuth{err: errors.New("revoked")}, bridgeFactory{}, zap.NewNop())
	_, err = denied.AuthenticateClient(context.Background(), "token")
	assert.Error(t, err)
}

func TestUnregisterRemovesClient(t *testing.T) {
	h := newTestHub()
	c := connect(h, "admin-1")
	assert.Equal(t, 1, h.TotalClients())

	h.unregisterClient(c)
	assert.Equal(t, 0, h.TotalClients())
	assert.Equal(t, 0, h.GetConnectedClients("admin-1"))
	assert.Error(t, c.ctx.Err())
}
