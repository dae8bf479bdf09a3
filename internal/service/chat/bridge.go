// internal/service/chat/bridge.go
package chat

import (
	"context"
	"errors"
	"sync"

	"amayalert-service/internal/domain/message"
	xerrors "amayalert-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type UpdateKind string

const (
	UpdateThread  UpdateKind = "thread"
	UpdateAppend  UpdateKind = "append"
	UpdateReplace UpdateKind = "replace"
	UpdateRemove  UpdateKind = "remove"
	UpdateUnread  UpdateKind = "unread"
	UpdateScroll  UpdateKind = "scroll"
)

// Update is one change to the view a bridge exposes.
type Update struct {
	Kind      UpdateKind
	PeerID    string
	Message   *message.Message
	MessageID int64
	Messages  []*message.Message
	Unread    map[string]int
}

// MessageSender persists outgoing messages.
type MessageSender interface {
	Send(ctx context.Context, in SendInput) (*message.Message, error)
}

// Bridge keeps one user's conversation view in step with the message
// change feed: the open thread, the selected peer and per-peer unread
// counts. It is safe for concurrent use.
type Bridge struct {
	mu     sync.Mutex
	store  Store
	sender MessageSender
	logger *zap.Logger

	currentUserID string
	selectedPeer  string
	messages      []*message.Message
	unread        map[string]int
}

func NewBridge(currentUserID string, store Store, sender MessageSender, logger *zap.Logger) *Bridge {
	return &Bridge{
		store:         store,
		sender:        sender,
		logger:        logger,
		currentUserID: currentUserID,
		unread:        make(map[string]int),
	}
}

func (b *Bridge) CurrentUserID() string {
	return b.currentUserID
}

func (b *Bridge) SelectedPeer() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selectedPeer
}

// Messages returns a copy of the open thread.
func (b *Bridge) Messages() []*message.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyMessages(b.messages)
}

// UnreadCounts returns a copy of the per-peer counts.
func (b *Bridge) UnreadCounts() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unreadSnapshot()
}

// LoadUnreadCounts replaces the counts with the store's.
func (b *Bridge) LoadUnreadCounts(ctx context.Context) ([]Update, error) {
	counts, err := b.store.UnreadCounts(ctx, b.currentUserID)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.unread = make(map[string]int, len(counts))
	for peer, n := range counts {
		b.unread[peer] = n
	}
	return []Update{{Kind: UpdateUnread, Unread: b.unreadSnapshot()}}, nil
}

// SelectPeer opens the thread with peerID, marks the peer's messages seen
// and clears the peer's unread count. Calling it again is harmless.
func (b *Bridge) SelectPeer(ctx context.Context, peerID string) ([]Update, error) {
	if peerID == "" {
		return nil, xerrors.Required("peer_id", "Peer")
	}
	if peerID == b.currentUserID {
		return nil, xerrors.Invalid("peer_id", "Cannot open a conversation with yourself")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	thread, err := b.store.Thread(ctx, b.currentUserID, peerID)
	if err != nil {
		return nil, err
	}
	seen, err := b.store.MarkThreadSeen(ctx, b.currentUserID, peerID)
	if err != nil {
		return nil, err
	}

	seenAt := make(map[int64]*message.Message, len(seen))
	for _, m := range seen {
		seenAt[m.ID] = m
	}
	for _, m := range thread {
		if s, ok := seenAt[m.ID]; ok && m.SeenAt == nil {
			m.SeenAt = s.SeenAt
		}
	}

	b.selectedPeer = peerID
	b.messages = thread
	b.unread[peerID] = 0

	return []Update{
		{Kind: UpdateThread, PeerID: peerID, Messages: copyMessages(thread)},
		{Kind: UpdateUnread, Unread: b.unreadSnapshot()},
	}, nil
}

// Apply folds one change-feed event into the view.
func (b *Bridge) Apply(ctx context.Context, ev *message.ChangeEvent) []Update {
	if ev == nil {
		return nil
	}
	row := ev.Row()
	if row == nil || !row.Involves(b.currentUserID) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Type {
	case message.ChangeInsert:
		return b.applyInsert(ctx, row)
	case message.ChangeUpdate:
		return b.applyUpdate(ev, row)
	case message.ChangeDelete:
		if !b.inOpenThread(row) {
			return nil
		}
		if i := b.indexOf(row.ID); i >= 0 {
			b.messages = append(b.messages[:i], b.messages[i+1:]...)
			return []Update{{Kind: UpdateRemove, PeerID: b.selectedPeer, MessageID: row.ID}}
		}
	}
	return nil
}

func (b *Bridge) applyInsert(ctx context.Context, row *message.Message) []Update {
	open := b.inOpenThread(row)
	if open && b.indexOf(row.ID) >= 0 {
		return nil
	}

	var updates []Update
	incoming := row.Receiver == b.currentUserID && row.Sender != b.currentUserID
	if incoming {
		b.unread[row.Sender]++
	}

	if open {
		m := *row
		if incoming {
			if m.SeenAt == nil {
				b.markSeen(ctx, &m)
			}
			b.unread[m.Sender] = 0
		}
		b.messages = append(b.messages, &m)
		cp := m
		updates = append(updates,
			Update{Kind: UpdateAppend, PeerID: b.selectedPeer, Message: &cp},
			Update{Kind: UpdateScroll, PeerID: b.selectedPeer},
		)
	}

	if incoming {
		updates = append(updates, Update{Kind: UpdateUnread, Unread: b.unreadSnapshot()})
	}
	return updates
}

func (b *Bridge) applyUpdate(ev *message.ChangeEvent, row *message.Message) []Update {
	var updates []Update

	// Seen elsewhere, for example in another session of the same user.
	if row.Receiver == b.currentUserID && row.SeenAt != nil &&
		ev.OldRecord != nil && ev.OldRecord.SeenAt == nil && b.unread[row.Sender] > 0 {
		b.unread[row.Sender]--
		updates = append(updates, Update{Kind: UpdateUnread, Unread: b.unreadSnapshot()})
	}

	if b.inOpenThread(row) {
		if i := b.indexOf(row.ID); i >= 0 {
			m := *row
			b.messages[i] = &m
			cp := m
			updates = append(updates, Update{Kind: UpdateReplace, PeerID: b.selectedPeer, Message: &cp})
		}
	}
	return updates
}

func (b *Bridge) markSeen(ctx context.Context, m *message.Message) {
	seen, err := b.store.MarkMessageSeen(ctx, m.ID)
	switch {
	case err == nil:
		m.SeenAt = seen.SeenAt
	case errors.Is(err, xerrors.ErrNotFound):
	default:
		b.logger.Warn("failed to mark message seen", zap.Int64("message_id", m.ID), zap.Error(err))
	}
}

// Send posts a message to the selected peer.
func (b *Bridge) Send(ctx context.Context, content string, attachmentURL *string, attachment *Attachment) (*message.Message, error) {
	peer := b.SelectedPeer()
	if peer == "" {
		return nil, xerrors.Invalid("peer_id", "Select a conversation first")
	}
	return b.sender.Send(ctx, SendInput{
		Sender:        b.currentUserID,
		Receiver:      peer,
		Content:       content,
		AttachmentURL: attachmentURL,
		Attachment:    attachment,
	})
}

// Resync reloads counts and the open thread after the feed was
// interrupted and events may have been missed.
func (b *Bridge) Resync(ctx context.Context) ([]Update, error) {
	updates, err := b.LoadUnreadCounts(ctx)
	if err != nil {
		return nil, err
	}
	peer := b.SelectedPeer()
	if peer == "" {
		return updates, nil
	}
	thread, err := b.SelectPeer(ctx, peer)
	if err != nil {
		return nil, err
	}
	return append(updates, thread...), nil
}

func (b *Bridge) inOpenThread(m *message.Message) bool {
	return b.selectedPeer != "" && m.Between(b.currentUserID, b.selectedPeer)
}

func (b *Bridge) indexOf(id int64) int {
	for i, m := range b.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (b *Bridge) unreadSnapshot() map[string]int {
	out := make(map[string]int, len(b.unread))
	for k, v := range b.unread {
		out[k] = v
	}
	return out
}

func copyMessages(in []*message.Message) []*message.Message {
	out := make([]*message.Message, len(in))
	for i, m := range in {
		cp := *m
		out[i] = &cp
	}
	return out
}
