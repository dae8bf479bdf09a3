// internal/domain/message/entity.go
package message

import "time"

type Message struct {
	ID            int64      `json:"id"`
	Sender        string     `json:"sender"`
	Receiver      string     `json:"receiver"`
	Content       string     `json:"content"`
	AttachmentURL *string    `json:"attachment_url"`
	SeenAt        *time.Time `json:"seen_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Involves reports whether userID is either party of the message.
func (m *Message) Involves(userID string) bool {
	return m.Sender == userID || m.Receiver == userID
}

// Between reports whether the message belongs to the a/b thread.
func (m *Message) Between(a, b string) bool {
	return (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a)
}

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent is one row-level change on the messages table.
type ChangeEvent struct {
	Type      ChangeType `json:"type"`
	Record    *Message   `json:"record"`
	OldRecord *Message   `json:"old_record"`
	Truncated bool       `json:"truncated"`
	ID        int64      `json:"id"`
}

// Row returns the row the event is about: the new record, or the old one
// for deletes.
func (e *ChangeEvent) Row() *Message {
	if e.Type == ChangeDelete {
		return e.OldRecord
	}
	return e.Record
}

type SendRequest struct {
	Receiver      string  `json:"receiver"`
	Content       string  `json:"content"`
	AttachmentURL *string `json:"attachment_url"`
}

type MarkSeenRequest struct {
	PeerID string `json:"peer_id"`
}
