// internal/repository/postgres/message_repo.go
package postgres

import (
	"context"
	"fmt"

	"amayalert-service/internal/domain/message"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `id, sender::text, receiver::text, content, attachment_url, seen_at, created_at`

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row pgx.Row) (*message.Message, error) {
	var m message.Message
	if err := row.Scan(&m.ID, &m.Sender, &m.Receiver, &m.Content, &m.AttachmentURL, &m.SeenAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMessages(rows pgx.Rows) ([]*message.Message, error) {
	defer rows.Close()
	messages := []*message.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Thread returns both directions of the a/b conversation, oldest first.
func (r *MessageRepository) Thread(ctx context.Context, a, b string) ([]*message.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, a, b)
	if err != nil {
		return nil, wrapErr(err, "load thread")
	}
	return collectMessages(rows)
}

// MarkThreadSeen stamps every unseen message from peer to reader and
// returns the rows it touched. Rows already seen keep their seen_at.
func (r *MessageRepository) MarkThreadSeen(ctx context.Context, reader, peer string) ([]*message.Message, error) {
	query := `
		UPDATE messages SET seen_at = now()
		WHERE sender = $1 AND receiver = $2 AND seen_at IS NULL
		RETURNING ` + messageColumns
	rows, err := r.db.Query(ctx, query, peer, reader)
	if err != nil {
		return nil, wrapErr(err, "mark thread seen")
	}
	return collectMessages(rows)
}

// MarkMessageSeen stamps one message; ErrNotFound when it was already seen.
func (r *MessageRepository) MarkMessageSeen(ctx context.Context, id int64) (*message.Message, error) {
	query := `UPDATE messages SET seen_at = now() WHERE id = $1 AND seen_at IS NULL RETURNING ` + messageColumns
	m, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "mark message seen")
	}
	return m, nil
}

// UnreadCounts returns per-sender unseen counts addressed to userID.
func (r *MessageRepository) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT sender::text, COUNT(*)
		FROM messages
		WHERE receiver = $1 AND sender <> $1 AND seen_at IS NULL
		GROUP BY sender
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr(err, "count unread messages")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sender string
		var n int
		if err := rows.Scan(&sender, &n); err != nil {
			return nil, fmt.Errorf("failed to scan unread count: %w", err)
		}
		counts[sender] = n
	}
	return counts, rows.Err()
}

func (r *MessageRepository) Create(ctx context.Context, m *message.Message) error {
	query := `
		INSERT INTO messages (sender, receiver, content, attachment_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, m.Sender, m.Receiver, m.Content, m.AttachmentURL).Scan(&m.ID, &m.CreatedAt)
	return wrapErr(err, "create message")
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*message.Message, error) {
	m, err := scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "find message")
	}
	return m, nil
}
