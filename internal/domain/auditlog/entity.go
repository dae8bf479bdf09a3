// internal/domain/auditlog/entity.go
package auditlog

import "time"

type Entry struct {
	ID        int64     `json:"id"`
	UserID    *string   `json:"user_id"`
	Action    string    `json:"action"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
