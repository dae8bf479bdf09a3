// internal/domain/rescue/entity.go
package rescue

import (
	"time"

	"amayalert-service/internal/domain/notification"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Label is the human form used in notifications.
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "in progress"
	}
	return string(s)
}

type Rescue struct {
	ID            int64      `json:"id"`
	UserID        *string    `json:"user_id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	Status        Status     `json:"status"`
	Priority      int        `json:"priority"`
	EmergencyType *string    `json:"emergency_type"`
	ContactPhone  *string    `json:"contact_phone"`
	ContactEmail  *string    `json:"contact_email"`
	Notes         *string    `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

type UpdateRescueRequest struct {
	Status    *Status `json:"status"`
	Priority  *int    `json:"priority"`
	Notes     *string `json:"notes"`
	SendEmail bool    `json:"send_email"`
}

type ListFilters struct {
	Status string `form:"status"`
	UserID string `form:"user_id"`
}

type UpdateResult struct {
	Rescue        *Rescue              `json:"rescue"`
	Notifications *notification.Report `json:"notifications"`
}
