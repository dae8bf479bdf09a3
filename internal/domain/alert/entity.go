// internal/domain/alert/entity.go
package alert

import (
	"time"

	"amayalert-service/internal/domain/notification"
)

type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	}
	return false
}

// Method selects the broadcast channels.
type Method string

const (
	MethodAppPush Method = "app_push"
	MethodApp     Method = "app"
	MethodSMS     Method = "sms"
	MethodBoth    Method = "both"
)

func (m Method) Valid() bool {
	switch m {
	case MethodAppPush, MethodApp, MethodSMS, MethodBoth:
		return true
	}
	return false
}

func (m Method) Push() bool  { return m == MethodAppPush || m == MethodBoth }
func (m Method) Email() bool { return m == MethodApp || m == MethodAppPush || m == MethodBoth }
func (m Method) SMS() bool   { return m == MethodSMS || m == MethodBoth }

type Alert struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	AlertLevel Level      `json:"alert_level"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

type CreateAlertRequest struct {
	Title              string `json:"title"`
	Content            string `json:"content"`
	AlertLevel         Level  `json:"alert_level"`
	NotificationMethod Method `json:"notification_method"`
	UserID             string `json:"userId"`
}

type UpdateAlertRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	AlertLevel *Level  `json:"alert_level"`
}

type ListFilters struct {
	Search     string `form:"search"`
	AlertLevel string `form:"alert_level"`
}

// IsDefault reports whether no filter is set.
func (f ListFilters) IsDefault() bool {
	return f.Search == "" && f.AlertLevel == ""
}

type BroadcastResult struct {
	Alert         *Alert               `json:"alert"`
	Notifications *notification.Report `json:"notifications"`
	Message       string               `json:"-"`
}
