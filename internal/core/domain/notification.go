package domain

import "time"

type NotificationType string

const (
	NotifInfo    NotificationType = "info"
	NotifSuccess NotificationType = "success"
	NotifWarning NotificationType = "warning"
	NotifError   NotificationType = "error"
)

// Notification is ephemeral client-facing feedback derived from the invoice
// set (import results, batch completion, compliance warnings). Never persisted.
type Notification struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        NotificationType `json:"type"`
	RelatedID   string           `json:"related_id,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	Read        bool             `json:"read"`
}
