package models

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a short, transient message for the waiter UI. An empty
// WaiterID addresses every waiter.
type Notification struct {
	ID        string           `json:"id"`
	WaiterID  string           `json:"waiterId,omitempty"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"type"`
	Icon      string           `json:"icon,omitempty"`
	CreatedAt int64            `json:"created_at"`
}
