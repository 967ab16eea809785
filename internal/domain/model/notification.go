package model

// NotificationLevel classifies a user-visible notification.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a short message shown to the user.
type Notification struct {
	Level   NotificationLevel
	Message string
}
