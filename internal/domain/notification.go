package domain

import "time"

// Notification kinds published by the transfer saga.
const (
	NotificationTransferSent     = "transfer.sent"
	NotificationTransferReceived = "transfer.received"
	NotificationTransferBlocked  = "transfer.blocked"
)

// NotificationEvent is the payload published to the notification pipeline.
// Delivery is best-effort; consumers fan it out to email/push.
type NotificationEvent struct {
	Party     string            `json:"party"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
