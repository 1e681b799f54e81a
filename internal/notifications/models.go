package notifications

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a notification pushed to a connected client.
type EventType string

const (
	EventDocumentPending EventType = "document_pending"
	EventDocumentDecided EventType = "document_decided"
	EventReminder        EventType = "reminder"
)

// Event is one message on a user's websocket. Data is a small flat map so
// frontends can render without schema coupling.
type Event struct {
	Type      EventType      `json:"type"`
	UserID    uuid.UUID      `json:"-"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}
