package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DevS-25/Paperless/internal/documents"
)

// Service turns workflow events into websocket pushes. It satisfies the
// notifier hook of the documents service.
type Service struct {
	hub    *Hub
	logger *zap.Logger
}

func NewService(hub *Hub, logger *zap.Logger) *Service {
	return &Service{hub: hub, logger: logger}
}

// DocumentPending tells the receiving approver a document landed in their
// queue.
func (s *Service) DocumentPending(ctx context.Context, userID uuid.UUID, doc *documents.Document) {
	s.hub.Send(Event{
		Type:   EventDocumentPending,
		UserID: userID,
		Data: map[string]any{
			"document_id": doc.ID.String(),
			"file_name":   doc.FileName,
			"status":      string(doc.Status),
		},
		Timestamp: time.Now(),
	})
}

// DocumentDecided tells the owner their document reached a terminal state.
func (s *Service) DocumentDecided(ctx context.Context, ownerID uuid.UUID, doc *documents.Document) {
	data := map[string]any{
		"document_id": doc.ID.String(),
		"file_name":   doc.FileName,
		"status":      string(doc.Status),
	}
	if doc.RejectionReason != nil {
		data["rejection_reason"] = *doc.RejectionReason
	}
	s.hub.Send(Event{
		Type:      EventDocumentDecided,
		UserID:    ownerID,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// Remind nudges the holder of a document that has sat in their queue too
// long.
func (s *Service) Remind(userID uuid.UUID, doc *documents.Document, waiting time.Duration) {
	s.hub.Send(Event{
		Type:   EventReminder,
		UserID: userID,
		Data: map[string]any{
			"document_id":   doc.ID.String(),
			"file_name":     doc.FileName,
			"status":        string(doc.Status),
			"waiting_hours": int(waiting.Hours()),
		},
		Timestamp: time.Now(),
	})
}
