package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/DevS-25/Paperless/internal/workflow"
)

// Document is the unit that travels through the approval chain. Its status
// is the single source of truth for who may act next; it only changes
// through validated transitions.
type Document struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	OwnerID          uuid.UUID       `json:"owner_id" db:"owner_id"`
	FileName         string          `json:"file_name" db:"file_name"`
	FileType         string          `json:"file_type" db:"file_type"`
	FileSize         int64           `json:"file_size" db:"file_size"`
	S3Key            string          `json:"-" db:"s3_key"`
	S3Bucket         string          `json:"-" db:"s3_bucket"`
	Description      string          `json:"description" db:"description"`
	Status           workflow.Status `json:"status" db:"status"`
	HolderUserID     *uuid.UUID      `json:"holder_user_id,omitempty" db:"holder_user_id"`
	RejectionReason  *string         `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ApprovalSheetKey *string         `json:"-" db:"approval_sheet_key"`
	UploadedAt       time.Time       `json:"uploaded_at" db:"uploaded_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// HolderRole is derived from the status; only pending documents have one.
func (d *Document) HolderRole() (workflow.Role, bool) {
	return d.Status.HolderRole()
}

// HistoryEntry records one successful transition. The history is
// append-only: failed attempts leave no trace, rewrites never happen.
type HistoryEntry struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	DocumentID   uuid.UUID       `json:"document_id" db:"document_id"`
	ActorID      uuid.UUID       `json:"actor_id" db:"actor_id"`
	ActorRole    workflow.Role   `json:"actor_role" db:"actor_role"`
	FromStatus   workflow.Status `json:"from_status" db:"from_status"`
	ToStatus     workflow.Status `json:"to_status" db:"to_status"`
	HolderUserID *uuid.UUID      `json:"holder_user_id,omitempty" db:"holder_user_id"`
	Reason       *string         `json:"reason,omitempty" db:"reason"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// StatusCount is a per-status tally for the admin dashboard.
type StatusCount struct {
	Status workflow.Status `json:"status" db:"status"`
	Count  int64           `json:"count" db:"count"`
}
