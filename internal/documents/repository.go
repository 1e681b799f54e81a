package documents

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/DevS-25/Paperless/internal/workflow"
)

type Repository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetApprovalSheet(ctx context.Context, id uuid.UUID, key string) error

	// Transition commits a validated status move. The update is conditional
	// on the status the caller observed; false means the document moved in
	// the meantime and the precondition no longer holds.
	Transition(ctx context.Context, rec TransitionRecord) (bool, error)

	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Document, error)
	ListPendingForHolder(ctx context.Context, userID uuid.UUID, role workflow.Role) ([]Document, error)
	ListEverHeld(ctx context.Context, userID uuid.UUID, role workflow.Role) ([]Document, error)
	ListPendingOlderThan(ctx context.Context, age time.Duration) ([]Document, error)
	History(ctx context.Context, documentID uuid.UUID) ([]HistoryEntry, error)
	WasHolder(ctx context.Context, documentID, userID uuid.UUID) (bool, error)

	Count(ctx context.Context) (int64, error)
	CountByStatuses(ctx context.Context, statuses []workflow.Status) (int64, error)
	CountPerStatus(ctx context.Context) ([]StatusCount, error)
}

// TransitionRecord carries everything one successful transition writes:
// the conditional status update and its history entry.
type TransitionRecord struct {
	DocumentID   uuid.UUID
	From         workflow.Status
	To           workflow.Status
	HolderUserID *uuid.UUID // receiving user for forwards, nil otherwise
	ActorID      uuid.UUID
	ActorRole    workflow.Role
	Reason       *string // rejection reason, nil for every other transition
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (
			id, owner_id, file_name, file_type, file_size, s3_key, s3_bucket,
			description, status, holder_user_id, rejection_reason,
			approval_sheet_key, uploaded_at, updated_at
		) VALUES (
			:id, :owner_id, :file_name, :file_type, :file_size, :s3_key, :s3_bucket,
			:description, :status, :holder_user_id, :rejection_reason,
			:approval_sheet_key, :uploaded_at, :updated_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, doc)
	return err
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	err := r.db.GetContext(ctx, &doc, "SELECT * FROM documents WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &doc, err
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	return err
}

func (r *postgresRepository) SetApprovalSheet(ctx context.Context, id uuid.UUID, key string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE documents SET approval_sheet_key = $2 WHERE id = $1", id, key)
	return err
}

func (r *postgresRepository) Transition(ctx context.Context, rec TransitionRecord) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	// Re-validate the precondition against the stored status at commit
	// time; a concurrent transition makes this match zero rows.
	res, err := tx.ExecContext(ctx, `
		UPDATE documents SET
			status = $3,
			holder_user_id = $4,
			rejection_reason = $5,
			updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		rec.DocumentID, rec.From, rec.To, rec.HolderUserID, rec.Reason)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_history (
			id, document_id, actor_id, actor_role, from_status, to_status,
			holder_user_id, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		uuid.New(), rec.DocumentID, rec.ActorID, rec.ActorRole,
		rec.From, rec.To, rec.HolderUserID, rec.Reason)
	if err != nil {
		return false, fmt.Errorf("append history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transition: %w", err)
	}
	return true, nil
}

func (r *postgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Document, error) {
	var docs []Document
	err := r.db.SelectContext(ctx, &docs,
		"SELECT * FROM documents WHERE owner_id = $1 ORDER BY uploaded_at DESC", ownerID)
	return docs, err
}

func (r *postgresRepository) ListPendingForHolder(ctx context.Context, userID uuid.UUID, role workflow.Role) ([]Document, error) {
	var docs []Document
	err := r.db.SelectContext(ctx, &docs, `
		SELECT * FROM documents
		WHERE holder_user_id = $1 AND status = $2
		ORDER BY updated_at DESC`,
		userID, workflow.PendingStatus(role))
	return docs, err
}

// ListEverHeld returns every document that was at some point forwarded to
// the user in the given role, whatever its status is now.
func (r *postgresRepository) ListEverHeld(ctx context.Context, userID uuid.UUID, role workflow.Role) ([]Document, error) {
	var docs []Document
	err := r.db.SelectContext(ctx, &docs, `
		SELECT DISTINCT d.* FROM documents d
		JOIN document_history h ON h.document_id = d.id
		WHERE h.holder_user_id = $1 AND h.to_status = $2
		ORDER BY d.updated_at DESC`,
		userID, workflow.PendingStatus(role))
	return docs, err
}

func (r *postgresRepository) ListPendingOlderThan(ctx context.Context, age time.Duration) ([]Document, error) {
	var docs []Document
	err := r.db.SelectContext(ctx, &docs, `
		SELECT * FROM documents
		WHERE status LIKE 'FORWARDED_TO_%'
		  AND updated_at < NOW() - $1::interval
		ORDER BY updated_at`,
		fmt.Sprintf("%d seconds", int64(age.Seconds())))
	return docs, err
}

func (r *postgresRepository) History(ctx context.Context, documentID uuid.UUID) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM document_history
		WHERE document_id = $1
		ORDER BY created_at`,
		documentID)
	return entries, err
}

func (r *postgresRepository) WasHolder(ctx context.Context, documentID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM document_history
		WHERE document_id = $1 AND holder_user_id = $2`,
		documentID, userID)
	return n > 0, err
}

func (r *postgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM documents")
	return n, err
}

func (r *postgresRepository) CountByStatuses(ctx context.Context, statuses []workflow.Status) (int64, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	var n int64
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM documents WHERE status = ANY($1)", pq.Array(names))
	return n, err
}

func (r *postgresRepository) CountPerStatus(ctx context.Context) ([]StatusCount, error) {
	var out []StatusCount
	err := r.db.SelectContext(ctx, &out,
		"SELECT status, COUNT(*) AS count FROM documents GROUP BY status ORDER BY status")
	return out, err
}
