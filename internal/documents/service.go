package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DevS-25/Paperless/internal/users"
	"github.com/DevS-25/Paperless/internal/workflow"
	"github.com/DevS-25/Paperless/pkg/pdf"
	"github.com/DevS-25/Paperless/pkg/storage"
)

// UserDirectory is the slice of the users service the workflow needs:
// profile lookup and forward-target resolution.
type UserDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*users.User, error)
	ResolveApprover(ctx context.Context, q users.ApproverQuery) (*users.User, error)
}

// Notifier delivers workflow events to interested users. Delivery is best
// effort; a failed notification never rolls a transition back.
type Notifier interface {
	DocumentPending(ctx context.Context, userID uuid.UUID, doc *Document)
	DocumentDecided(ctx context.Context, ownerID uuid.UUID, doc *Document)
}

// allowedExtensions are the upload formats the portal accepts.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

const MaxUploadSize = 25 << 20 // 25 MiB

type Service interface {
	Upload(ctx context.Context, owner *users.User, fileName, description string, size int64, body io.Reader) (*Document, error)
	Get(ctx context.Context, actor *users.User, id uuid.UUID) (*Document, error)
	DeleteDraft(ctx context.Context, owner *users.User, id uuid.UUID) error
	Open(ctx context.Context, actor *users.User, id uuid.UUID) (*Document, io.ReadCloser, error)
	ApprovalSheetURL(ctx context.Context, actor *users.User, id uuid.UUID) (string, error)

	Submit(ctx context.Context, owner *users.User, id uuid.UUID, mentorID *uuid.UUID) (*Document, error)
	Approve(ctx context.Context, actor *users.User, role workflow.Role, id uuid.UUID) (*Document, error)
	Reject(ctx context.Context, actor *users.User, role workflow.Role, id uuid.UUID, reason string) (*Document, error)
	Forward(ctx context.Context, actor *users.User, role workflow.Role, id uuid.UUID, target workflow.Role, targetUserID *uuid.UUID) (*Document, error)

	ListOwned(ctx context.Context, owner *users.User) ([]Document, error)
	ListPending(ctx context.Context, actor *users.User, role workflow.Role) ([]Document, error)
	ListHandled(ctx context.Context, actor *users.User, role workflow.Role) ([]Document, error)
	History(ctx context.Context, actor *users.User, id uuid.UUID) ([]HistoryEntry, error)
	AllowedActions(doc *Document, actor *users.User) []workflow.Action
}

type service struct {
	repo     Repository
	users    UserDirectory
	store    storage.Client
	sheets   *pdf.Generator
	engine   *workflow.Engine
	notifier Notifier
	bucket   string
	logger   *zap.Logger
}

func NewService(repo Repository, dir UserDirectory, store storage.Client, sheets *pdf.Generator, engine *workflow.Engine, notifier Notifier, bucket string, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		users:    dir,
		store:    store,
		sheets:   sheets,
		engine:   engine,
		notifier: notifier,
		bucket:   bucket,
		logger:   logger,
	}
}

// Upload stores the file and creates a draft. Only students own documents.
func (s *service) Upload(ctx context.Context, owner *users.User, fileName, description string, size int64, body io.Reader) (*Document, error) {
	if !owner.HasRole(workflow.RoleStudent) {
		return nil, workflow.Errf(workflow.KindUnauthorized, "only students can upload documents")
	}
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." {
		return nil, workflow.Errf(workflow.KindValidation, "file name is required")
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return nil, workflow.Errf(workflow.KindValidation, "file type %s is not accepted", ext)
	}
	if size <= 0 || size > MaxUploadSize {
		return nil, workflow.Errf(workflow.KindValidation, "file size must be between 1 byte and %d bytes", MaxUploadSize)
	}

	id := uuid.New()
	key := fmt.Sprintf("students/%s/documents/%s/%s", owner.ID, id, fileName)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.Upload(ctx, s.bucket, key, contentType, body); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &Document{
		ID:          id,
		OwnerID:     owner.ID,
		FileName:    fileName,
		FileType:    contentType,
		FileSize:    size,
		S3Key:       key,
		S3Bucket:    s.bucket,
		Description: description,
		Status:      workflow.StatusDraft,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.logger.Info("document uploaded",
		zap.String("document_id", id.String()),
		zap.String("owner_id", owner.ID.String()),
		zap.String("file", fileName))
	return doc, nil
}

func (s *service) Get(ctx context.Context, actor *users.User, id uuid.UUID) (*Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, actor, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDraft removes an unsubmitted draft. The stored file is kept; only
// the record goes away.
func (s *service) DeleteDraft(ctx context.Context, owner *users.User, id uuid.UUID) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if doc.OwnerID != owner.ID {
		return workflow.Errf(workflow.KindUnauthorized, "only the owner can delete a document")
	}
	if err := s.engine.Delete(doc.Status); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.logger.Info("draft deleted", zap.String("document_id", id.String()))
	return nil
}

// Open returns the stored file as a stream for preview and download. The
// caller owns the reader and must close it on every exit path.
func (s *service) Open(ctx context.Context, actor *users.User, id uuid.UUID) (*Document, io.ReadCloser, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.canView(ctx, actor, doc); err != nil {
		return nil, nil, err
	}
	body, err := s.store.Download(ctx, doc.S3Bucket, doc.S3Key)
	if err != nil {
		return nil, nil, err
	}
	return doc, body, nil
}

// ApprovalSheetURL returns a short-lived link to the generated sheet of a
// decided document.
func (s *service) ApprovalSheetURL(ctx context.Context, actor *users.User, id uuid.UUID) (string, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.canView(ctx, actor, doc); err != nil {
		return "", err
	}
	if doc.ApprovalSheetKey == nil {
		return "", workflow.Errf(workflow.KindNotFound, "document %s has no approval sheet yet", id)
	}
	return s.store.PresignedURL(ctx, doc.S3Bucket, *doc.ApprovalSheetKey, 15*time.Minute)
}

// Submit moves a draft into the owner's mentor's queue. The mentor is
// resolved within the owner's department; mentorID picks one when the
// department has several.
func (s *service) Submit(ctx context.Context, owner *users.User, id uuid.UUID, mentorID *uuid.UUID) (*Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != owner.ID {
		return nil, workflow.Errf(workflow.KindUnauthorized, "only the owner can submit a document")
	}
	next, err := s.engine.Submit(doc.Status)
	if err != nil {
		return nil, err
	}
	mentor, err := s.users.ResolveApprover(ctx, users.ApproverQuery{
		Role:       workflow.RoleMentor,
		Department: owner.Department,
		ExplicitID: mentorID,
	})
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, doc, TransitionRecord{
		DocumentID:   doc.ID,
		From:         doc.Status,
		To:           next,
		HolderUserID: &mentor.ID,
		ActorID:      owner.ID,
		ActorRole:    workflow.RoleStudent,
	}, &mentor.ID)
}

// Approve finishes the workflow at the acting stage. The actor must be the
// current holder; approval is terminal and produces an approval sheet.
func (s *service) Approve(ctx context.Context, actor *users.User, role workflow.Role, id uuid.UUID) (*Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireHolder(actor, role, doc); err != nil {
		return nil, err
	}
	next, err := s.engine.Approve(doc.Status, role)
	if err != nil {
		return nil, err
	}
	doc, err = s.commit(ctx, doc, TransitionRecord{
		DocumentID: doc.ID,
		From:       doc.Status,
		To:         next,
		ActorID:    actor.ID,
		ActorRole:  role,
	}, nil)
	if err != nil {
		return nil, err
	}
	if err := s.generateApprovalSheet(ctx, doc, actor, role, "APPROVED", ""); err != nil {
		// The approval already committed; the sheet can be regenerated.
		s.logger.Error("approval sheet generation failed",
			zap.String("document_id", doc.ID.String()), zap.Error(err))
	}
	if s.notifier != nil {
		s.notifier.DocumentDecided(ctx, doc.OwnerID, doc)
	}
	return doc, nil
}

// Reject finishes the workflow with a mandatory reason.
func (s *service) Reject(ctx context.Context, actor *users.User, role workflow.Role, id uuid.UUID, reason string) (*Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireHolder(actor, role, doc); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	next, err := s.engine.Reject(doc.Status, role, reason)
	if err != nil {
		return nil, err
	}
	doc, err = s.commit(ctx, doc, TransitionRecord{
		DocumentID: doc.ID,
		From:       doc.Status,
		To:         next,
		ActorID:    actor.ID,
		ActorRole:  role,
		Reason:     &reason,
	}, nil)
	if err != nil {
		return nil, err
	}
	if err := s.generateApprovalSheet(ctx, doc, actor, role, "REJECTED", reason); err != nil {
		s.logger.Error("approval sheet generation failed",
			zap.String("document_id", doc.ID.String()), zap.Error(err))
	}
	if s.notifier != nil {
		s.notifier.DocumentDecided(ctx, doc.OwnerID, doc)
	}
	return doc, nil
}

// Forward hands the document to a user holding the target role. Department
// scoping follows the target: MENTOR and HOD resolve within the owner's
// department, a dean forwarding to another dean excludes their own.
func (s *service) Forward(ctx context.Context, actor *users.User, role workflow.Role, id uuid.UUID, target workflow.Role, targetUserID *uuid.UUID) (*Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireHolder(actor, role, doc); err != nil {
		return nil, err
	}
	next, err := s.engine.Forward(doc.Status, role, target)
	if err != nil {
		return nil, err
	}

	q := users.ApproverQuery{Role: target, ExplicitID: targetUserID}
	if target.DepartmentScoped() {
		owner, err := s.users.Get(ctx, doc.OwnerID)
		if err != nil {
			return nil, err
		}
		q.Department = owner.Department
	}
	if role == workflow.RoleDean && target == workflow.RoleDean {
		// A dean hands over to a dean of another school, never back to
		// their own seat.
		q.Department = ""
		q.ExcludeDepartment = actor.Department
	}
	receiver, err := s.users.ResolveApprover(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, doc, TransitionRecord{
		DocumentID:   doc.ID,
		From:         doc.Status,
		To:           next,
		HolderUserID: &receiver.ID,
		ActorID:      actor.ID,
		ActorRole:    role,
	}, &receiver.ID)
}

func (s *service) ListOwned(ctx context.Context, owner *users.User) ([]Document, error) {
	return s.repo.ListByOwner(ctx, owner.ID)
}

func (s *service) ListPending(ctx context.Context, actor *users.User, role workflow.Role) ([]Document, error) {
	if !actor.HasRole(role) {
		return nil, workflow.Errf(workflow.KindUnauthorized, "user does not hold role %s", role)
	}
	return s.repo.ListPendingForHolder(ctx, actor.ID, role)
}

// ListHandled returns every document that ever passed through the actor's
// queue in the given role, including ones since moved on or decided.
func (s *service) ListHandled(ctx context.Context, actor *users.User, role workflow.Role) ([]Document, error) {
	if !actor.HasRole(role) {
		return nil, workflow.Errf(workflow.KindUnauthorized, "user does not hold role %s", role)
	}
	return s.repo.ListEverHeld(ctx, actor.ID, role)
}

func (s *service) History(ctx context.Context, actor *users.User, id uuid.UUID) ([]HistoryEntry, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, actor, doc); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

func (s *service) AllowedActions(doc *Document, actor *users.User) []workflow.Action {
	var out []workflow.Action
	if doc.Status == workflow.StatusDraft {
		if doc.OwnerID == actor.ID {
			out = s.engine.AllowedActions(doc.Status, workflow.RoleStudent)
		}
		return out
	}
	if doc.HolderUserID == nil || *doc.HolderUserID != actor.ID {
		return nil
	}
	for _, r := range actor.RoleSet() {
		out = append(out, s.engine.AllowedActions(doc.Status, r)...)
	}
	return out
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, workflow.Errf(workflow.KindNotFound, "document %s not found", id)
	}
	return doc, nil
}

// requireHolder checks the personal assignment on top of the role check the
// engine makes: holding the right role is not enough, the document must be
// in this user's queue.
func (s *service) requireHolder(actor *users.User, role workflow.Role, doc *Document) error {
	if !actor.HasRole(role) {
		return workflow.Errf(workflow.KindUnauthorized, "user does not hold role %s", role)
	}
	if holder, ok := doc.HolderRole(); ok && holder == role {
		if doc.HolderUserID == nil || *doc.HolderUserID != actor.ID {
			return workflow.Errf(workflow.KindUnauthorized, "document is assigned to another %s", role)
		}
	}
	return nil
}

// canView allows the owner, the current holder, anyone who held the
// document earlier in the chain, and admins.
func (s *service) canView(ctx context.Context, actor *users.User, doc *Document) error {
	if doc.OwnerID == actor.ID || actor.HasRole(workflow.RoleAdmin) {
		return nil
	}
	if doc.HolderUserID != nil && *doc.HolderUserID == actor.ID {
		return nil
	}
	held, err := s.repo.WasHolder(ctx, doc.ID, actor.ID)
	if err != nil {
		return fmt.Errorf("check holder history: %w", err)
	}
	if held {
		return nil
	}
	return workflow.Errf(workflow.KindUnauthorized, "no access to this document")
}

// commit applies the already validated transition. A zero-row update means
// the document changed under us; the caller sees that as a conflict, same
// as any other illegal transition.
func (s *service) commit(ctx context.Context, doc *Document, rec TransitionRecord, notifyHolder *uuid.UUID) (*Document, error) {
	ok, err := s.repo.Transition(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	if !ok {
		return nil, workflow.Errf(workflow.KindInvalidTransition,
			"document %s is no longer in status %s", doc.ID, rec.From)
	}
	s.logger.Info("document transitioned",
		zap.String("document_id", doc.ID.String()),
		zap.String("from", string(rec.From)),
		zap.String("to", string(rec.To)),
		zap.String("actor_role", string(rec.ActorRole)))

	updated, err := s.load(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if notifyHolder != nil && s.notifier != nil {
		s.notifier.DocumentPending(ctx, *notifyHolder, updated)
	}
	return updated, nil
}

func (s *service) generateApprovalSheet(ctx context.Context, doc *Document, actor *users.User, role workflow.Role, decision, reason string) error {
	owner, err := s.users.Get(ctx, doc.OwnerID)
	if err != nil {
		return err
	}
	entries, err := s.repo.History(ctx, doc.ID)
	if err != nil {
		return err
	}
	trail := make([]pdf.TrailEntry, 0, len(entries))
	for _, e := range entries {
		what := describeTransition(e.ToStatus)
		actorName := e.ActorID.String()
		if u, err := s.users.Get(ctx, e.ActorID); err == nil {
			actorName = u.Name
		}
		trail = append(trail, pdf.TrailEntry{
			At:    e.CreatedAt,
			Actor: actorName,
			Role:  string(e.ActorRole),
			What:  what,
		})
	}

	var signature []byte
	if actor.SignatureKey != nil {
		rc, err := s.store.Download(ctx, s.bucket, *actor.SignatureKey)
		if err == nil {
			signature, _ = io.ReadAll(rc)
			rc.Close()
		}
	}

	sheet, err := s.sheets.ApprovalSheet(pdf.SheetData{
		DocumentID:   doc.ID.String(),
		FileName:     doc.FileName,
		Description:  doc.Description,
		OwnerName:    owner.Name,
		OwnerEmail:   owner.Email,
		Department:   owner.Department,
		Decision:     decision,
		DecidedBy:    actor.Name,
		DeciderRole:  string(role),
		Reason:       reason,
		DecidedAt:    time.Now(),
		TrailEntries: trail,
		Signature:    signature,
	})
	if err != nil {
		return err
	}
	key := fmt.Sprintf("students/%s/documents/%s/approval-sheet.pdf", doc.OwnerID, doc.ID)
	if err := s.store.Upload(ctx, s.bucket, key, "application/pdf", bytes.NewReader(sheet)); err != nil {
		return err
	}
	if err := s.repo.SetApprovalSheet(ctx, doc.ID, key); err != nil {
		return err
	}
	doc.ApprovalSheetKey = &key
	return nil
}

func describeTransition(to workflow.Status) string {
	switch {
	case to.IsPending():
		r, _ := to.HolderRole()
		return "forwarded to " + string(r)
	case to.IsApproved():
		return "approved"
	case to.IsRejected():
		return "rejected"
	}
	return string(to)
}
