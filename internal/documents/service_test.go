package documents

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DevS-25/Paperless/internal/users"
	"github.com/DevS-25/Paperless/internal/workflow"
	"github.com/DevS-25/Paperless/pkg/pdf"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, doc *Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	args := m.Called(ctx, id)
	if doc := args.Get(0); doc != nil {
		return doc.(*Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) SetApprovalSheet(ctx context.Context, id uuid.UUID, key string) error {
	return m.Called(ctx, id, key).Error(0)
}

func (m *mockRepository) Transition(ctx context.Context, rec TransitionRecord) (bool, error) {
	args := m.Called(ctx, rec)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Document, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]Document), args.Error(1)
}

func (m *mockRepository) ListPendingForHolder(ctx context.Context, userID uuid.UUID, role workflow.Role) ([]Document, error) {
	args := m.Called(ctx, userID, role)
	return args.Get(0).([]Document), args.Error(1)
}

func (m *mockRepository) ListEverHeld(ctx context.Context, userID uuid.UUID, role workflow.Role) ([]Document, error) {
	args := m.Called(ctx, userID, role)
	return args.Get(0).([]Document), args.Error(1)
}

func (m *mockRepository) ListPendingOlderThan(ctx context.Context, age time.Duration) ([]Document, error) {
	args := m.Called(ctx, age)
	return args.Get(0).([]Document), args.Error(1)
}

func (m *mockRepository) History(ctx context.Context, documentID uuid.UUID) ([]HistoryEntry, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).([]HistoryEntry), args.Error(1)
}

func (m *mockRepository) WasHolder(ctx context.Context, documentID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, documentID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) CountByStatuses(ctx context.Context, statuses []workflow.Status) (int64, error) {
	args := m.Called(ctx, statuses)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) CountPerStatus(ctx context.Context) ([]StatusCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]StatusCount), args.Error(1)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Get(ctx context.Context, id uuid.UUID) (*users.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*users.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDirectory) ResolveApprover(ctx context.Context, q users.ApproverQuery) (*users.User, error) {
	args := m.Called(ctx, q)
	if u := args.Get(0); u != nil {
		return u.(*users.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	return m.Called(ctx, bucket, key, contentType, body).Error(0)
}

func (m *mockStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if rc := args.Get(0); rc != nil {
		return rc.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, bucket, key string) error {
	return m.Called(ctx, bucket, key).Error(0)
}

func (m *mockStorage) PresignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, expiry)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) DocumentPending(ctx context.Context, userID uuid.UUID, doc *Document) {
	m.Called(ctx, userID, doc)
}

func (m *mockNotifier) DocumentDecided(ctx context.Context, ownerID uuid.UUID, doc *Document) {
	m.Called(ctx, ownerID, doc)
}

type fixture struct {
	repo     *mockRepository
	dir      *mockDirectory
	store    *mockStorage
	notifier *mockNotifier
	service  Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     new(mockRepository),
		dir:      new(mockDirectory),
		store:    new(mockStorage),
		notifier: new(mockNotifier),
	}
	f.service = NewService(f.repo, f.dir, f.store,
		pdf.NewGenerator("Test Institute"), workflow.NewEngine(),
		f.notifier, "test-bucket", zap.NewNop())
	return f
}

func student(dept string) *users.User {
	return &users.User{
		ID:         uuid.New(),
		Email:      "12345@veltech.edu.in",
		Name:       "Student",
		Roles:      []string{string(workflow.RoleStudent)},
		Department: dept,
	}
}

func staff(role workflow.Role, dept string) *users.User {
	return &users.User{
		ID:         uuid.New(),
		Email:      strings.ToLower(string(role)) + "@veltech.edu.in",
		Name:       string(role),
		Roles:      []string{string(role)},
		Department: dept,
	}
}

func draftOwnedBy(owner *users.User) *Document {
	return &Document{
		ID:       uuid.New(),
		OwnerID:  owner.ID,
		FileName: "report.pdf",
		FileType: "application/pdf",
		FileSize: 1024,
		S3Key:    "students/x/documents/y/report.pdf",
		S3Bucket: "test-bucket",
		Status:   workflow.StatusDraft,
	}
}

func pendingWith(owner, holder *users.User, role workflow.Role) *Document {
	doc := draftOwnedBy(owner)
	doc.Status = workflow.PendingStatus(role)
	doc.HolderUserID = &holder.ID
	return doc
}

func TestUploadRejectsNonStudents(t *testing.T) {
	f := newFixture(t)
	mentor := staff(workflow.RoleMentor, "CSE")

	_, err := f.service.Upload(context.Background(), mentor, "report.pdf", "", 100, bytes.NewReader(nil))

	assert.Equal(t, workflow.KindUnauthorized, workflow.KindOf(err))
	f.store.AssertNotCalled(t, "Upload")
}

func TestUploadRejectsUnknownFileType(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Upload(context.Background(), student("CSE"), "malware.exe", "", 100, bytes.NewReader(nil))

	assert.Equal(t, workflow.KindValidation, workflow.KindOf(err))
}

func TestUploadCreatesDraft(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")

	f.store.On("Upload", mock.Anything, "test-bucket", mock.Anything, "application/pdf", mock.Anything).Return(nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(doc *Document) bool {
		return doc.Status == workflow.StatusDraft && doc.OwnerID == owner.ID
	})).Return(nil)

	doc, err := f.service.Upload(context.Background(), owner, "report.pdf", "internship report", 2048, bytes.NewReader([]byte("pdf")))

	require.NoError(t, err)
	assert.Equal(t, workflow.StatusDraft, doc.Status)
	assert.Contains(t, doc.S3Key, owner.ID.String())
	f.repo.AssertExpectations(t)
}

func TestSubmitRoutesToMentorInOwnersDepartment(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	mentor := staff(workflow.RoleMentor, "CSE")
	doc := draftOwnedBy(owner)
	submitted := *doc
	submitted.Status = workflow.PendingStatus(workflow.RoleMentor)
	submitted.HolderUserID = &mentor.ID

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil).Once()
	f.dir.On("ResolveApprover", mock.Anything, users.ApproverQuery{
		Role:       workflow.RoleMentor,
		Department: "CSE",
	}).Return(mentor, nil)
	f.repo.On("Transition", mock.Anything, mock.MatchedBy(func(rec TransitionRecord) bool {
		return rec.From == workflow.StatusDraft &&
			rec.To == workflow.PendingStatus(workflow.RoleMentor) &&
			rec.HolderUserID != nil && *rec.HolderUserID == mentor.ID &&
			rec.ActorRole == workflow.RoleStudent
	})).Return(true, nil)
	f.repo.On("GetByID", mock.Anything, doc.ID).Return(&submitted, nil)
	f.notifier.On("DocumentPending", mock.Anything, mentor.ID, mock.Anything).Return()

	got, err := f.service.Submit(context.Background(), owner, doc.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, workflow.PendingStatus(workflow.RoleMentor), got.Status)
	f.repo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestSubmitByNonOwnerIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	other := student("ECE")
	doc := draftOwnedBy(owner)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	_, err := f.service.Submit(context.Background(), other, doc.ID, nil)

	assert.Equal(t, workflow.KindUnauthorized, workflow.KindOf(err))
	f.repo.AssertNotCalled(t, "Transition")
}

func TestSubmitWithNoMentorAvailable(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	doc := draftOwnedBy(owner)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.dir.On("ResolveApprover", mock.Anything, mock.Anything).
		Return(nil, workflow.Errf(workflow.KindNoEligibleApprover, "no eligible MENTOR approver"))

	_, err := f.service.Submit(context.Background(), owner, doc.ID, nil)

	assert.Equal(t, workflow.KindNoEligibleApprover, workflow.KindOf(err))
	f.repo.AssertNotCalled(t, "Transition")
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	mentor := staff(workflow.RoleMentor, "CSE")
	doc := pendingWith(owner, mentor, workflow.RoleMentor)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	_, err := f.service.Reject(context.Background(), mentor, workflow.RoleMentor, doc.ID, "   ")

	assert.Equal(t, workflow.KindValidation, workflow.KindOf(err))
	f.repo.AssertNotCalled(t, "Transition")
}

func TestApproveByWrongAssigneeIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	assigned := staff(workflow.RoleMentor, "CSE")
	other := staff(workflow.RoleMentor, "CSE")
	doc := pendingWith(owner, assigned, workflow.RoleMentor)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	_, err := f.service.Approve(context.Background(), other, workflow.RoleMentor, doc.ID)

	assert.Equal(t, workflow.KindUnauthorized, workflow.KindOf(err))
	f.repo.AssertNotCalled(t, "Transition")
}

func TestApproveLostRaceIsConflict(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	registrar := staff(workflow.RoleRegistrar, "")
	doc := pendingWith(owner, registrar, workflow.RoleRegistrar)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.repo.On("Transition", mock.Anything, mock.Anything).Return(false, nil)

	_, err := f.service.Approve(context.Background(), registrar, workflow.RoleRegistrar, doc.ID)

	assert.Equal(t, workflow.KindInvalidTransition, workflow.KindOf(err))
}

func TestApproveProducesApprovalSheet(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	registrar := staff(workflow.RoleRegistrar, "")
	doc := pendingWith(owner, registrar, workflow.RoleRegistrar)
	approved := *doc
	approved.Status = workflow.ApprovedStatus(workflow.RoleRegistrar)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil).Once()
	f.repo.On("Transition", mock.Anything, mock.MatchedBy(func(rec TransitionRecord) bool {
		return rec.To == workflow.ApprovedStatus(workflow.RoleRegistrar)
	})).Return(true, nil)
	f.repo.On("GetByID", mock.Anything, doc.ID).Return(&approved, nil)
	f.dir.On("Get", mock.Anything, owner.ID).Return(owner, nil)
	f.repo.On("History", mock.Anything, doc.ID).Return([]HistoryEntry{}, nil)
	f.store.On("Upload", mock.Anything, "test-bucket",
		mock.MatchedBy(func(key string) bool { return strings.HasSuffix(key, "approval-sheet.pdf") }),
		"application/pdf", mock.Anything).Return(nil)
	f.repo.On("SetApprovalSheet", mock.Anything, doc.ID, mock.Anything).Return(nil)
	f.notifier.On("DocumentDecided", mock.Anything, owner.ID, mock.Anything).Return()

	got, err := f.service.Approve(context.Background(), registrar, workflow.RoleRegistrar, doc.ID)

	require.NoError(t, err)
	assert.True(t, got.Status.Terminal())
	f.store.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestForwardDeanToPeerDeanExcludesOwnDepartment(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	dean := staff(workflow.RoleDean, "CSE")
	peer := staff(workflow.RoleDean, "ECE")
	doc := pendingWith(owner, dean, workflow.RoleDean)
	forwarded := *doc
	forwarded.HolderUserID = &peer.ID

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil).Once()
	f.dir.On("Get", mock.Anything, owner.ID).Return(owner, nil)
	f.dir.On("ResolveApprover", mock.Anything, users.ApproverQuery{
		Role:              workflow.RoleDean,
		ExcludeDepartment: "CSE",
	}).Return(peer, nil)
	f.repo.On("Transition", mock.Anything, mock.MatchedBy(func(rec TransitionRecord) bool {
		return rec.To == workflow.PendingStatus(workflow.RoleDean) &&
			*rec.HolderUserID == peer.ID
	})).Return(true, nil)
	f.repo.On("GetByID", mock.Anything, doc.ID).Return(&forwarded, nil)
	f.notifier.On("DocumentPending", mock.Anything, peer.ID, mock.Anything).Return()

	_, err := f.service.Forward(context.Background(), dean, workflow.RoleDean, doc.ID, workflow.RoleDean, nil)

	require.NoError(t, err)
	f.dir.AssertExpectations(t)
}

func TestForwardOffTheGraphIsConflict(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	mentor := staff(workflow.RoleMentor, "CSE")
	doc := pendingWith(owner, mentor, workflow.RoleMentor)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	_, err := f.service.Forward(context.Background(), mentor, workflow.RoleMentor, doc.ID, workflow.RoleRegistrar, nil)

	assert.Equal(t, workflow.KindInvalidTransition, workflow.KindOf(err))
	f.repo.AssertNotCalled(t, "Transition")
}

func TestDeleteOnlyDrafts(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	mentor := staff(workflow.RoleMentor, "CSE")

	draft := draftOwnedBy(owner)
	f.repo.On("GetByID", mock.Anything, draft.ID).Return(draft, nil)
	f.repo.On("Delete", mock.Anything, draft.ID).Return(nil)
	require.NoError(t, f.service.DeleteDraft(context.Background(), owner, draft.ID))

	submitted := pendingWith(owner, mentor, workflow.RoleMentor)
	f.repo.On("GetByID", mock.Anything, submitted.ID).Return(submitted, nil)
	err := f.service.DeleteDraft(context.Background(), owner, submitted.ID)
	assert.Equal(t, workflow.KindInvalidTransition, workflow.KindOf(err))
}

func TestOpenAllowsPastHolders(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	mentor := staff(workflow.RoleMentor, "CSE")
	hod := staff(workflow.RoleHod, "CSE")
	doc := pendingWith(owner, hod, workflow.RoleHod)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.repo.On("WasHolder", mock.Anything, doc.ID, mentor.ID).Return(true, nil)
	f.store.On("Download", mock.Anything, doc.S3Bucket, doc.S3Key).
		Return(io.NopCloser(bytes.NewReader([]byte("pdf bytes"))), nil)

	got, body, err := f.service.Open(context.Background(), mentor, doc.ID)

	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, doc.ID, got.ID)
	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(content))
}

func TestOpenDeniesStrangers(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	hod := staff(workflow.RoleHod, "CSE")
	stranger := staff(workflow.RoleCoe, "")
	doc := pendingWith(owner, hod, workflow.RoleHod)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.repo.On("WasHolder", mock.Anything, doc.ID, stranger.ID).Return(false, nil)

	_, _, err := f.service.Open(context.Background(), stranger, doc.ID)

	assert.Equal(t, workflow.KindUnauthorized, workflow.KindOf(err))
	f.store.AssertNotCalled(t, "Download")
}

func TestApprovalSheetURLRequiresSheet(t *testing.T) {
	f := newFixture(t)
	owner := student("CSE")
	hod := staff(workflow.RoleHod, "CSE")
	doc := pendingWith(owner, hod, workflow.RoleHod)

	f.repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	_, err := f.service.ApprovalSheetURL(context.Background(), owner, doc.ID)

	assert.Equal(t, workflow.KindNotFound, workflow.KindOf(err))
}

func TestGetMissingDocument(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.repo.On("GetByID", mock.Anything, id).Return(nil, nil)

	_, err := f.service.Get(context.Background(), student("CSE"), id)

	assert.Equal(t, workflow.KindNotFound, workflow.KindOf(err))
}
