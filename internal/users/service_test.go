package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DevS-25/Paperless/internal/workflow"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, user *User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockRepository) Update(ctx context.Context, user *User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) List(ctx context.Context) ([]User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]User), args.Error(1)
}

func (m *mockRepository) ListByRoles(ctx context.Context, roles []workflow.Role, department string) ([]User, error) {
	args := m.Called(ctx, roles, department)
	return args.Get(0).([]User), args.Error(1)
}

func (m *mockRepository) ListApprovers(ctx context.Context, role workflow.Role, department, excludeDepartment string) ([]User, error) {
	args := m.Called(ctx, role, department, excludeDepartment)
	return args.Get(0).([]User), args.Error(1)
}

func (m *mockRepository) CountByRole(ctx context.Context, role workflow.Role) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	svc, err := NewService(repo, "", zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestEnsureUserInfersStudentRole(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)

	repo.On("GetByEmail", mock.Anything, "12345@veltech.edu.in").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.HasRole(workflow.RoleStudent) && !u.HasRole(workflow.RoleFaculty)
	})).Return(nil)

	user, err := svc.EnsureUser(context.Background(), "12345@VelTech.edu.in", "A Student", "gid", "")

	require.NoError(t, err)
	assert.Equal(t, "12345@veltech.edu.in", user.Email)
	repo.AssertExpectations(t)
}

func TestEnsureUserInfersFacultyRole(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)

	repo.On("GetByEmail", mock.Anything, "prof@veltech.edu.in").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.HasRole(workflow.RoleFaculty)
	})).Return(nil)

	_, err := svc.EnsureUser(context.Background(), "prof@veltech.edu.in", "A Professor", "gid", "")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEnsureUserRefreshesExistingAccount(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)
	existing := &User{
		ID:    uuid.New(),
		Email: "12345@veltech.edu.in",
		Roles: []string{string(workflow.RoleStudent)},
	}

	repo.On("GetByEmail", mock.Anything, existing.Email).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	user, err := svc.EnsureUser(context.Background(), existing.Email, "New Name", "gid", "pic")

	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "New Name", user.Name)
	repo.AssertNotCalled(t, "Create")
}

func TestAssignRoleRequiresExistingAccount(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)

	repo.On("GetByEmail", mock.Anything, "nobody@veltech.edu.in").Return(nil, nil)

	_, err := svc.AssignRole(context.Background(), "nobody@veltech.edu.in", workflow.RoleMentor)

	assert.Equal(t, workflow.KindNotFound, workflow.KindOf(err))
}

func TestAssignRoleIsIdempotent(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)
	user := &User{
		ID:    uuid.New(),
		Email: "hod@veltech.edu.in",
		Roles: []string{string(workflow.RoleFaculty), string(workflow.RoleHod)},
	}

	repo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	got, err := svc.AssignRole(context.Background(), user.Email, workflow.RoleHod)

	require.NoError(t, err)
	assert.Len(t, got.Roles, 2)
	repo.AssertNotCalled(t, "Update")
}

func TestResolveApproverNoCandidates(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)

	repo.On("ListApprovers", mock.Anything, workflow.RoleMentor, "CSE", "").Return([]User{}, nil)

	_, err := svc.ResolveApprover(context.Background(), ApproverQuery{
		Role:       workflow.RoleMentor,
		Department: "CSE",
	})

	assert.Equal(t, workflow.KindNoEligibleApprover, workflow.KindOf(err))
}

func TestResolveApproverSingleCandidate(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)
	mentor := User{ID: uuid.New(), Roles: []string{string(workflow.RoleMentor)}}

	repo.On("ListApprovers", mock.Anything, workflow.RoleMentor, "CSE", "").Return([]User{mentor}, nil)

	got, err := svc.ResolveApprover(context.Background(), ApproverQuery{
		Role:       workflow.RoleMentor,
		Department: "CSE",
	})

	require.NoError(t, err)
	assert.Equal(t, mentor.ID, got.ID)
}

func TestResolveApproverSeveralWithoutSelection(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)
	a := User{ID: uuid.New()}
	b := User{ID: uuid.New()}

	repo.On("ListApprovers", mock.Anything, workflow.RoleMentor, "CSE", "").Return([]User{a, b}, nil)

	_, err := svc.ResolveApprover(context.Background(), ApproverQuery{
		Role:       workflow.RoleMentor,
		Department: "CSE",
	})

	assert.Equal(t, workflow.KindAmbiguousApprover, workflow.KindOf(err))
}

func TestResolveApproverExplicitSelection(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)
	a := User{ID: uuid.New()}
	b := User{ID: uuid.New()}

	repo.On("ListApprovers", mock.Anything, workflow.RoleMentor, "CSE", "").Return([]User{a, b}, nil)

	got, err := svc.ResolveApprover(context.Background(), ApproverQuery{
		Role:       workflow.RoleMentor,
		Department: "CSE",
		ExplicitID: &b.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestResolveApproverExplicitButIneligible(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(t, repo)
	a := User{ID: uuid.New()}
	outsider := uuid.New()

	repo.On("ListApprovers", mock.Anything, workflow.RoleMentor, "CSE", "").Return([]User{a}, nil)

	_, err := svc.ResolveApprover(context.Background(), ApproverQuery{
		Role:       workflow.RoleMentor,
		Department: "CSE",
		ExplicitID: &outsider,
	})

	assert.Equal(t, workflow.KindNoEligibleApprover, workflow.KindOf(err))
}

func TestProfileCompleteness(t *testing.T) {
	student := &User{
		Name:  "S",
		Roles: []string{string(workflow.RoleStudent)},
	}
	assert.False(t, student.ProfileComplete())

	student.VtuNumber = "VTU1234"
	student.Department = "CSE"
	student.YearOfStudy = "3"
	assert.True(t, student.ProfileComplete())

	hod := &User{Name: "H", Roles: []string{string(workflow.RoleHod)}}
	assert.False(t, hod.ProfileComplete())
	hod.Department = "CSE"
	assert.True(t, hod.ProfileComplete())

	registrar := &User{Name: "R", Roles: []string{string(workflow.RoleRegistrar)}}
	assert.True(t, registrar.ProfileComplete())
}
