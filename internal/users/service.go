package users

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DevS-25/Paperless/internal/workflow"
)

// DefaultStudentEmailPattern matches institutional student addresses,
// which carry a five-digit enrollment suffix before the domain.
const DefaultStudentEmailPattern = `\d{5}@veltech\.edu\.in$`

type Service struct {
	repo         Repository
	studentEmail *regexp.Regexp
	logger       *zap.Logger
}

func NewService(repo Repository, studentEmailPattern string, logger *zap.Logger) (*Service, error) {
	if studentEmailPattern == "" {
		studentEmailPattern = DefaultStudentEmailPattern
	}
	re, err := regexp.Compile(studentEmailPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid student email pattern: %w", err)
	}
	return &Service{repo: repo, studentEmail: re, logger: logger}, nil
}

// EnsureUser upserts the account asserted by the identity provider and
// returns it. First-time logins get a role inferred from the email:
// student addresses become STUDENT, everything else FACULTY until an
// admin assigns a stage role.
func (s *Service) EnsureUser(ctx context.Context, email, name, googleID, profilePicture string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, workflow.Errf(workflow.KindValidation, "email is required")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		existing.Name = name
		existing.GoogleID = googleID
		existing.ProfilePicture = profilePicture
		existing.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return existing, nil
	}

	role := workflow.RoleFaculty
	if s.studentEmail.MatchString(email) {
		role = workflow.RoleStudent
	}
	user := &User{
		ID:             uuid.New(),
		Email:          email,
		Name:           name,
		Roles:          []string{string(role)},
		GoogleID:       googleID,
		ProfilePicture: profilePicture,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("registered user",
		zap.String("email", email),
		zap.String("role", string(role)))
	return user, nil
}

// EnsureAdmin upserts the configured admin account under a fixed ID so
// admin actions carry a real actor in history and tokens.
func (s *Service) EnsureAdmin(ctx context.Context, id uuid.UUID, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	admin := &User{
		ID:        id,
		Email:     email,
		Name:      "Administrator",
		Roles:     []string{string(workflow.RoleAdmin)},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, workflow.Errf(workflow.KindNotFound, "user %s not found", id)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req to the user.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		user.Name = *req.Name
	}
	if req.VtuNumber != nil {
		user.VtuNumber = *req.VtuNumber
	}
	if req.ContactNumber != nil {
		user.ContactNumber = *req.ContactNumber
	}
	if req.YearOfStudy != nil {
		user.YearOfStudy = *req.YearOfStudy
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.TtsID != nil {
		user.TtsID = *req.TtsID
	}
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// AssignRole grants a role to the user with the given email. The user must
// have logged in at least once.
func (s *Service) AssignRole(ctx context.Context, email string, role workflow.Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, workflow.Errf(workflow.KindNotFound, "no account for %s; the user must log in once before a role can be assigned", email)
	}
	if !user.HasRole(role) {
		user.Roles = append(user.Roles, string(role))
		user.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("assign role: %w", err)
		}
		s.logger.Info("assigned role",
			zap.String("email", email),
			zap.String("role", string(role)))
	}
	return user, nil
}

// SetSignature records the blob key of the user's signature image.
func (s *Service) SetSignature(ctx context.Context, id uuid.UUID, key string) (*User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.SignatureKey = &key
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("set signature: %w", err)
	}
	return user, nil
}

// Mentors lists users a student may submit to, optionally filtered by
// department. HODs and plain faculty also mentor.
func (s *Service) Mentors(ctx context.Context, department string) ([]User, error) {
	return s.repo.ListByRoles(ctx,
		[]workflow.Role{workflow.RoleMentor, workflow.RoleFaculty, workflow.RoleHod},
		department)
}

// ApproverQuery describes a routing target to resolve.
type ApproverQuery struct {
	Role workflow.Role
	// Department constrains candidates for department-scoped roles.
	Department string
	// ExcludeDepartment rules a department out (dean-to-peer-dean routing).
	ExcludeDepartment string
	// ExplicitID selects one candidate when several are eligible.
	ExplicitID *uuid.UUID
}

// ResolveApprover resolves exactly one eligible user for a forward target.
// Zero candidates fail with NoEligibleApprover; several candidates without
// an explicit selection fail with AmbiguousApprover.
func (s *Service) ResolveApprover(ctx context.Context, q ApproverQuery) (*User, error) {
	candidates, err := s.repo.ListApprovers(ctx, q.Role, q.Department, q.ExcludeDepartment)
	if err != nil {
		return nil, fmt.Errorf("list approvers: %w", err)
	}
	if len(candidates) == 0 {
		return nil, workflow.Errf(workflow.KindNoEligibleApprover,
			"no eligible %s approver%s", q.Role, departmentSuffix(q.Department))
	}
	if q.ExplicitID != nil {
		for i := range candidates {
			if candidates[i].ID == *q.ExplicitID {
				return &candidates[i], nil
			}
		}
		return nil, workflow.Errf(workflow.KindNoEligibleApprover,
			"user %s is not an eligible %s approver%s", *q.ExplicitID, q.Role, departmentSuffix(q.Department))
	}
	if len(candidates) > 1 {
		return nil, workflow.Errf(workflow.KindAmbiguousApprover,
			"%d eligible %s approvers, a target user must be selected", len(candidates), q.Role)
	}
	return &candidates[0], nil
}

func departmentSuffix(department string) string {
	if department == "" {
		return ""
	}
	return " in department " + department
}
