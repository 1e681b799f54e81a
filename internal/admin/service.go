package admin

import (
	"context"
	"fmt"

	"github.com/DevS-25/Paperless/internal/documents"
	"github.com/DevS-25/Paperless/internal/users"
	"github.com/DevS-25/Paperless/internal/workflow"
)

// Statistics is the admin dashboard snapshot: workload per role and the
// overall shape of the document population.
type Statistics struct {
	TotalUsers     int64                   `json:"total_users"`
	UsersPerRole   map[string]int64        `json:"users_per_role"`
	TotalDocuments int64                   `json:"total_documents"`
	Drafts         int64                   `json:"drafts"`
	InReview       int64                   `json:"in_review"`
	Approved       int64                   `json:"approved"`
	Rejected       int64                   `json:"rejected"`
	PerStatus      []documents.StatusCount `json:"per_status"`
}

type Service struct {
	users users.Repository
	docs  documents.Repository
}

func NewService(userRepo users.Repository, docRepo documents.Repository) *Service {
	return &Service{users: userRepo, docs: docRepo}
}

func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{UsersPerRole: make(map[string]int64)}

	var err error
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	roles := append([]workflow.Role{workflow.RoleStudent, workflow.RoleFaculty}, workflow.StageRoles...)
	for _, role := range roles {
		n, err := s.users.CountByRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("count %s users: %w", role, err)
		}
		stats.UsersPerRole[string(role)] = n
	}

	if stats.TotalDocuments, err = s.docs.Count(ctx); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if stats.Drafts, err = s.docs.CountByStatuses(ctx, []workflow.Status{workflow.StatusDraft}); err != nil {
		return nil, err
	}
	var pending, approved, rejected []workflow.Status
	for _, r := range workflow.StageRoles {
		pending = append(pending, workflow.PendingStatus(r))
		approved = append(approved, workflow.ApprovedStatus(r))
		rejected = append(rejected, workflow.RejectedStatus(r))
	}
	if stats.InReview, err = s.docs.CountByStatuses(ctx, pending); err != nil {
		return nil, err
	}
	if stats.Approved, err = s.docs.CountByStatuses(ctx, approved); err != nil {
		return nil, err
	}
	if stats.Rejected, err = s.docs.CountByStatuses(ctx, rejected); err != nil {
		return nil, err
	}
	if stats.PerStatus, err = s.docs.CountPerStatus(ctx); err != nil {
		return nil, fmt.Errorf("count per status: %w", err)
	}
	return stats, nil
}

func (s *Service) Users(ctx context.Context) ([]users.User, error) {
	return s.users.List(ctx)
}
