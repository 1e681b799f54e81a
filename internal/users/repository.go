package users

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/DevS-25/Paperless/internal/workflow"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	ListByRoles(ctx context.Context, roles []workflow.Role, department string) ([]User, error)
	ListApprovers(ctx context.Context, role workflow.Role, department, excludeDepartment string) ([]User, error)
	CountByRole(ctx context.Context, role workflow.Role) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			id, email, name, roles, department, vtu_number, contact_number,
			year_of_study, tts_id, google_id, profile_picture, signature_key,
			created_at, updated_at
		) VALUES (
			:id, :email, :name, :roles, :department, :vtu_number, :contact_number,
			:year_of_study, :tts_id, :google_id, :profile_picture, :signature_key,
			:created_at, :updated_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, user)
	return err
}

func (r *postgresRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users SET
			name = :name,
			roles = :roles,
			department = :department,
			vtu_number = :vtu_number,
			contact_number = :contact_number,
			year_of_study = :year_of_study,
			tts_id = :tts_id,
			google_id = :google_id,
			profile_picture = :profile_picture,
			signature_key = :signature_key,
			updated_at = :updated_at
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, user)
	return err
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &user, err
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &user, err
}

func (r *postgresRepository) List(ctx context.Context) ([]User, error) {
	var out []User
	err := r.db.SelectContext(ctx, &out, "SELECT * FROM users ORDER BY created_at")
	return out, err
}

func (r *postgresRepository) ListByRoles(ctx context.Context, roles []workflow.Role, department string) ([]User, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	var out []User
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM users
		WHERE roles && $1
		  AND ($2 = '' OR department = $2)
		ORDER BY name`,
		pq.Array(names), department)
	return out, err
}

func (r *postgresRepository) ListApprovers(ctx context.Context, role workflow.Role, department, excludeDepartment string) ([]User, error) {
	var out []User
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM users
		WHERE roles @> $1
		  AND ($2 = '' OR department = $2)
		  AND ($3 = '' OR department <> $3)
		ORDER BY name`,
		pq.Array([]string{string(role)}), department, excludeDepartment)
	return out, err
}

func (r *postgresRepository) CountByRole(ctx context.Context, role workflow.Role) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM users WHERE roles @> $1",
		pq.Array([]string{string(role)}))
	return n, err
}

func (r *postgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users")
	return n, err
}
