package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/DevS-25/Paperless/internal/workflow"
)

// User is an account in the approval system. A user may hold several roles
// at once (a HOD who also mentors); the active-role selector is a UI
// concern, the server always authorizes against the full set.
type User struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Email          string         `json:"email" db:"email"`
	Name           string         `json:"name" db:"name"`
	Roles          pq.StringArray `json:"roles" db:"roles"`
	Department     string         `json:"department" db:"department"`
	VtuNumber      string         `json:"vtu_number" db:"vtu_number"`
	ContactNumber  string         `json:"contact_number" db:"contact_number"`
	YearOfStudy    string         `json:"year_of_study" db:"year_of_study"`
	TtsID          string         `json:"tts_id" db:"tts_id"`
	GoogleID       string         `json:"-" db:"google_id"`
	ProfilePicture string         `json:"profile_picture" db:"profile_picture"`
	SignatureKey   *string        `json:"-" db:"signature_key"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(r workflow.Role) bool {
	for _, s := range u.Roles {
		if workflow.Role(s) == r {
			return true
		}
	}
	return false
}

// RoleSet returns the user's roles as workflow roles.
func (u *User) RoleSet() []workflow.Role {
	out := make([]workflow.Role, 0, len(u.Roles))
	for _, s := range u.Roles {
		out = append(out, workflow.Role(s))
	}
	return out
}

// ProfileComplete reports whether the role-specific required fields are
// present. Incomplete profiles cannot act on documents; the gate lives at
// the auth boundary, not in the workflow engine.
func (u *User) ProfileComplete() bool {
	if u.Name == "" {
		return false
	}
	if u.HasRole(workflow.RoleStudent) {
		return u.VtuNumber != "" && u.Department != "" && u.YearOfStudy != ""
	}
	for _, r := range u.RoleSet() {
		if r.DepartmentScoped() && u.Department == "" {
			return false
		}
	}
	return true
}

// UpdateProfileRequest carries the mutable profile fields. Nil means
// leave unchanged.
type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	VtuNumber     *string `json:"vtu_number"`
	ContactNumber *string `json:"contact_number"`
	YearOfStudy   *string `json:"year_of_study"`
	Department    *string `json:"department"`
	TtsID         *string `json:"tts_id"`
}
