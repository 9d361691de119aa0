package user

import (
	"net/mail"
	"strings"
	"time"

	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/permission"
)

const minPasswordLength = 8

func validateEmail(email string) *errors.AppError {
	if strings.TrimSpace(email) == "" {
		return errors.NewValidationFieldError("email", "email is required", errors.ErrCodeInvalidEmail)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.NewValidationFieldError("email", "email is not valid", errors.ErrCodeInvalidEmail)
	}
	return nil
}

type CreateUserDTO struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Password string  `json:"password"`
	GroupID  *string `json:"group_id,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (d CreateUserDTO) Validate() error {
	if err := validateEmail(d.Email); err != nil {
		return err
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.NewValidationFieldError("name", "name is required", errors.ErrCodeInvalidName)
	}
	if len(d.Password) < minPasswordLength {
		return errors.NewValidationFieldError("password", "password must be at least 8 characters", errors.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateUserDTO carries partial updates. Nil fields are left unchanged. A
// non-nil empty GroupID clears the group assignment.
type UpdateUserDTO struct {
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
	GroupID  *string `json:"group_id,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (d UpdateUserDTO) Validate() error {
	if d.Email != nil {
		if err := validateEmail(*d.Email); err != nil {
			return err
		}
	}
	if d.Name != nil && strings.TrimSpace(*d.Name) == "" {
		return errors.NewValidationFieldError("name", "name must not be empty", errors.ErrCodeInvalidName)
	}
	if d.Password != nil && len(*d.Password) < minPasswordLength {
		return errors.NewValidationFieldError("password", "password must be at least 8 characters", errors.ErrCodeValidationFailed)
	}
	return nil
}

// GrantInput is one entry of a bulk override payload. IsAllowed defaults to
// true; an explicit false records a deny that shadows the group grant.
type GrantInput struct {
	PermissionID string `json:"permission_id"`
	IsAllowed    *bool  `json:"is_allowed,omitempty"`
}

func (g GrantInput) Allowed() bool {
	return g.IsAllowed == nil || *g.IsAllowed
}

type LinkPermissionsDTO struct {
	Mode   permission.LinkMode `json:"mode"`
	Grants []GrantInput        `json:"permissions"`
}

func (d LinkPermissionsDTO) Validate() error {
	if !d.Mode.Valid() {
		return errors.NewValidationFieldError("mode", "mode must be add, remove or replace", errors.ErrCodeValidationFailed)
	}
	if d.Mode != permission.LinkReplace && len(d.Grants) == 0 {
		return errors.NewValidationFieldError("permissions", "permissions must not be empty", errors.ErrCodeValidationFailed)
	}
	seen := make(map[string]bool, len(d.Grants))
	for _, g := range d.Grants {
		if g.PermissionID == "" {
			return errors.NewValidationFieldError("permissions", "permission_id is required", errors.ErrCodeValidationFailed)
		}
		if seen[g.PermissionID] {
			return errors.NewValidationError("payload references the same permission twice", errors.ErrCodeDuplicatesInPayload)
		}
		seen[g.PermissionID] = true
	}
	return nil
}

func (d LinkPermissionsDTO) PermissionIDs() []string {
	ids := make([]string, 0, len(d.Grants))
	for _, g := range d.Grants {
		ids = append(ids, g.PermissionID)
	}
	return ids
}

type ListFilter struct {
	Search     string
	GroupID    string
	ActiveOnly bool
}

type ExportOptions struct {
	IncludeInactive bool
}

// ExportedUser flattens an account for export. Password hashes never leave
// the store.
type ExportedUser struct {
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	GroupName *string  `json:"group_name,omitempty"`
	IsActive  bool     `json:"is_active"`
	Overrides []string `json:"overrides"`
}

type ExportResult struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Total       int            `json:"total"`
	Users       []ExportedUser `json:"users"`
}
