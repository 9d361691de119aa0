package group

import (
	"strings"
	"time"

	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/permission"
)

const maxNameLength = 100

func validateName(name string) *errors.AppError {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewValidationFieldError("name", "name is required", errors.ErrCodeInvalidName)
	}
	if len(name) > maxNameLength {
		return errors.NewValidationFieldError("name", "name must be at most 100 characters", errors.ErrCodeInvalidName)
	}
	return nil
}

type CreateGroupDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (d CreateGroupDTO) Validate() error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	return nil
}

// UpdateGroupDTO carries partial updates. Nil fields are left unchanged.
type UpdateGroupDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (d UpdateGroupDTO) Validate() error {
	if d.Name != nil {
		if err := validateName(*d.Name); err != nil {
			return err
		}
	}
	return nil
}

// GrantInput is one entry of a bulk link payload. IsAllowed defaults to true
// when omitted.
type GrantInput struct {
	PermissionID string `json:"permission_id"`
	IsAllowed    *bool  `json:"is_allowed,omitempty"`
}

func (g GrantInput) Allowed() bool {
	return g.IsAllowed == nil || *g.IsAllowed
}

// LinkPermissionsDTO mutates a group's permission links in one of three
// modes: add keeps existing links and skips duplicates, remove drops the named
// links, replace swaps the whole set atomically.
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

// ImportGroupEntry is one group of an import payload. Permissions are
// referenced by "module:action" key so exports from another environment can
// be replayed without sharing ids.
type ImportGroupEntry struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
	Permissions []string `json:"permissions"`
}

type ImportOptions struct {
	SkipDuplicates           bool `json:"skip_duplicates"`
	UpdateExisting           bool `json:"update_existing"`
	CreateMissingPermissions bool `json:"create_missing_permissions"`
	ValidateOnly             bool `json:"validate_only"`
}

type ImportGroupsDTO struct {
	Groups  []ImportGroupEntry `json:"groups"`
	Options ImportOptions      `json:"options"`
}

func (d ImportGroupsDTO) Validate() error {
	if len(d.Groups) == 0 {
		return errors.NewValidationFieldError("groups", "groups must not be empty", errors.ErrCodeValidationFailed)
	}
	seen := make(map[string]bool, len(d.Groups))
	for _, g := range d.Groups {
		if err := validateName(g.Name); err != nil {
			return err
		}
		if seen[g.Name] {
			return errors.NewValidationError("import payload contains duplicate group names", errors.ErrCodeDuplicatesInPayload)
		}
		seen[g.Name] = true
		for _, key := range g.Permissions {
			if _, err := permission.ParseKey(key); err != nil {
				return errors.NewValidationFieldError("permissions",
					"invalid permission key "+key, errors.ErrCodeValidationFailed)
			}
		}
	}
	return nil
}

type ImportValidation struct {
	Total      int  `json:"total"`
	New        int  `json:"new"`
	Duplicates int  `json:"duplicates"`
	Valid      bool `json:"valid"`
}

type ImportSummary struct {
	Total              int      `json:"total"`
	Created            int      `json:"created"`
	Updated            int      `json:"updated"`
	Skipped            int      `json:"skipped"`
	PermissionsCreated int      `json:"permissions_created"`
	Errors             []string `json:"errors,omitempty"`
}

type ImportResult struct {
	Validation *ImportValidation `json:"validation,omitempty"`
	Summary    *ImportSummary    `json:"summary,omitempty"`
}

type ExportOptions struct {
	IncludeInactive bool
}

// ExportedGroup flattens a group and its permission keys for export.
type ExportedGroup struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions"`
	UserCount   int64    `json:"user_count"`
}

type ExportResult struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Total       int             `json:"total"`
	Groups      []ExportedGroup `json:"groups"`
}

type ListFilter struct {
	Search     string
	ActiveOnly bool
}
