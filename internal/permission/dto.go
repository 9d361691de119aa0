package permission

import (
	"time"

	errors "github.com/msallam/hotel-management/internal"
)

// CreatePermissionDTO is the request payload for creating a permission.
type CreatePermissionDTO struct {
	Module      string  `json:"module"`
	Action      string  `json:"action"`
	Description *string `json:"description,omitempty"`
}

func (dto CreatePermissionDTO) Validate() error {
	if err := ValidateIdentifier("module", dto.Module); err != nil {
		return err
	}
	if err := ValidateIdentifier("action", dto.Action); err != nil {
		return err
	}
	return nil
}

// UpdatePermissionDTO carries the mutable fields of a permission. Nil fields
// are left unchanged.
type UpdatePermissionDTO struct {
	Module      *string `json:"module,omitempty"`
	Action      *string `json:"action,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (dto UpdatePermissionDTO) Validate() error {
	if dto.Module != nil {
		if err := ValidateIdentifier("module", *dto.Module); err != nil {
			return err
		}
	}
	if dto.Action != nil {
		if err := ValidateIdentifier("action", *dto.Action); err != nil {
			return err
		}
	}
	return nil
}

// BulkCreateDTO creates several permissions in one call.
type BulkCreateDTO struct {
	Permissions []CreatePermissionDTO `json:"permissions"`
}

func (dto BulkCreateDTO) Validate() error {
	if len(dto.Permissions) == 0 {
		return errors.NewValidationError("at least one permission is required", errors.ErrCodeValidationFailed)
	}
	for _, p := range dto.Permissions {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BulkDeleteDTO deletes several permissions in one guarded call.
type BulkDeleteDTO struct {
	PermissionIDs []string `json:"permissionIds"`
}

func (dto BulkDeleteDTO) Validate() error {
	if len(dto.PermissionIDs) == 0 {
		return errors.NewValidationError("at least one permission id is required", errors.ErrCodeValidationFailed)
	}
	return nil
}

// ImportOptions selects the duplicate policy of an import. All three flags
// are tri-state on the wire; an unset flag is false. When duplicates exist
// and neither SkipDuplicates nor UpdateExisting is set the import fails with
// Conflict so the caller has to choose a policy explicitly.
type ImportOptions struct {
	SkipDuplicates bool `json:"skipDuplicates"`
	UpdateExisting bool `json:"updateExisting"`
	ValidateOnly   bool `json:"validateOnly"`
}

// ImportPermissionsDTO is the payload of a permissions import.
type ImportPermissionsDTO struct {
	Permissions []CreatePermissionDTO `json:"permissions"`
	Options     ImportOptions         `json:"options"`
}

func (dto ImportPermissionsDTO) Validate() error {
	if len(dto.Permissions) == 0 {
		return errors.NewValidationError("at least one permission is required", errors.ErrCodeValidationFailed)
	}
	for _, p := range dto.Permissions {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ImportValidation is the preview returned for validate-only imports.
type ImportValidation struct {
	Total      int  `json:"total"`
	New        int  `json:"new"`
	Duplicates int  `json:"duplicates"`
	Valid      bool `json:"valid"`
}

// ImportSummary reports the outcome of an applied import. Per-item failures
// are collected into Errors instead of aborting the batch.
type ImportSummary struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportResult is either a validation preview or an applied summary.
type ImportResult struct {
	Validation *ImportValidation     `json:"validation,omitempty"`
	Preview    []CreatePermissionDTO `json:"preview,omitempty"`
	Summary    *ImportSummary        `json:"summary,omitempty"`
}

// ExportOptions controls the export payload.
type ExportOptions struct {
	Module       string
	IncludeUsage bool
}

// ExportedPermission is one row of an export.
type ExportedPermission struct {
	ID          string  `json:"id"`
	Module      string  `json:"module"`
	Action      string  `json:"action"`
	Description *string `json:"description,omitempty"`
	GroupCount  *int64  `json:"group_count,omitempty"`
	UserCount   *int64  `json:"user_count,omitempty"`
}

// ExportResult is the full export payload.
type ExportResult struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Total       int                  `json:"total"`
	Permissions []ExportedPermission `json:"permissions"`
}

// ListFilter narrows a permission listing.
type ListFilter struct {
	Module string
	Action string
	Search string
}
