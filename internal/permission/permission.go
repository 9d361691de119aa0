package permission

import (
	"regexp"
	"time"

	errors "github.com/msallam/hotel-management/internal"
)

// Permission is a grantable capability identified by a (module, action) pair.
type Permission struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Module      string    `json:"module" gorm:"uniqueIndex:idx_permissions_module_action;not null"`
	Action      string    `json:"action" gorm:"uniqueIndex:idx_permissions_module_action;not null"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Permission) TableName() string {
	return "permissions"
}

func (p *Permission) Key() Key {
	return Key{Module: p.Module, Action: p.Action}
}

// Key addresses a permission by its (module, action) pair. The string form
// is "module:action".
type Key struct {
	Module string `json:"module"`
	Action string `json:"action"`
}

func (k Key) String() string {
	return k.Module + ":" + k.Action
}

// ParseKey splits a "module:action" string into a Key.
func ParseKey(s string) (Key, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			k := Key{Module: s[:i], Action: s[i+1:]}
			if err := ValidateIdentifier("module", k.Module); err != nil {
				return Key{}, err
			}
			if err := ValidateIdentifier("action", k.Action); err != nil {
				return Key{}, err
			}
			return k, nil
		}
	}
	return Key{}, errors.NewValidationError("permission key must be of the form module:action", errors.ErrCodeValidationFailed)
}

// Source records which layer an effective permission came from. User-level
// entries always win over group-level ones.
type Source string

const (
	SourceGroup Source = "group"
	SourceUser  Source = "user"
)

// Grant is a permission together with its allow/deny flag, as stored on a
// group or user link row.
type Grant struct {
	Permission Permission `json:"permission"`
	IsAllowed  bool       `json:"is_allowed"`
}

// EffectivePermission is one entry of a user's merged allow/deny table.
type EffectivePermission struct {
	Permission Permission `json:"permission"`
	IsAllowed  bool       `json:"is_allowed"`
	Source     Source     `json:"source"`
}

// LinkMode selects the edit semantics of a bulk link mutation.
type LinkMode string

const (
	LinkAdd     LinkMode = "add"
	LinkRemove  LinkMode = "remove"
	LinkReplace LinkMode = "replace"
)

func (m LinkMode) Valid() bool {
	switch m {
	case LinkAdd, LinkRemove, LinkReplace:
		return true
	}
	return false
}

// Modules of the back office. Kept in sync with the seeded catalog.
const (
	ModuleUsers       = "Users"
	ModuleGroups      = "Groups"
	ModulePermissions = "Permissions"
	ModuleHotels      = "Hotels"
	ModuleRooms       = "Rooms"
	ModuleBookings    = "Bookings"
	ModuleGuests      = "Guests"
	ModulePayments    = "Payments"
	ModuleReports     = "Reports"
)

// Actions within a module.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionManage = "manage"
	ActionExport = "export"
	ActionImport = "import"
	ActionCancel = "cancel"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateIdentifier checks the module/action naming rule: a letter followed
// by letters, digits, or underscores.
func ValidateIdentifier(field, value string) *errors.AppError {
	if value == "" {
		return errors.NewValidationFieldError(field, field+" is required", errors.ErrCodeValidationFailed)
	}
	if !identifierPattern.MatchString(value) {
		code := errors.ErrCodeInvalidModule
		if field == "action" {
			code = errors.ErrCodeInvalidAction
		}
		return errors.NewValidationFieldError(field, field+" must start with a letter and contain only letters, digits, and underscores", code)
	}
	return nil
}

// Usage counts the live references to a permission from group and user link
// rows. A permission with Total() > 0 cannot be deleted.
type Usage struct {
	GroupCount int64 `json:"group_count"`
	UserCount  int64 `json:"user_count"`
}

func (u Usage) Total() int64 {
	return u.GroupCount + u.UserCount
}

// BlockedPermission describes a permission that blocked a delete because it
// is still referenced. Returned inside Conflict error details.
type BlockedPermission struct {
	ID         string `json:"id"`
	Module     string `json:"module"`
	Action     string `json:"action"`
	GroupCount int64  `json:"group_count"`
	UserCount  int64  `json:"user_count"`
}
