package postgres

import (
	"context"

	"gorm.io/gorm"

	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/permission"
)

// ResolverStore reads the grant rows the permission resolver merges. It joins
// the link tables directly instead of going through the group and user
// repositories so a resolution stays two queries plus the group lookup.
type ResolverStore struct {
	db *gorm.DB
}

func NewResolverStore(db *gorm.DB) *ResolverStore {
	return &ResolverStore{db: db}
}

func (s *ResolverStore) GetUserGroup(ctx context.Context, userID string) (*permission.GroupRef, error) {
	var row struct {
		GroupID       *string
		GroupIsActive *bool
	}
	err := database.GetDB(ctx, s.db).Table("users").
		Select("users.group_id AS group_id, user_groups.is_active AS group_is_active").
		Joins("LEFT JOIN user_groups ON user_groups.id = users.group_id").
		Where("users.id = ?", userID).
		Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("user not found", errors.ErrCodeUserNotFound)
		}
		return nil, err
	}
	if row.GroupID == nil {
		return nil, nil
	}
	ref := &permission.GroupRef{ID: *row.GroupID}
	if row.GroupIsActive != nil {
		ref.IsActive = *row.GroupIsActive
	}
	return ref, nil
}

func (s *ResolverStore) FindGroupPermissions(ctx context.Context, groupID string) ([]permission.Grant, error) {
	return s.findGrants(ctx, "group_permissions", "group_id", groupID)
}

func (s *ResolverStore) FindUserPermissions(ctx context.Context, userID string) ([]permission.Grant, error) {
	return s.findGrants(ctx, "user_permissions", "user_id", userID)
}

func (s *ResolverStore) findGrants(ctx context.Context, table, ownerColumn, ownerID string) ([]permission.Grant, error) {
	var rows []struct {
		ID          string
		Module      string
		Action      string
		Description *string
		IsAllowed   bool
	}
	err := database.GetDB(ctx, s.db).Table(table).
		Select("permissions.id, permissions.module, permissions.action, permissions.description, "+table+".is_allowed").
		Joins("JOIN permissions ON permissions.id = "+table+".permission_id").
		Where(table+"."+ownerColumn+" = ?", ownerID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grants := make([]permission.Grant, 0, len(rows))
	for _, r := range rows {
		grants = append(grants, permission.Grant{
			Permission: permission.Permission{
				ID:          r.ID,
				Module:      r.Module,
				Action:      r.Action,
				Description: r.Description,
			},
			IsAllowed: r.IsAllowed,
		})
	}
	return grants, nil
}
