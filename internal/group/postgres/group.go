package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/group"
	"github.com/msallam/hotel-management/internal/permission"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) List(ctx context.Context, filter group.ListFilter) ([]*group.Group, error) {
	q := database.GetDB(ctx, r.db).Model(&group.Group{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var groups []*group.Group
	err := q.Order("name ASC").Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*group.Group, error) {
	var g group.Group
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&g).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) GetByName(ctx context.Context, name string) (*group.Group, error) {
	var g group.Group
	err := database.GetDB(ctx, r.db).Where("name = ?", name).First(&g).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	return database.GetDB(ctx, r.db).Create(g).Error
}

func (r *GroupRepository) Update(ctx context.Context, g *group.Group) error {
	return database.GetDB(ctx, r.db).Save(g).Error
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	return database.GetDB(ctx, r.db).Where("id = ?", id).Delete(&group.Group{}).Error
}

func (r *GroupRepository) UserCount(ctx context.Context, groupID string) (int64, error) {
	var count int64
	err := database.GetDB(ctx, r.db).Table("users").
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *GroupRepository) UserCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		GroupID string
		Count   int64
	}
	err := database.GetDB(ctx, r.db).Table("users").
		Select("group_id, COUNT(*) AS count").
		Where("group_id IS NOT NULL").
		Group("group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.GroupID] = row.Count
	}
	return counts, nil
}

func (r *GroupRepository) FindPermissions(ctx context.Context, groupID string) ([]permission.Grant, error) {
	var rows []struct {
		ID          string
		Module      string
		Action      string
		Description *string
		IsAllowed   bool
	}
	err := database.GetDB(ctx, r.db).Table("group_permissions").
		Select("permissions.id, permissions.module, permissions.action, permissions.description, group_permissions.is_allowed").
		Joins("JOIN permissions ON permissions.id = group_permissions.permission_id").
		Where("group_permissions.group_id = ?", groupID).
		Order("permissions.module ASC, permissions.action ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grants := make([]permission.Grant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, permission.Grant{
			Permission: permission.Permission{
				ID:          row.ID,
				Module:      row.Module,
				Action:      row.Action,
				Description: row.Description,
			},
			IsAllowed: row.IsAllowed,
		})
	}
	return grants, nil
}

func (r *GroupRepository) LinkedPermissionIDs(ctx context.Context, groupID string, permissionIDs []string) ([]string, error) {
	var ids []string
	err := database.GetDB(ctx, r.db).Model(&group.GroupPermission{}).
		Where("group_id = ? AND permission_id IN ?", groupID, permissionIDs).
		Pluck("permission_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) CreateLinks(ctx context.Context, links []*group.GroupPermission) error {
	if len(links) == 0 {
		return nil
	}
	return database.GetDB(ctx, r.db).Create(&links).Error
}

func (r *GroupRepository) DeleteLinks(ctx context.Context, groupID string, permissionIDs []string) (int64, error) {
	res := database.GetDB(ctx, r.db).
		Where("group_id = ? AND permission_id IN ?", groupID, permissionIDs).
		Delete(&group.GroupPermission{})
	return res.RowsAffected, res.Error
}

func (r *GroupRepository) DeleteAllLinks(ctx context.Context, groupID string) error {
	return database.GetDB(ctx, r.db).
		Where("group_id = ?", groupID).
		Delete(&group.GroupPermission{}).Error
}

func (r *GroupRepository) PermissionCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		GroupID string
		Count   int64
	}
	err := database.GetDB(ctx, r.db).Model(&group.GroupPermission{}).
		Select("group_id, COUNT(*) AS count").
		Group("group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.GroupID] = row.Count
	}
	return counts, nil
}

func (r *GroupRepository) TopPermissions(ctx context.Context, limit int) ([]group.PermissionUsage, error) {
	var rows []struct {
		Module string
		Action string
		Count  int64
	}
	err := database.GetDB(ctx, r.db).Model(&group.GroupPermission{}).
		Select("permissions.module, permissions.action, COUNT(*) AS count").
		Joins("JOIN permissions ON permissions.id = group_permissions.permission_id").
		Group("permissions.module, permissions.action").
		Order("count DESC, permissions.module, permissions.action").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	usage := make([]group.PermissionUsage, 0, len(rows))
	for _, row := range rows {
		usage = append(usage, group.PermissionUsage{
			Key:        permission.Key{Module: row.Module, Action: row.Action}.String(),
			GroupCount: row.Count,
		})
	}
	return usage, nil
}
