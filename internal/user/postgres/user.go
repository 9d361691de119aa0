package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	q := database.GetDB(ctx, r.db).Model(&user.User{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.GroupID != "" {
		q = q.Where("group_id = ?", filter.GroupID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var users []*user.User
	err := q.Order("name ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := database.GetDB(ctx, r.db).Where("email = ?", email).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return database.GetDB(ctx, r.db).Create(u).Error
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return database.GetDB(ctx, r.db).Save(u).Error
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return database.GetDB(ctx, r.db).Where("id = ?", id).Delete(&user.User{}).Error
}

func (r *UserRepository) OwnershipCounts(ctx context.Context, userID string) (user.OwnershipCounts, error) {
	var counts user.OwnershipCounts
	db := database.GetDB(ctx, r.db)

	if err := db.Table("bookings").Where("created_by = ?", userID).Count(&counts.Bookings).Error; err != nil {
		return counts, err
	}
	if err := db.Table("hotels").Where("created_by = ?", userID).Count(&counts.Hotels).Error; err != nil {
		return counts, err
	}
	if err := db.Table("rooms").Where("created_by = ?", userID).Count(&counts.Rooms).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

func (r *UserRepository) FindPermissions(ctx context.Context, userID string) ([]permission.Grant, error) {
	var rows []struct {
		ID          string
		Module      string
		Action      string
		Description *string
		IsAllowed   bool
	}
	err := database.GetDB(ctx, r.db).Table("user_permissions").
		Select("permissions.id, permissions.module, permissions.action, permissions.description, user_permissions.is_allowed").
		Joins("JOIN permissions ON permissions.id = user_permissions.permission_id").
		Where("user_permissions.user_id = ?", userID).
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

func (r *UserRepository) LinkedPermissionIDs(ctx context.Context, userID string, permissionIDs []string) ([]string, error) {
	var ids []string
	err := database.GetDB(ctx, r.db).Model(&user.UserPermission{}).
		Where("user_id = ? AND permission_id IN ?", userID, permissionIDs).
		Pluck("permission_id", &ids).Error
	return ids, err
}

func (r *UserRepository) CreateLinks(ctx context.Context, links []*user.UserPermission) error {
	if len(links) == 0 {
		return nil
	}
	return database.GetDB(ctx, r.db).Create(&links).Error
}

func (r *UserRepository) DeleteLinks(ctx context.Context, userID string, permissionIDs []string) (int64, error) {
	res := database.GetDB(ctx, r.db).
		Where("user_id = ? AND permission_id IN ?", userID, permissionIDs).
		Delete(&user.UserPermission{})
	return res.RowsAffected, res.Error
}

func (r *UserRepository) DeleteAllLinks(ctx context.Context, userID string) error {
	return database.GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Delete(&user.UserPermission{}).Error
}

func (r *UserRepository) CountWithOverrides(ctx context.Context) (int64, error) {
	var count int64
	err := database.GetDB(ctx, r.db).Model(&user.UserPermission{}).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
