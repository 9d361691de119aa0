package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/permission"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) List(ctx context.Context, filter permission.ListFilter) ([]*permission.Permission, error) {
	q := database.GetDB(ctx, r.db).Model(&permission.Permission{})
	if filter.Module != "" {
		q = q.Where("module = ?", filter.Module)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(module) LIKE ? OR LOWER(action) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern, pattern)
	}

	var perms []*permission.Permission
	err := q.Order("module ASC, action ASC").Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) GetByID(ctx context.Context, id string) (*permission.Permission, error) {
	var p permission.Permission
	err := database.GetDB(ctx, r.db).Where("id = ?", id).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) GetByKey(ctx context.Context, module, action string) (*permission.Permission, error) {
	var p permission.Permission
	err := database.GetDB(ctx, r.db).Where("module = ? AND action = ?", module, action).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) FindByIDs(ctx context.Context, ids []string) ([]*permission.Permission, error) {
	var perms []*permission.Permission
	err := database.GetDB(ctx, r.db).Where("id IN ?", ids).Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) FindByKeys(ctx context.Context, keys []permission.Key) ([]*permission.Permission, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	pairs := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, []interface{}{k.Module, k.Action})
	}
	var perms []*permission.Permission
	err := database.GetDB(ctx, r.db).Where("(module, action) IN ?", pairs).Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) Create(ctx context.Context, p *permission.Permission) error {
	return database.GetDB(ctx, r.db).Create(p).Error
}

func (r *PermissionRepository) CreateMany(ctx context.Context, ps []*permission.Permission) (int64, error) {
	if len(ps) == 0 {
		return 0, nil
	}
	res := database.GetDB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "module"}, {Name: "action"}},
			DoNothing: true,
		}).
		Create(&ps)
	return res.RowsAffected, res.Error
}

func (r *PermissionRepository) Update(ctx context.Context, p *permission.Permission) error {
	return database.GetDB(ctx, r.db).Save(p).Error
}

func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	return database.GetDB(ctx, r.db).Where("id = ?", id).Delete(&permission.Permission{}).Error
}

func (r *PermissionRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	res := database.GetDB(ctx, r.db).Where("id IN ?", ids).Delete(&permission.Permission{})
	return res.RowsAffected, res.Error
}

// UsageCounts returns group and user link counts per permission id. IDs with
// no links are present in the map with zero counts.
func (r *PermissionRepository) UsageCounts(ctx context.Context, ids []string) (map[string]permission.Usage, error) {
	counts := make(map[string]permission.Usage, len(ids))
	for _, id := range ids {
		counts[id] = permission.Usage{}
	}

	db := database.GetDB(ctx, r.db)

	type row struct {
		PermissionID string
		Count        int64
	}

	var groupRows []row
	err := db.Table("group_permissions").
		Select("permission_id, COUNT(*) AS count").
		Where("permission_id IN ?", ids).
		Group("permission_id").
		Scan(&groupRows).Error
	if err != nil {
		return nil, err
	}
	for _, gr := range groupRows {
		u := counts[gr.PermissionID]
		u.GroupCount = gr.Count
		counts[gr.PermissionID] = u
	}

	var userRows []row
	err = db.Table("user_permissions").
		Select("permission_id, COUNT(*) AS count").
		Where("permission_id IN ?", ids).
		Group("permission_id").
		Scan(&userRows).Error
	if err != nil {
		return nil, err
	}
	for _, ur := range userRows {
		u := counts[ur.PermissionID]
		u.UserCount = ur.Count
		counts[ur.PermissionID] = u
	}

	return counts, nil
}
