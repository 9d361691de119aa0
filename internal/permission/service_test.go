package permission_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/pkg/logger"
)

// Mock repository for testing
type mockPermissionRepository struct {
	permissions map[string]*permission.Permission
	usage       map[string]permission.Usage

	listError   error
	createError error
	updateError error
	deleteError error
}

func newMockPermissionRepository() *mockPermissionRepository {
	return &mockPermissionRepository{
		permissions: make(map[string]*permission.Permission),
		usage:       make(map[string]permission.Usage),
	}
}

func (m *mockPermissionRepository) add(module, action string) *permission.Permission {
	p := &permission.Permission{
		ID:     module + "-" + action,
		Module: module,
		Action: action,
	}
	m.permissions[p.ID] = p
	return p
}

func (m *mockPermissionRepository) List(ctx context.Context, filter permission.ListFilter) ([]*permission.Permission, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]*permission.Permission, 0, len(m.permissions))
	for _, p := range m.permissions {
		if filter.Module != "" && p.Module != filter.Module {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPermissionRepository) GetByID(ctx context.Context, id string) (*permission.Permission, error) {
	return m.permissions[id], nil
}

func (m *mockPermissionRepository) GetByKey(ctx context.Context, module, action string) (*permission.Permission, error) {
	for _, p := range m.permissions {
		if p.Module == module && p.Action == action {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPermissionRepository) FindByIDs(ctx context.Context, ids []string) ([]*permission.Permission, error) {
	var out []*permission.Permission
	for _, id := range ids {
		if p, ok := m.permissions[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPermissionRepository) FindByKeys(ctx context.Context, keys []permission.Key) ([]*permission.Permission, error) {
	var out []*permission.Permission
	for _, k := range keys {
		for _, p := range m.permissions {
			if p.Key() == k {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *mockPermissionRepository) Create(ctx context.Context, p *permission.Permission) error {
	if m.createError != nil {
		return m.createError
	}
	m.permissions[p.ID] = p
	return nil
}

func (m *mockPermissionRepository) CreateMany(ctx context.Context, ps []*permission.Permission) (int64, error) {
	if m.createError != nil {
		return 0, m.createError
	}
	var created int64
	for _, p := range ps {
		if existing, _ := m.GetByKey(ctx, p.Module, p.Action); existing != nil {
			continue
		}
		m.permissions[p.ID] = p
		created++
	}
	return created, nil
}

func (m *mockPermissionRepository) Update(ctx context.Context, p *permission.Permission) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.permissions[p.ID] = p
	return nil
}

func (m *mockPermissionRepository) Delete(ctx context.Context, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	delete(m.permissions, id)
	return nil
}

func (m *mockPermissionRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if m.deleteError != nil {
		return 0, m.deleteError
	}
	var deleted int64
	for _, id := range ids {
		if _, ok := m.permissions[id]; ok {
			delete(m.permissions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockPermissionRepository) UsageCounts(ctx context.Context, ids []string) (map[string]permission.Usage, error) {
	out := make(map[string]permission.Usage, len(ids))
	for _, id := range ids {
		out[id] = m.usage[id]
	}
	return out, nil
}

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct {
	err error
}

func (t *passthroughTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if t.err != nil {
		return t.err
	}
	return fn(ctx)
}

func strptr(s string) *string { return &s }

var _ = Describe("PermissionService", func() {
	var (
		repo    *mockPermissionRepository
		service *permission.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = newMockPermissionRepository()
		service = permission.NewService(repo, &passthroughTxManager{}, nil, logger.LoggerWrapper())
		ctx = context.Background()
	})

	Describe("CreatePermission", func() {
		It("should create a permission with a generated id", func() {
			p, err := service.CreatePermission(ctx, permission.CreatePermissionDTO{
				Module:      permission.ModuleBookings,
				Action:      permission.ActionCancel,
				Description: strptr("Cancel a booking"),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(p.ID).NotTo(BeEmpty())
			Expect(p.Key().String()).To(Equal("Bookings:cancel"))
		})

		It("should reject a duplicate key with a conflict", func() {
			repo.add(permission.ModuleBookings, permission.ActionCancel)

			_, err := service.CreatePermission(ctx, permission.CreatePermissionDTO{
				Module: permission.ModuleBookings,
				Action: permission.ActionCancel,
			})

			Expect(apperrors.IsConflict(err)).To(BeTrue())
		})

		It("should reject a malformed module name", func() {
			_, err := service.CreatePermission(ctx, permission.CreatePermissionDTO{
				Module: "9bad",
				Action: permission.ActionRead,
			})

			Expect(err).To(HaveOccurred())
			var appErr *apperrors.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeInvalidModule))
		})
	})

	Describe("UpdatePermission", func() {
		It("should reject a key change that collides with another permission", func() {
			repo.add(permission.ModuleBookings, permission.ActionRead)
			target := repo.add(permission.ModuleBookings, permission.ActionCreate)

			_, err := service.UpdatePermission(ctx, target.ID, permission.UpdatePermissionDTO{
				Action: strptr(permission.ActionRead),
			})

			Expect(apperrors.IsConflict(err)).To(BeTrue())
		})
	})

	Describe("DeletePermission", func() {
		It("should refuse to delete a permission that is still assigned", func() {
			p := repo.add(permission.ModuleRooms, permission.ActionDelete)
			repo.usage[p.ID] = permission.Usage{GroupCount: 2, UserCount: 1}

			err := service.DeletePermission(ctx, p.ID)

			Expect(apperrors.IsConflict(err)).To(BeTrue())
			var appErr *apperrors.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodePermissionInUse))

			blocked, ok := appErr.Details.([]permission.BlockedPermission)
			Expect(ok).To(BeTrue())
			Expect(blocked).To(HaveLen(1))
			Expect(blocked[0].GroupCount).To(Equal(int64(2)))
			Expect(blocked[0].UserCount).To(Equal(int64(1)))
		})

		It("should delete an unused permission", func() {
			p := repo.add(permission.ModuleRooms, permission.ActionDelete)

			Expect(service.DeletePermission(ctx, p.ID)).To(Succeed())
			Expect(repo.permissions).NotTo(HaveKey(p.ID))
		})

		It("should return not found for an unknown id", func() {
			err := service.DeletePermission(ctx, "missing")
			Expect(apperrors.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("BulkCreate", func() {
		It("should reject duplicate keys inside the payload before touching the store", func() {
			_, err := service.BulkCreate(ctx, permission.BulkCreateDTO{
				Permissions: []permission.CreatePermissionDTO{
					{Module: permission.ModuleRooms, Action: permission.ActionRead},
					{Module: permission.ModuleRooms, Action: permission.ActionRead},
				},
			})

			Expect(err).To(HaveOccurred())
			Expect(repo.permissions).To(BeEmpty())
		})

		It("should skip keys that already exist in the store", func() {
			repo.add(permission.ModuleRooms, permission.ActionRead)

			created, err := service.BulkCreate(ctx, permission.BulkCreateDTO{
				Permissions: []permission.CreatePermissionDTO{
					{Module: permission.ModuleRooms, Action: permission.ActionRead},
					{Module: permission.ModuleRooms, Action: permission.ActionUpdate},
				},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(int64(1)))
		})
	})

	Describe("BulkDelete", func() {
		It("should fail the whole batch when any id is missing", func() {
			p := repo.add(permission.ModuleRooms, permission.ActionRead)

			_, err := service.BulkDelete(ctx, permission.BulkDeleteDTO{
				PermissionIDs: []string{p.ID, "missing"},
			})

			Expect(apperrors.IsNotFound(err)).To(BeTrue())
			Expect(repo.permissions).To(HaveKey(p.ID))
		})

		It("should fail the whole batch when any permission is in use", func() {
			free := repo.add(permission.ModuleRooms, permission.ActionRead)
			used := repo.add(permission.ModuleRooms, permission.ActionUpdate)
			repo.usage[used.ID] = permission.Usage{UserCount: 3}

			_, err := service.BulkDelete(ctx, permission.BulkDeleteDTO{
				PermissionIDs: []string{free.ID, used.ID},
			})

			Expect(apperrors.IsConflict(err)).To(BeTrue())
			Expect(repo.permissions).To(HaveKey(free.ID))
		})

		It("should delete every permission when the batch is clean", func() {
			a := repo.add(permission.ModuleRooms, permission.ActionRead)
			b := repo.add(permission.ModuleRooms, permission.ActionUpdate)

			deleted, err := service.BulkDelete(ctx, permission.BulkDeleteDTO{
				PermissionIDs: []string{a.ID, b.ID},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(2)))
		})
	})

	Describe("Import", func() {
		It("should report a preview without writing when validate-only", func() {
			repo.add(permission.ModuleRooms, permission.ActionRead)

			result, err := service.Import(ctx, permission.ImportPermissionsDTO{
				Permissions: []permission.CreatePermissionDTO{
					{Module: permission.ModuleRooms, Action: permission.ActionRead},
					{Module: permission.ModuleRooms, Action: permission.ActionUpdate},
				},
				Options: permission.ImportOptions{ValidateOnly: true},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation).NotTo(BeNil())
			Expect(result.Validation.Total).To(Equal(2))
			Expect(result.Validation.New).To(Equal(1))
			Expect(result.Validation.Duplicates).To(Equal(1))
			Expect(result.Summary).To(BeNil())
			Expect(repo.permissions).To(HaveLen(1))
		})

		It("should fail with conflict when duplicates exist and no policy was chosen", func() {
			repo.add(permission.ModuleRooms, permission.ActionRead)

			_, err := service.Import(ctx, permission.ImportPermissionsDTO{
				Permissions: []permission.CreatePermissionDTO{
					{Module: permission.ModuleRooms, Action: permission.ActionRead},
				},
			})

			Expect(apperrors.IsConflict(err)).To(BeTrue())
		})

		It("should skip duplicates when asked to", func() {
			repo.add(permission.ModuleRooms, permission.ActionRead)

			result, err := service.Import(ctx, permission.ImportPermissionsDTO{
				Permissions: []permission.CreatePermissionDTO{
					{Module: permission.ModuleRooms, Action: permission.ActionRead},
					{Module: permission.ModuleRooms, Action: permission.ActionUpdate},
				},
				Options: permission.ImportOptions{SkipDuplicates: true},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Summary.Created).To(Equal(1))
			Expect(result.Summary.Skipped).To(Equal(1))
			Expect(result.Summary.Updated).To(Equal(0))
		})

		It("should update changed descriptions when updating existing", func() {
			existing := repo.add(permission.ModuleRooms, permission.ActionRead)
			existing.Description = strptr("old")

			result, err := service.Import(ctx, permission.ImportPermissionsDTO{
				Permissions: []permission.CreatePermissionDTO{
					{Module: permission.ModuleRooms, Action: permission.ActionRead, Description: strptr("new")},
				},
				Options: permission.ImportOptions{UpdateExisting: true},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Summary.Updated).To(Equal(1))
			Expect(*repo.permissions[existing.ID].Description).To(Equal("new"))
		})

		It("should count unchanged duplicates as skipped when updating existing", func() {
			existing := repo.add(permission.ModuleRooms, permission.ActionRead)
			existing.Description = strptr("same")

			result, err := service.Import(ctx, permission.ImportPermissionsDTO{
				Permissions: []permission.CreatePermissionDTO{
					{Module: permission.ModuleRooms, Action: permission.ActionRead, Description: strptr("same")},
				},
				Options: permission.ImportOptions{UpdateExisting: true},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Summary.Updated).To(Equal(0))
			Expect(result.Summary.Skipped).To(Equal(1))
		})
	})

	Describe("Export", func() {
		It("should include usage counts when requested", func() {
			p := repo.add(permission.ModuleRooms, permission.ActionRead)
			repo.usage[p.ID] = permission.Usage{GroupCount: 4}

			result, err := service.Export(ctx, permission.ExportOptions{IncludeUsage: true})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(1))
			Expect(result.Permissions[0].GroupCount).NotTo(BeNil())
			Expect(*result.Permissions[0].GroupCount).To(Equal(int64(4)))
		})
	})
})
