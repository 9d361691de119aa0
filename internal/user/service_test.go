package user_test

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/group"
	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/internal/user"
	"github.com/msallam/hotel-management/pkg/logger"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

// Mock repository for testing
type mockUserRepository struct {
	users     map[string]*user.User
	links     map[string]map[string]*user.UserPermission
	ownership map[string]user.OwnershipCounts

	createError error
	deleteError error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:     make(map[string]*user.User),
		links:     make(map[string]map[string]*user.UserPermission),
		ownership: make(map[string]user.OwnershipCounts),
	}
}

func (m *mockUserRepository) add(id, email string) *user.User {
	u := &user.User{ID: id, Email: email, Name: "Test User", IsActive: true}
	m.users[id] = u
	return u
}

func (m *mockUserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	out := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		if filter.ActiveOnly && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.createError != nil {
		return m.createError
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) Update(ctx context.Context, u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) OwnershipCounts(ctx context.Context, userID string) (user.OwnershipCounts, error) {
	return m.ownership[userID], nil
}

func (m *mockUserRepository) FindPermissions(ctx context.Context, userID string) ([]permission.Grant, error) {
	var grants []permission.Grant
	for _, link := range m.links[userID] {
		grants = append(grants, permission.Grant{
			Permission: permission.Permission{ID: link.PermissionID, Module: "Bookings", Action: link.PermissionID},
			IsAllowed:  link.IsAllowed,
		})
	}
	return grants, nil
}

func (m *mockUserRepository) LinkedPermissionIDs(ctx context.Context, userID string, permissionIDs []string) ([]string, error) {
	var linked []string
	for _, id := range permissionIDs {
		if _, ok := m.links[userID][id]; ok {
			linked = append(linked, id)
		}
	}
	return linked, nil
}

func (m *mockUserRepository) CreateLinks(ctx context.Context, links []*user.UserPermission) error {
	for _, link := range links {
		if m.links[link.UserID] == nil {
			m.links[link.UserID] = make(map[string]*user.UserPermission)
		}
		m.links[link.UserID][link.PermissionID] = link
	}
	return nil
}

func (m *mockUserRepository) DeleteLinks(ctx context.Context, userID string, permissionIDs []string) (int64, error) {
	var deleted int64
	for _, id := range permissionIDs {
		if _, ok := m.links[userID][id]; ok {
			delete(m.links[userID], id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockUserRepository) DeleteAllLinks(ctx context.Context, userID string) error {
	delete(m.links, userID)
	return nil
}

func (m *mockUserRepository) CountWithOverrides(ctx context.Context) (int64, error) {
	var count int64
	for _, links := range m.links {
		if len(links) > 0 {
			count++
		}
	}
	return count, nil
}

// Mock permission lookup for testing
type mockPermissionLookup struct {
	permissions map[string]*permission.Permission
}

func newMockPermissionLookup() *mockPermissionLookup {
	return &mockPermissionLookup{permissions: make(map[string]*permission.Permission)}
}

func (m *mockPermissionLookup) add(id, module, action string) *permission.Permission {
	p := &permission.Permission{ID: id, Module: module, Action: action}
	m.permissions[id] = p
	return p
}

func (m *mockPermissionLookup) FindByIDs(ctx context.Context, ids []string) ([]*permission.Permission, error) {
	var out []*permission.Permission
	for _, id := range ids {
		if p, ok := m.permissions[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Mock group lookup for testing
type mockGroupLookup struct {
	groups map[string]*group.Group
	grants map[string][]permission.Grant
}

func newMockGroupLookup() *mockGroupLookup {
	return &mockGroupLookup{
		groups: make(map[string]*group.Group),
		grants: make(map[string][]permission.Grant),
	}
}

func (m *mockGroupLookup) GetByID(ctx context.Context, id string) (*group.Group, error) {
	return m.groups[id], nil
}

func (m *mockGroupLookup) FindPermissions(ctx context.Context, groupID string) ([]permission.Grant, error) {
	return m.grants[groupID], nil
}

func (m *mockGroupLookup) UserCounts(ctx context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func strptr(s string) *string { return &s }

var _ = Describe("UserService", func() {
	var (
		repo    *mockUserRepository
		perms   *mockPermissionLookup
		groups  *mockGroupLookup
		service *user.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		perms = newMockPermissionLookup()
		groups = newMockGroupLookup()
		service = user.NewService(repo, perms, groups, passthroughTxManager{}, nil, logger.LoggerWrapper(), bcrypt.MinCost)
		ctx = context.Background()
	})

	Describe("CreateUser", func() {
		It("should create a user with a hashed password", func() {
			u, err := service.CreateUser(ctx, user.CreateUserDTO{
				Email:    "staff@hotel.local",
				Name:     "Front Desk",
				Password: "s3cret-pass",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(u.PasswordHash).NotTo(Equal("s3cret-pass"))
			Expect(bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass"))).To(Succeed())
		})

		It("should reject a duplicate email", func() {
			repo.add("u1", "staff@hotel.local")

			_, err := service.CreateUser(ctx, user.CreateUserDTO{
				Email:    "staff@hotel.local",
				Name:     "Front Desk",
				Password: "s3cret-pass",
			})

			Expect(apperrors.IsConflict(err)).To(BeTrue())
		})

		It("should reject an unknown group", func() {
			_, err := service.CreateUser(ctx, user.CreateUserDTO{
				Email:    "staff@hotel.local",
				Name:     "Front Desk",
				Password: "s3cret-pass",
				GroupID:  strptr("missing"),
			})

			Expect(apperrors.IsNotFound(err)).To(BeTrue())
		})

		It("should reject a short password", func() {
			_, err := service.CreateUser(ctx, user.CreateUserDTO{
				Email:    "staff@hotel.local",
				Name:     "Front Desk",
				Password: "short",
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdateUser", func() {
		It("should clear the group when an empty group id is sent", func() {
			u := repo.add("u1", "staff@hotel.local")
			gid := "g1"
			u.GroupID = &gid

			updated, err := service.UpdateUser(ctx, "u1", user.UpdateUserDTO{
				GroupID: strptr(""),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.GroupID).To(BeNil())
		})
	})

	Describe("DeleteUser", func() {
		It("should delete a user without owned records", func() {
			repo.add("u1", "staff@hotel.local")
			repo.links["u1"] = map[string]*user.UserPermission{
				"p1": {UserID: "u1", PermissionID: "p1"},
			}

			outcome, err := service.DeleteUser(ctx, "u1")

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Deleted).To(BeTrue())
			Expect(outcome.Deactivated).To(BeFalse())
			Expect(repo.users).NotTo(HaveKey("u1"))
			Expect(repo.links).NotTo(HaveKey("u1"))
		})

		It("should deactivate instead of delete when the user owns records", func() {
			repo.add("u1", "staff@hotel.local")
			repo.ownership["u1"] = user.OwnershipCounts{Bookings: 2, Rooms: 1}

			outcome, err := service.DeleteUser(ctx, "u1")

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Deleted).To(BeFalse())
			Expect(outcome.Deactivated).To(BeTrue())
			Expect(outcome.Ownership.Bookings).To(Equal(int64(2)))
			Expect(repo.users).To(HaveKey("u1"))
			Expect(repo.users["u1"].IsActive).To(BeFalse())
		})
	})

	Describe("LinkPermissions", func() {
		BeforeEach(func() {
			repo.add("u1", "staff@hotel.local")
			perms.add("p1", permission.ModuleBookings, permission.ActionRead)
			perms.add("p2", permission.ModuleBookings, permission.ActionCancel)
		})

		It("should fail before mutating when a permission does not exist", func() {
			_, err := service.LinkPermissions(ctx, "u1", user.LinkPermissionsDTO{
				Mode:   permission.LinkAdd,
				Grants: []user.GrantInput{{PermissionID: "missing"}},
			})

			Expect(apperrors.IsNotFound(err)).To(BeTrue())
			Expect(repo.links["u1"]).To(BeEmpty())
		})

		It("should replace all overrides atomically", func() {
			_, err := service.LinkPermissions(ctx, "u1", user.LinkPermissionsDTO{
				Mode:   permission.LinkAdd,
				Grants: []user.GrantInput{{PermissionID: "p1"}},
			})
			Expect(err).NotTo(HaveOccurred())

			grants, err := service.LinkPermissions(ctx, "u1", user.LinkPermissionsDTO{
				Mode:   permission.LinkReplace,
				Grants: []user.GrantInput{{PermissionID: "p2"}},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(HaveLen(1))
			Expect(grants[0].Permission.ID).To(Equal("p2"))
		})
	})

	Describe("PermissionSummary", func() {
		It("should merge group grants with overrides, overrides winning", func() {
			u := repo.add("u1", "staff@hotel.local")
			gid := "g1"
			u.GroupID = &gid
			groups.groups[gid] = &group.Group{ID: gid, Name: "Front Desk", IsActive: true}
			groups.grants[gid] = []permission.Grant{
				{Permission: permission.Permission{ID: "pr", Module: "Bookings", Action: "read"}, IsAllowed: true},
				{Permission: permission.Permission{ID: "pc", Module: "Bookings", Action: "cancel"}, IsAllowed: true},
			}
			repo.links["u1"] = map[string]*user.UserPermission{
				"cancel": {UserID: "u1", PermissionID: "cancel", IsAllowed: false},
			}

			summary, err := service.PermissionSummary(ctx, "u1")

			Expect(err).NotTo(HaveOccurred())
			Expect(*summary.GroupName).To(Equal("Front Desk"))
			Expect(summary.FromGroup).To(HaveLen(2))
			Expect(summary.Direct).To(HaveLen(1))
			Expect(summary.TotalCount).To(Equal(2))

			merged := permission.Merge(summary.FromGroup, summary.Direct)
			Expect(merged.Allowed(permission.Key{Module: "Bookings", Action: "read"})).To(BeTrue())
			Expect(merged.Allowed(permission.Key{Module: "Bookings", Action: "cancel"})).To(BeFalse())
		})

		It("should contribute no group grants when the group is inactive", func() {
			u := repo.add("u1", "staff@hotel.local")
			gid := "g1"
			u.GroupID = &gid
			groups.groups[gid] = &group.Group{ID: gid, Name: "Front Desk", IsActive: false}
			groups.grants[gid] = []permission.Grant{
				{Permission: permission.Permission{ID: "pr", Module: "Bookings", Action: "read"}, IsAllowed: true},
			}

			summary, err := service.PermissionSummary(ctx, "u1")

			Expect(err).NotTo(HaveOccurred())
			Expect(summary.FromGroup).To(BeEmpty())
			Expect(summary.TotalCount).To(Equal(0))
		})
	})

	Describe("Stats", func() {
		It("should count users per group and overrides", func() {
			gid := "g1"
			groups.groups[gid] = &group.Group{ID: gid, Name: "Front Desk", IsActive: true}
			a := repo.add("u1", "a@hotel.local")
			a.GroupID = &gid
			b := repo.add("u2", "b@hotel.local")
			b.IsActive = false
			repo.links["u1"] = map[string]*user.UserPermission{"p1": {}}

			stats, err := service.Stats(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalUsers).To(Equal(int64(2)))
			Expect(stats.ActiveUsers).To(Equal(int64(1)))
			Expect(stats.InactiveUsers).To(Equal(int64(1)))
			Expect(stats.WithoutGroup).To(Equal(int64(1)))
			Expect(stats.WithOverrides).To(Equal(int64(1)))
			Expect(stats.UsersPerGroup["Front Desk"]).To(Equal(int64(1)))
		})
	})

	Describe("Export", func() {
		It("should prefix denied overrides with an exclamation mark", func() {
			repo.add("u1", "staff@hotel.local")
			repo.links["u1"] = map[string]*user.UserPermission{
				"cancel": {UserID: "u1", PermissionID: "cancel", IsAllowed: false},
			}

			result, err := service.Export(ctx, user.ExportOptions{})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(1))
			Expect(result.Users[0].Overrides).To(ConsistOf("!Bookings:cancel"))
		})
	})
})
