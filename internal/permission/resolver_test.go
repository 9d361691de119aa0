package permission_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/pkg/logger"
)

func TestPermission(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Suite")
}

// Mock resolver store for testing
type mockResolverStore struct {
	group       *permission.GroupRef
	groupGrants []permission.Grant
	userGrants  []permission.Grant

	getUserGroupError error
	groupGrantsError  error
	userGrantsError   error
}

func (m *mockResolverStore) GetUserGroup(ctx context.Context, userID string) (*permission.GroupRef, error) {
	if m.getUserGroupError != nil {
		return nil, m.getUserGroupError
	}
	return m.group, nil
}

func (m *mockResolverStore) FindGroupPermissions(ctx context.Context, groupID string) ([]permission.Grant, error) {
	if m.groupGrantsError != nil {
		return nil, m.groupGrantsError
	}
	return m.groupGrants, nil
}

func (m *mockResolverStore) FindUserPermissions(ctx context.Context, userID string) ([]permission.Grant, error) {
	if m.userGrantsError != nil {
		return nil, m.userGrantsError
	}
	return m.userGrants, nil
}

func grant(module, action string, allowed bool) permission.Grant {
	return permission.Grant{
		Permission: permission.Permission{
			ID:     module + "-" + action,
			Module: module,
			Action: action,
		},
		IsAllowed: allowed,
	}
}

var _ = Describe("Resolver", func() {
	var (
		store    *mockResolverStore
		resolver *permission.Resolver
		ctx      context.Context
	)

	BeforeEach(func() {
		store = &mockResolverStore{
			group: &permission.GroupRef{ID: "group-1", IsActive: true},
		}
		resolver = permission.NewResolver(store, logger.LoggerWrapper())
		ctx = context.Background()
	})

	Describe("EffectiveSet", func() {
		Context("when the user only has group permissions", func() {
			It("should inherit every group grant", func() {
				store.groupGrants = []permission.Grant{
					grant(permission.ModuleBookings, permission.ActionRead, true),
					grant(permission.ModuleBookings, permission.ActionCreate, true),
				}

				set, err := resolver.EffectiveSet(ctx, "user-1")

				Expect(err).NotTo(HaveOccurred())
				Expect(set).To(HaveLen(2))
				Expect(set.Allowed(permission.Key{Module: permission.ModuleBookings, Action: permission.ActionRead})).To(BeTrue())
				for _, ep := range set.Values() {
					Expect(ep.Source).To(Equal(permission.SourceGroup))
				}
			})
		})

		Context("when a user override denies a group grant", func() {
			It("should deny the permission", func() {
				store.groupGrants = []permission.Grant{
					grant(permission.ModuleBookings, permission.ActionCancel, true),
				}
				store.userGrants = []permission.Grant{
					grant(permission.ModuleBookings, permission.ActionCancel, false),
				}

				set, err := resolver.EffectiveSet(ctx, "user-1")

				Expect(err).NotTo(HaveOccurred())
				Expect(set).To(HaveLen(1))
				key := permission.Key{Module: permission.ModuleBookings, Action: permission.ActionCancel}
				Expect(set.Allowed(key)).To(BeFalse())
				Expect(set[key].Source).To(Equal(permission.SourceUser))
			})
		})

		Context("when a user override allows something the group denies", func() {
			It("should allow the permission", func() {
				store.groupGrants = []permission.Grant{
					grant(permission.ModuleReports, permission.ActionExport, false),
				}
				store.userGrants = []permission.Grant{
					grant(permission.ModuleReports, permission.ActionExport, true),
				}

				set, err := resolver.EffectiveSet(ctx, "user-1")

				Expect(err).NotTo(HaveOccurred())
				Expect(set.Allowed(permission.Key{Module: permission.ModuleReports, Action: permission.ActionExport})).To(BeTrue())
			})
		})

		Context("when a user override grants something the group never mentions", func() {
			It("should allow it alongside the inherited grants", func() {
				store.groupGrants = []permission.Grant{
					grant(permission.ModuleBookings, permission.ActionRead, true),
				}
				store.userGrants = []permission.Grant{
					grant(permission.ModuleHotels, permission.ActionDelete, true),
				}

				set, err := resolver.EffectiveSet(ctx, "user-1")

				Expect(err).NotTo(HaveOccurred())
				Expect(set).To(HaveLen(2))
				Expect(set.Allowed(permission.Key{Module: permission.ModuleHotels, Action: permission.ActionDelete})).To(BeTrue())
				Expect(set.Allowed(permission.Key{Module: permission.ModuleBookings, Action: permission.ActionRead})).To(BeTrue())
			})
		})

		Context("when the user's group is inactive", func() {
			It("should keep only the direct overrides", func() {
				store.group = &permission.GroupRef{ID: "group-1", IsActive: false}
				store.groupGrants = []permission.Grant{
					grant(permission.ModuleBookings, permission.ActionRead, true),
				}
				store.userGrants = []permission.Grant{
					grant(permission.ModuleGuests, permission.ActionRead, true),
				}

				set, err := resolver.EffectiveSet(ctx, "user-1")

				Expect(err).NotTo(HaveOccurred())
				Expect(set).To(HaveLen(1))
				Expect(set.Allowed(permission.Key{Module: permission.ModuleBookings, Action: permission.ActionRead})).To(BeFalse())
				Expect(set.Allowed(permission.Key{Module: permission.ModuleGuests, Action: permission.ActionRead})).To(BeTrue())
			})
		})

		Context("when the user has no group", func() {
			It("should resolve from the overrides alone", func() {
				store.group = nil
				store.userGrants = []permission.Grant{
					grant(permission.ModuleGuests, permission.ActionRead, true),
				}

				set, err := resolver.EffectiveSet(ctx, "user-1")

				Expect(err).NotTo(HaveOccurred())
				Expect(set).To(HaveLen(1))
			})
		})

		Context("when the user does not exist", func() {
			It("should return the store error", func() {
				store.getUserGroupError = errors.NewNotFoundError("user not found", errors.ErrCodeUserNotFound)

				set, err := resolver.EffectiveSet(ctx, "missing")

				Expect(err).To(HaveOccurred())
				Expect(set).To(BeNil())
				Expect(errors.IsNotFound(err)).To(BeTrue())
			})
		})
	})

	Describe("HasPermission", func() {
		It("should deny keys the set never mentions", func() {
			store.groupGrants = []permission.Grant{
				grant(permission.ModuleBookings, permission.ActionRead, true),
			}

			ok, err := resolver.HasPermission(ctx, "user-1", permission.ModuleBookings, permission.ActionDelete)

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should surface store failures so callers can fail closed", func() {
			store.userGrantsError = errors.NewStoreError("db down", nil)

			ok, err := resolver.HasPermission(ctx, "user-1", permission.ModuleBookings, permission.ActionRead)

			Expect(err).To(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("HasAny", func() {
		It("should report true when at least one key is allowed", func() {
			store.groupGrants = []permission.Grant{
				grant(permission.ModuleRooms, permission.ActionRead, true),
			}

			ok, err := resolver.HasAny(ctx, "user-1", []permission.Key{
				{Module: permission.ModuleHotels, Action: permission.ActionDelete},
				{Module: permission.ModuleRooms, Action: permission.ActionRead},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("HasAll", func() {
		It("should report false when any key is missing", func() {
			store.groupGrants = []permission.Grant{
				grant(permission.ModuleRooms, permission.ActionRead, true),
			}

			ok, err := resolver.HasAll(ctx, "user-1", []permission.Key{
				{Module: permission.ModuleRooms, Action: permission.ActionRead},
				{Module: permission.ModuleRooms, Action: permission.ActionUpdate},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("CanManage", func() {
		It("should check the manage action of the module", func() {
			store.userGrants = []permission.Grant{
				grant(permission.ModuleUsers, permission.ActionManage, true),
			}

			ok, err := resolver.CanManage(ctx, "user-1", permission.ModuleUsers)

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})
})

var _ = Describe("EffectiveSet context", func() {
	It("should round-trip through the request context", func() {
		set := permission.Merge([]permission.Grant{
			grant(permission.ModuleRooms, permission.ActionRead, true),
		}, nil)

		ctx := permission.ContextWithEffectiveSet(context.Background(), set)
		got, ok := permission.EffectiveSetFromContext(ctx)

		Expect(ok).To(BeTrue())
		Expect(got).To(HaveLen(1))

		_, ok = permission.EffectiveSetFromContext(context.Background())
		Expect(ok).To(BeFalse())
	})
})
