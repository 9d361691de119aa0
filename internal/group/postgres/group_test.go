package postgres

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal/group"
	"github.com/msallam/hotel-management/internal/permission"
)

func TestGroupRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "GroupRepository Suite")
}

type SQLiteUser struct {
	ID      string  `gorm:"primaryKey"`
	Email   string  `gorm:"column:email"`
	GroupID *string `gorm:"column:group_id"`
}

func (SQLiteUser) TableName() string {
	return "users"
}

var _ = Describe("GroupRepository", func() {
	var (
		db   *gorm.DB
		repo *GroupRepository
		ctx  context.Context
	)

	seedGroup := func(id, name string) *group.Group {
		g := &group.Group{ID: id, Name: name, IsActive: true}
		Expect(db.Create(g).Error).NotTo(HaveOccurred())
		return g
	}

	seedPermission := func(id, module, action string) *permission.Permission {
		p := &permission.Permission{ID: id, Module: module, Action: action}
		Expect(db.Create(p).Error).NotTo(HaveOccurred())
		return p
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&group.Group{}, &group.GroupPermission{}, &permission.Permission{}, &SQLiteUser{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewGroupRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("List", func() {
		It("should filter to active groups", func() {
			seedGroup("g1", "Front Desk")
			inactive := &group.Group{ID: "g2", Name: "Archived", IsActive: false}
			Expect(db.Create(inactive).Error).NotTo(HaveOccurred())

			groups, err := repo.List(ctx, group.ListFilter{ActiveOnly: true})

			Expect(err).NotTo(HaveOccurred())
			Expect(groups).To(HaveLen(1))
			Expect(groups[0].Name).To(Equal("Front Desk"))
		})

		It("should search case insensitively by name", func() {
			seedGroup("g1", "Front Desk")
			seedGroup("g2", "Housekeeping")

			groups, err := repo.List(ctx, group.ListFilter{Search: "front"})

			Expect(err).NotTo(HaveOccurred())
			Expect(groups).To(HaveLen(1))
		})
	})

	Describe("UserCount", func() {
		It("should count only members of the group", func() {
			g := seedGroup("g1", "Front Desk")
			Expect(db.Create(&SQLiteUser{ID: "u1", Email: "a@x", GroupID: &g.ID}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&SQLiteUser{ID: "u2", Email: "b@x", GroupID: &g.ID}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&SQLiteUser{ID: "u3", Email: "c@x"}).Error).NotTo(HaveOccurred())

			count, err := repo.UserCount(ctx, g.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})
	})

	Describe("FindPermissions", func() {
		It("should join permission rows with the link's allow flag", func() {
			g := seedGroup("g1", "Front Desk")
			seedPermission("p1", "Bookings", "read")
			seedPermission("p2", "Bookings", "cancel")
			Expect(repo.CreateLinks(ctx, []*group.GroupPermission{
				{ID: "l1", GroupID: g.ID, PermissionID: "p1", IsAllowed: true},
				{ID: "l2", GroupID: g.ID, PermissionID: "p2", IsAllowed: false},
			})).To(Succeed())

			grants, err := repo.FindPermissions(ctx, g.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(HaveLen(2))
			Expect(grants[0].Permission.Action).To(Equal("cancel"))
			Expect(grants[0].IsAllowed).To(BeFalse())
			Expect(grants[1].Permission.Action).To(Equal("read"))
			Expect(grants[1].IsAllowed).To(BeTrue())
		})
	})

	Describe("LinkedPermissionIDs", func() {
		It("should return only the already linked subset", func() {
			g := seedGroup("g1", "Front Desk")
			seedPermission("p1", "Bookings", "read")
			seedPermission("p2", "Bookings", "cancel")
			Expect(repo.CreateLinks(ctx, []*group.GroupPermission{
				{ID: "l1", GroupID: g.ID, PermissionID: "p1", IsAllowed: true},
			})).To(Succeed())

			linked, err := repo.LinkedPermissionIDs(ctx, g.ID, []string{"p1", "p2"})

			Expect(err).NotTo(HaveOccurred())
			Expect(linked).To(ConsistOf("p1"))
		})
	})

	Describe("DeleteLinks", func() {
		It("should remove only the named links", func() {
			g := seedGroup("g1", "Front Desk")
			seedPermission("p1", "Bookings", "read")
			seedPermission("p2", "Bookings", "cancel")
			Expect(repo.CreateLinks(ctx, []*group.GroupPermission{
				{ID: "l1", GroupID: g.ID, PermissionID: "p1", IsAllowed: true},
				{ID: "l2", GroupID: g.ID, PermissionID: "p2", IsAllowed: true},
			})).To(Succeed())

			deleted, err := repo.DeleteLinks(ctx, g.ID, []string{"p1"})

			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(1)))

			grants, err := repo.FindPermissions(ctx, g.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(HaveLen(1))
		})
	})

	Describe("PermissionCounts", func() {
		It("should count links per group", func() {
			a := seedGroup("g1", "Front Desk")
			b := seedGroup("g2", "Housekeeping")
			seedPermission("p1", "Bookings", "read")
			seedPermission("p2", "Bookings", "cancel")
			Expect(repo.CreateLinks(ctx, []*group.GroupPermission{
				{ID: "l1", GroupID: a.ID, PermissionID: "p1", IsAllowed: true},
				{ID: "l2", GroupID: a.ID, PermissionID: "p2", IsAllowed: true},
				{ID: "l3", GroupID: b.ID, PermissionID: "p1", IsAllowed: true},
			})).To(Succeed())

			counts, err := repo.PermissionCounts(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(counts[a.ID]).To(Equal(int64(2)))
			Expect(counts[b.ID]).To(Equal(int64(1)))
		})
	})

	Describe("TopPermissions", func() {
		It("should rank permissions by granting group count", func() {
			a := seedGroup("g1", "Front Desk")
			b := seedGroup("g2", "Housekeeping")
			seedPermission("p1", "Bookings", "read")
			seedPermission("p2", "Bookings", "cancel")
			Expect(repo.CreateLinks(ctx, []*group.GroupPermission{
				{ID: "l1", GroupID: a.ID, PermissionID: "p1", IsAllowed: true},
				{ID: "l2", GroupID: a.ID, PermissionID: "p2", IsAllowed: true},
				{ID: "l3", GroupID: b.ID, PermissionID: "p1", IsAllowed: true},
			})).To(Succeed())

			usage, err := repo.TopPermissions(ctx, 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(usage).To(HaveLen(2))
			Expect(usage[0].Key).To(Equal("Bookings:read"))
			Expect(usage[0].GroupCount).To(Equal(int64(2)))
			Expect(usage[1].Key).To(Equal("Bookings:cancel"))
		})

		It("should honor the limit", func() {
			a := seedGroup("g1", "Front Desk")
			seedPermission("p1", "Bookings", "read")
			seedPermission("p2", "Bookings", "cancel")
			Expect(repo.CreateLinks(ctx, []*group.GroupPermission{
				{ID: "l1", GroupID: a.ID, PermissionID: "p1", IsAllowed: true},
				{ID: "l2", GroupID: a.ID, PermissionID: "p2", IsAllowed: true},
			})).To(Succeed())

			usage, err := repo.TopPermissions(ctx, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(usage).To(HaveLen(1))
		})
	})
})
