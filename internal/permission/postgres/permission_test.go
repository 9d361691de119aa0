package postgres

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal/permission"
)

func TestPermissionRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PermissionRepository Suite")
}

type SQLiteGroupPermission struct {
	ID           string `gorm:"primaryKey"`
	GroupID      string `gorm:"column:group_id"`
	PermissionID string `gorm:"column:permission_id"`
	IsAllowed    bool   `gorm:"column:is_allowed"`
}

func (SQLiteGroupPermission) TableName() string {
	return "group_permissions"
}

type SQLiteUserPermission struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"column:user_id"`
	PermissionID string `gorm:"column:permission_id"`
	IsAllowed    bool   `gorm:"column:is_allowed"`
}

func (SQLiteUserPermission) TableName() string {
	return "user_permissions"
}

var _ = Describe("PermissionRepository", func() {
	var (
		db   *gorm.DB
		repo *PermissionRepository
		ctx  context.Context
	)

	seed := func(id, module, action string) *permission.Permission {
		p := &permission.Permission{ID: id, Module: module, Action: action}
		Expect(db.Create(p).Error).NotTo(HaveOccurred())
		return p
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&permission.Permission{}, &SQLiteGroupPermission{}, &SQLiteUserPermission{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewPermissionRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("List", func() {
		BeforeEach(func() {
			seed("p1", "Bookings", "read")
			seed("p2", "Bookings", "cancel")
			seed("p3", "Rooms", "read")
		})

		It("should order by module then action", func() {
			perms, err := repo.List(ctx, permission.ListFilter{})

			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(3))
			Expect(perms[0].Action).To(Equal("cancel"))
			Expect(perms[1].Action).To(Equal("read"))
			Expect(perms[2].Module).To(Equal("Rooms"))
		})

		It("should filter by module", func() {
			perms, err := repo.List(ctx, permission.ListFilter{Module: "Rooms"})

			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(1))
		})

		It("should search case insensitively", func() {
			perms, err := repo.List(ctx, permission.ListFilter{Search: "BOOK"})

			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(2))
		})
	})

	Describe("GetByID", func() {
		It("should return nil for an unknown id", func() {
			p, err := repo.GetByID(ctx, "missing")

			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeNil())
		})
	})

	Describe("GetByKey", func() {
		It("should find a permission by module and action", func() {
			seed("p1", "Bookings", "read")

			p, err := repo.GetByKey(ctx, "Bookings", "read")

			Expect(err).NotTo(HaveOccurred())
			Expect(p).NotTo(BeNil())
			Expect(p.ID).To(Equal("p1"))
		})
	})

	Describe("FindByKeys", func() {
		It("should return only the stored subset", func() {
			seed("p1", "Bookings", "read")
			seed("p2", "Rooms", "read")

			perms, err := repo.FindByKeys(ctx, []permission.Key{
				{Module: "Bookings", Action: "read"},
				{Module: "Rooms", Action: "delete"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(1))
			Expect(perms[0].ID).To(Equal("p1"))
		})

		It("should return nothing for an empty key list", func() {
			perms, err := repo.FindByKeys(ctx, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(BeEmpty())
		})
	})

	Describe("CreateMany", func() {
		It("should skip rows whose key already exists", func() {
			seed("p1", "Bookings", "read")

			created, err := repo.CreateMany(ctx, []*permission.Permission{
				{ID: "x1", Module: "Bookings", Action: "read"},
				{ID: "x2", Module: "Bookings", Action: "cancel"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(int64(1)))

			perms, err := repo.List(ctx, permission.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(2))
		})
	})

	Describe("DeleteByIDs", func() {
		It("should report the number of deleted rows", func() {
			seed("p1", "Bookings", "read")
			seed("p2", "Rooms", "read")

			deleted, err := repo.DeleteByIDs(ctx, []string{"p1", "p2", "missing"})

			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(2)))
		})
	})

	Describe("UsageCounts", func() {
		It("should count group and user links per permission", func() {
			seed("p1", "Bookings", "read")
			seed("p2", "Rooms", "read")
			Expect(db.Create(&SQLiteGroupPermission{ID: "l1", GroupID: "g1", PermissionID: "p1", IsAllowed: true}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&SQLiteGroupPermission{ID: "l2", GroupID: "g2", PermissionID: "p1", IsAllowed: true}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&SQLiteUserPermission{ID: "l3", UserID: "u1", PermissionID: "p1", IsAllowed: false}).Error).NotTo(HaveOccurred())

			counts, err := repo.UsageCounts(ctx, []string{"p1", "p2"})

			Expect(err).NotTo(HaveOccurred())
			Expect(counts["p1"].GroupCount).To(Equal(int64(2)))
			Expect(counts["p1"].UserCount).To(Equal(int64(1)))
			Expect(counts["p1"].Total()).To(Equal(int64(3)))
			Expect(counts["p2"].Total()).To(Equal(int64(0)))
		})
	})
})
