package postgres

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/permission"
)

type SQLiteResolverUser struct {
	ID      string  `gorm:"primaryKey"`
	Email   string  `gorm:"column:email"`
	GroupID *string `gorm:"column:group_id"`
}

func (SQLiteResolverUser) TableName() string {
	return "users"
}

type SQLiteUserGroup struct {
	ID       string `gorm:"primaryKey"`
	Name     string `gorm:"column:name"`
	IsActive bool   `gorm:"column:is_active"`
}

func (SQLiteUserGroup) TableName() string {
	return "user_groups"
}

var _ = Describe("ResolverStore", func() {
	var (
		db    *gorm.DB
		store *ResolverStore
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&permission.Permission{},
			&SQLiteResolverUser{},
			&SQLiteUserGroup{},
			&SQLiteGroupPermission{},
			&SQLiteUserPermission{},
		)
		Expect(err).NotTo(HaveOccurred())

		store = NewResolverStore(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("GetUserGroup", func() {
		It("should return the group reference with its active flag", func() {
			Expect(db.Create(&SQLiteUserGroup{ID: "g1", Name: "Front Desk", IsActive: true}).Error).NotTo(HaveOccurred())
			gid := "g1"
			Expect(db.Create(&SQLiteResolverUser{ID: "u1", Email: "a@x", GroupID: &gid}).Error).NotTo(HaveOccurred())

			ref, err := store.GetUserGroup(ctx, "u1")

			Expect(err).NotTo(HaveOccurred())
			Expect(ref).NotTo(BeNil())
			Expect(ref.ID).To(Equal("g1"))
			Expect(ref.IsActive).To(BeTrue())
		})

		It("should return nil for a user without a group", func() {
			Expect(db.Create(&SQLiteResolverUser{ID: "u1", Email: "a@x"}).Error).NotTo(HaveOccurred())

			ref, err := store.GetUserGroup(ctx, "u1")

			Expect(err).NotTo(HaveOccurred())
			Expect(ref).To(BeNil())
		})

		It("should fail with not found for an unknown user", func() {
			_, err := store.GetUserGroup(ctx, "missing")

			Expect(apperrors.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("FindGroupPermissions and FindUserPermissions", func() {
		BeforeEach(func() {
			Expect(db.Create(&permission.Permission{ID: "p1", Module: "Bookings", Action: "read"}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&permission.Permission{ID: "p2", Module: "Bookings", Action: "cancel"}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&SQLiteGroupPermission{ID: "l1", GroupID: "g1", PermissionID: "p1", IsAllowed: true}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&SQLiteUserPermission{ID: "l2", UserID: "u1", PermissionID: "p2", IsAllowed: false}).Error).NotTo(HaveOccurred())
		})

		It("should load group grants with their permissions", func() {
			grants, err := store.FindGroupPermissions(ctx, "g1")

			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(HaveLen(1))
			Expect(grants[0].Permission.Key().String()).To(Equal("Bookings:read"))
			Expect(grants[0].IsAllowed).To(BeTrue())
		})

		It("should load user overrides with their allow flag", func() {
			grants, err := store.FindUserPermissions(ctx, "u1")

			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(HaveLen(1))
			Expect(grants[0].Permission.Key().String()).To(Equal("Bookings:cancel"))
			Expect(grants[0].IsAllowed).To(BeFalse())
		})

		It("should return no grants for an owner without links", func() {
			grants, err := store.FindGroupPermissions(ctx, "other")

			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(BeEmpty())
		})
	})
})
