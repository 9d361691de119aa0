package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal/group"
	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the permission catalog and default accounts",
	Long:  `Seed the permission catalog, the default groups and an initial admin account.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		gdb, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			clearSeedData(gdb)
		}

		perms := seedPermissions(gdb)
		groups := seedGroups(gdb, perms)
		seedAdminUser(gdb, groups["Administrators"], cfg.Security.BCryptCost)

		fmt.Println("Seeding complete")
	},
}

// catalog is the permission set every fresh install starts with.
var catalog = map[string][]string{
	permission.ModuleHotels:      {permission.ActionCreate, permission.ActionRead, permission.ActionUpdate, permission.ActionDelete, permission.ActionManage},
	permission.ModuleRooms:       {permission.ActionCreate, permission.ActionRead, permission.ActionUpdate, permission.ActionDelete, permission.ActionManage},
	permission.ModuleBookings:    {permission.ActionCreate, permission.ActionRead, permission.ActionUpdate, permission.ActionCancel, permission.ActionManage},
	permission.ModuleGuests:      {permission.ActionCreate, permission.ActionRead, permission.ActionUpdate, permission.ActionDelete},
	permission.ModulePayments:    {permission.ActionCreate, permission.ActionRead, permission.ActionManage},
	permission.ModuleReports:     {permission.ActionRead, permission.ActionExport},
	permission.ModuleUsers:       {permission.ActionCreate, permission.ActionRead, permission.ActionUpdate, permission.ActionDelete, permission.ActionManage, permission.ActionExport},
	permission.ModuleGroups:      {permission.ActionCreate, permission.ActionRead, permission.ActionUpdate, permission.ActionDelete, permission.ActionManage, permission.ActionImport, permission.ActionExport},
	permission.ModulePermissions: {permission.ActionCreate, permission.ActionRead, permission.ActionUpdate, permission.ActionDelete, permission.ActionImport, permission.ActionExport},
}

// groupGrants maps default groups to the permission keys they start with. A
// nil slice means every catalog permission.
var groupGrants = map[string][]string{
	"Administrators": nil,
	"Managers": {
		"Hotels:create", "Hotels:read", "Hotels:update", "Hotels:delete", "Hotels:manage",
		"Rooms:create", "Rooms:read", "Rooms:update", "Rooms:delete", "Rooms:manage",
		"Bookings:create", "Bookings:read", "Bookings:update", "Bookings:cancel", "Bookings:manage",
		"Guests:create", "Guests:read", "Guests:update", "Guests:delete",
		"Payments:create", "Payments:read", "Payments:manage",
		"Reports:read", "Reports:export",
		"Users:read",
	},
	"Receptionists": {
		"Hotels:read",
		"Rooms:read",
		"Bookings:create", "Bookings:read", "Bookings:update", "Bookings:cancel",
		"Guests:create", "Guests:read", "Guests:update",
	},
}

func clearSeedData(gdb *gorm.DB) {
	for _, table := range []string{"user_permissions", "group_permissions", "bookings", "rooms", "hotels", "guests", "users", "user_groups", "permissions"} {
		if err := gdb.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("failed to clear %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing data")
}

func seedPermissions(gdb *gorm.DB) map[string]*permission.Permission {
	perms := make(map[string]*permission.Permission)
	for module, actions := range catalog {
		for _, action := range actions {
			var existing permission.Permission
			err := gdb.Where("module = ? AND action = ?", module, action).First(&existing).Error
			if err == nil {
				perms[module+":"+action] = &existing
				continue
			}
			if err != gorm.ErrRecordNotFound {
				log.Fatalf("failed to check permission %s:%s: %v", module, action, err)
			}

			desc := fmt.Sprintf("Allows %s on %s", action, module)
			p := &permission.Permission{
				ID:          uuid.New().String(),
				Module:      module,
				Action:      action,
				Description: &desc,
			}
			if err := gdb.Create(p).Error; err != nil {
				log.Fatalf("failed to seed permission %s:%s: %v", module, action, err)
			}
			perms[module+":"+action] = p
		}
	}
	fmt.Printf("Seeded %d permissions\n", len(perms))
	return perms
}

func seedGroups(gdb *gorm.DB, perms map[string]*permission.Permission) map[string]*group.Group {
	groups := make(map[string]*group.Group)
	for name, keys := range groupGrants {
		var existing group.Group
		err := gdb.Where("name = ?", name).First(&existing).Error
		if err == nil {
			groups[name] = &existing
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Fatalf("failed to check group %s: %v", name, err)
		}

		desc := fmt.Sprintf("Default %s group", name)
		g := &group.Group{
			ID:          uuid.New().String(),
			Name:        name,
			Description: &desc,
			IsActive:    true,
		}
		if err := gdb.Create(g).Error; err != nil {
			log.Fatalf("failed to seed group %s: %v", name, err)
		}

		if keys == nil {
			for key := range perms {
				keys = append(keys, key)
			}
		}
		for _, key := range keys {
			p, ok := perms[key]
			if !ok {
				log.Fatalf("unknown permission key in seed data: %s", key)
			}
			link := &group.GroupPermission{
				ID:           uuid.New().String(),
				GroupID:      g.ID,
				PermissionID: p.ID,
				IsAllowed:    true,
			}
			if err := gdb.Create(link).Error; err != nil {
				log.Fatalf("failed to link %s to %s: %v", key, name, err)
			}
		}
		groups[name] = g
	}
	fmt.Printf("Seeded %d groups\n", len(groups))
	return groups
}

func seedAdminUser(gdb *gorm.DB, admins *group.Group, bcryptCost int) {
	const email = "admin@hotel.local"

	var existing user.User
	err := gdb.Where("email = ?", email).First(&existing).Error
	if err == nil {
		fmt.Println("Admin user already exists")
		return
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatalf("failed to check admin user: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("ChangeMe123!"), bcryptCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         "Administrator",
		PasswordHash: string(hash),
		GroupID:      &admins.ID,
		IsActive:     true,
	}
	if err := gdb.Create(u).Error; err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	fmt.Println("Seeded admin user:", email)
}
