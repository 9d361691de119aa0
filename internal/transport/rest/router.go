package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/msallam/hotel-management/internal/auth"
	"github.com/msallam/hotel-management/internal/booking"
	"github.com/msallam/hotel-management/internal/group"
	"github.com/msallam/hotel-management/internal/guest"
	"github.com/msallam/hotel-management/internal/hotel"
	"github.com/msallam/hotel-management/internal/permission"
	"github.com/msallam/hotel-management/internal/room"
	"github.com/msallam/hotel-management/internal/transport/middleware"
	"github.com/msallam/hotel-management/internal/transport/swagger"
	"github.com/msallam/hotel-management/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	Permission *permission.Handler
	Group      *group.Handler
	User       *user.Handler
	Hotel      *hotel.Handler
	Room       *room.Handler
	Booking    *booking.Handler
	Guest      *guest.Handler
}

// Deps are the cross-cutting pieces the middleware chain needs.
type Deps struct {
	DB             *sqlx.DB
	TokenValidator middleware.TokenValidator
	UserLoader     middleware.UserLoader
	Resolver       *permission.Resolver
	AllowedOrigins []string
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, deps Deps) {
	healthHandler := NewHealthHandler(deps.DB)
	log := deps.Logger

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggingMiddleware(log))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	// require guards a route with a (module, action) permission check.
	require := func(module, action string) func(http.Handler) http.Handler {
		return middleware.RequirePermission(deps.Resolver, module, action, log)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.Refresh)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(middleware.AuthMiddleware(deps.TokenValidator, deps.UserLoader, log))

			pr.Get("/auth/me", h.Auth.Me)

			pr.Route("/admin/permissions", func(ar chi.Router) {
				ar.With(require(permission.ModulePermissions, permission.ActionRead)).
					Get("/", h.Permission.List)
				ar.With(require(permission.ModulePermissions, permission.ActionCreate)).
					Post("/", h.Permission.Create)
				ar.With(require(permission.ModulePermissions, permission.ActionCreate)).
					Post("/bulk", h.Permission.BulkCreate)
				ar.With(require(permission.ModulePermissions, permission.ActionDelete)).
					Delete("/bulk", h.Permission.BulkDelete)
				ar.With(require(permission.ModulePermissions, permission.ActionImport)).
					Post("/import", h.Permission.Import)
				ar.With(require(permission.ModulePermissions, permission.ActionExport)).
					Get("/export", h.Permission.Export)
				ar.With(require(permission.ModulePermissions, permission.ActionRead)).
					Get("/{id}", h.Permission.Get)
				ar.With(require(permission.ModulePermissions, permission.ActionUpdate)).
					Put("/{id}", h.Permission.Update)
				ar.With(require(permission.ModulePermissions, permission.ActionDelete)).
					Delete("/{id}", h.Permission.Delete)
			})

			pr.Route("/admin/groups", func(gr chi.Router) {
				gr.With(require(permission.ModuleGroups, permission.ActionRead)).
					Get("/", h.Group.List)
				gr.With(require(permission.ModuleGroups, permission.ActionCreate)).
					Post("/", h.Group.Create)
				gr.With(require(permission.ModuleGroups, permission.ActionRead)).
					Get("/stats", h.Group.Stats)
				gr.With(require(permission.ModuleGroups, permission.ActionImport)).
					Post("/import", h.Group.Import)
				gr.With(require(permission.ModuleGroups, permission.ActionExport)).
					Get("/export", h.Group.Export)
				gr.With(require(permission.ModuleGroups, permission.ActionRead)).
					Get("/{id}", h.Group.Get)
				gr.With(require(permission.ModuleGroups, permission.ActionUpdate)).
					Put("/{id}", h.Group.Update)
				gr.With(require(permission.ModuleGroups, permission.ActionDelete)).
					Delete("/{id}", h.Group.Delete)
				gr.With(require(permission.ModuleGroups, permission.ActionManage)).
					Post("/{id}/permissions/bulk", h.Group.LinkPermissions)
			})

			pr.Route("/admin/users", func(ur chi.Router) {
				ur.With(require(permission.ModuleUsers, permission.ActionRead)).
					Get("/", h.User.List)
				ur.With(require(permission.ModuleUsers, permission.ActionCreate)).
					Post("/", h.User.Create)
				ur.With(require(permission.ModuleUsers, permission.ActionRead)).
					Get("/stats", h.User.Stats)
				ur.With(require(permission.ModuleUsers, permission.ActionExport)).
					Get("/export", h.User.Export)
				ur.With(require(permission.ModuleUsers, permission.ActionRead)).
					Get("/{id}", h.User.Get)
				ur.With(require(permission.ModuleUsers, permission.ActionUpdate)).
					Put("/{id}", h.User.Update)
				ur.With(require(permission.ModuleUsers, permission.ActionDelete)).
					Delete("/{id}", h.User.Delete)
				ur.With(require(permission.ModuleUsers, permission.ActionRead)).
					Get("/{id}/permissions", h.User.PermissionSummary)
				ur.With(require(permission.ModuleUsers, permission.ActionManage)).
					Post("/{id}/permissions/bulk", h.User.LinkPermissions)
			})

			pr.Route("/hotels", func(hr chi.Router) {
				hr.With(require(permission.ModuleHotels, permission.ActionRead)).
					Get("/", h.Hotel.List)
				hr.With(require(permission.ModuleHotels, permission.ActionCreate)).
					Post("/", h.Hotel.Create)
				hr.With(require(permission.ModuleHotels, permission.ActionRead)).
					Get("/{id}", h.Hotel.Get)
				hr.With(require(permission.ModuleHotels, permission.ActionUpdate)).
					Put("/{id}", h.Hotel.Update)
				hr.With(require(permission.ModuleHotels, permission.ActionDelete)).
					Delete("/{id}", h.Hotel.Delete)
			})

			pr.Route("/rooms", func(rr chi.Router) {
				rr.With(require(permission.ModuleRooms, permission.ActionRead)).
					Get("/", h.Room.List)
				rr.With(require(permission.ModuleRooms, permission.ActionCreate)).
					Post("/", h.Room.Create)
				rr.With(require(permission.ModuleRooms, permission.ActionRead)).
					Get("/{id}", h.Room.Get)
				rr.With(require(permission.ModuleRooms, permission.ActionUpdate)).
					Put("/{id}", h.Room.Update)
				rr.With(require(permission.ModuleRooms, permission.ActionDelete)).
					Delete("/{id}", h.Room.Delete)
			})

			pr.Route("/bookings", func(br chi.Router) {
				br.With(require(permission.ModuleBookings, permission.ActionRead)).
					Get("/", h.Booking.List)
				br.With(require(permission.ModuleBookings, permission.ActionCreate)).
					Post("/", h.Booking.Create)
				br.With(require(permission.ModuleBookings, permission.ActionRead)).
					Get("/{id}", h.Booking.Get)
				br.With(require(permission.ModuleBookings, permission.ActionUpdate)).
					Put("/{id}", h.Booking.Update)
				br.With(require(permission.ModuleBookings, permission.ActionCancel)).
					Patch("/{id}/cancel", h.Booking.Cancel)
			})

			pr.Route("/guests", func(gr chi.Router) {
				gr.With(require(permission.ModuleGuests, permission.ActionRead)).
					Get("/", h.Guest.List)
				gr.With(require(permission.ModuleGuests, permission.ActionCreate)).
					Post("/", h.Guest.Create)
				gr.With(require(permission.ModuleGuests, permission.ActionRead)).
					Get("/{id}", h.Guest.Get)
				gr.With(require(permission.ModuleGuests, permission.ActionUpdate)).
					Put("/{id}", h.Guest.Update)
				gr.With(require(permission.ModuleGuests, permission.ActionDelete)).
					Delete("/{id}", h.Guest.Delete)
			})
		})
	})
}
