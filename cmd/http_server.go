package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/msallam/hotel-management/internal"
	"github.com/msallam/hotel-management/internal/auth"
	"github.com/msallam/hotel-management/internal/booking"
	bookingPostgres "github.com/msallam/hotel-management/internal/booking/postgres"
	"github.com/msallam/hotel-management/internal/core/database"
	"github.com/msallam/hotel-management/internal/core/events"
	"github.com/msallam/hotel-management/internal/group"
	groupPostgres "github.com/msallam/hotel-management/internal/group/postgres"
	"github.com/msallam/hotel-management/internal/guest"
	guestPostgres "github.com/msallam/hotel-management/internal/guest/postgres"
	"github.com/msallam/hotel-management/internal/hotel"
	hotelPostgres "github.com/msallam/hotel-management/internal/hotel/postgres"
	"github.com/msallam/hotel-management/internal/permission"
	permissionPostgres "github.com/msallam/hotel-management/internal/permission/postgres"
	"github.com/msallam/hotel-management/internal/room"
	roomPostgres "github.com/msallam/hotel-management/internal/room/postgres"
	"github.com/msallam/hotel-management/internal/transport"
	"github.com/msallam/hotel-management/internal/transport/rest"
	"github.com/msallam/hotel-management/internal/user"
	userPostgres "github.com/msallam/hotel-management/internal/user/postgres"
	"github.com/msallam/hotel-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	log := deps.Logger
	gdb := deps.GormDB

	txm := database.NewTransactionManager(gdb)
	bus := events.NewEventBus(log)
	events.RegisterAuditSubscriber(bus, log)

	permRepo := permissionPostgres.NewPermissionRepository(gdb)
	groupRepo := groupPostgres.NewGroupRepository(gdb)
	userRepo := userPostgres.NewUserRepository(gdb)
	hotelRepo := hotelPostgres.NewHotelRepository(gdb)
	roomRepo := roomPostgres.NewRoomRepository(gdb)
	bookingRepo := bookingPostgres.NewBookingRepository(gdb)
	guestRepo := guestPostgres.NewGuestRepository(gdb)

	resolver := permission.NewResolver(permissionPostgres.NewResolverStore(gdb), log)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)

	permService := permission.NewService(permRepo, txm, bus, log)
	groupService := group.NewService(groupRepo, permRepo, txm, bus, log)
	userService := user.NewService(userRepo, permRepo, groupRepo, txm, bus, log, cfg.Security.BCryptCost)
	authService := auth.NewService(userRepo, tokenGen, resolver, log)
	hotelService := hotel.NewService(hotelRepo, log)
	roomService := room.NewService(roomRepo, hotelRepo, log)
	bookingService := booking.NewService(bookingRepo, roomRepo, guestRepo, log)
	guestService := guest.NewService(guestRepo, log)

	base := transport.NewBaseHandler(log)
	handlers := rest.Handlers{
		Auth:       auth.NewHandler(base, authService, resolver),
		Permission: permission.NewHandler(base, permService),
		Group:      group.NewHandler(base, groupService),
		User:       user.NewHandler(base, userService),
		Hotel:      hotel.NewHandler(base, hotelService),
		Room:       room.NewHandler(base, roomService),
		Booking:    booking.NewHandler(base, bookingService),
		Guest:      guest.NewHandler(base, guestService),
	}

	rest.RegisterAllRoutes(deps.Router, handlers, rest.Deps{
		DB:             deps.DB,
		TokenValidator: authService,
		UserLoader:     userRepo,
		Resolver:       resolver,
		AllowedOrigins: strings.Split(cfg.Server.AllowedOrigins, ","),
		Logger:         log,
	})
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Level, config.Logging.Format)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ORM: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: logger.LoggerWrapper(),
		DB:     db,
		GormDB: gdb,
		Router: chi.NewRouter(),
	}, nil
}

// initDB opens the pgx connection pool used for health checks and migrations.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM on the already opened pool so both share one set of
// connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}
