package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
	httpapi "github.com/aussiebroadwan/scribe/internal/session/http"
	"github.com/aussiebroadwan/scribe/internal/session/revocation"
	"github.com/aussiebroadwan/scribe/internal/session/revocation/memory"
	"github.com/aussiebroadwan/scribe/internal/session/revocation/redisstore"
	"github.com/aussiebroadwan/scribe/internal/session/service"
	"github.com/aussiebroadwan/scribe/internal/session/store"
	"github.com/aussiebroadwan/scribe/internal/session/store/drivers/sqlite"
	"github.com/aussiebroadwan/scribe/pkg/cryptox"
	"github.com/aussiebroadwan/scribe/pkg/idx"
	"github.com/aussiebroadwan/scribe/pkg/slogx"
	"github.com/aussiebroadwan/scribe/pkg/wsx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the session service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	redisClient *redis.Client
	revocations revocation.Store

	sessions     *service.SessionService
	loginService *service.LoginService
	gate         *service.Gate
	housekeeping *service.HousekeepingService // nil when revocation lives in redis

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "session-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.initRevocations()

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.bootstrapDirectory(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.housekeeping != nil {
		app.housekeeping.Start()
	}

	app.logger.Info("session service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down session service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeeping != nil {
		app.housekeeping.Stop()
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("session service stopped")
	return nil
}

// initDatabase initializes the principal directory and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRevocations picks the revocation backend. Redis gives revocations
// shared across replicas; the in-memory store is single-process and needs
// the housekeeping sweep.
func (app *Application) initRevocations() {
	if app.cfg.RedisAddr != "" {
		app.redisClient = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		app.revocations = redisstore.New(app.redisClient)
		app.logger.Info("revocation store: redis", "addr", app.cfg.RedisAddr)
		return
	}

	mem := memory.New()
	app.revocations = mem
	app.housekeeping = service.NewHousekeepingService(mem, app.logger, app.cfg.SweepInterval)
	app.logger.Info("revocation store: in-memory")
}

func (app *Application) initServices() error {
	codec, err := initCodec(app.cfg, app.logger)
	if err != nil {
		return err
	}

	app.sessions = &service.SessionService{
		Codec:       codec,
		Revocations: app.revocations,
		Issuer:      app.cfg.Issuer,
		Audience:    app.cfg.Audience,
		AccessTTL:   app.cfg.AccessTTL,
		RefreshTTL:  app.cfg.RefreshTTL,
	}

	app.loginService = &service.LoginService{
		Sessions:   app.sessions,
		Principals: app.db.Principals(),
	}

	app.gate = &service.Gate{
		Sessions:  app.sessions,
		Directory: app.db.Principals(),
	}

	return nil
}

// bootstrapDirectory seeds an admin account when the directory is empty and
// bootstrap credentials are configured. Without credentials the service
// still starts; it just has nobody who can log in.
func (app *Application) bootstrapDirectory() error {
	ctx := context.Background()
	principals := app.db.Principals()

	empty, err := principals.IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect principal directory: %w", err)
	}
	if !empty {
		return nil
	}

	if app.cfg.BootstrapUsername == "" || app.cfg.BootstrapPassword == "" {
		app.logger.Warn("principal directory is empty and no bootstrap credentials are configured")
		return nil
	}

	hash, err := cryptox.HashPassword(app.cfg.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	now := time.Now().UTC()
	admin := domain.Principal{
		ID:           idx.New().String(),
		Username:     app.cfg.BootstrapUsername,
		DisplayName:  app.cfg.BootstrapUsername,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := principals.CreatePrincipal(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed bootstrap admin: %w", err)
	}

	app.logger.Info("seeded bootstrap admin", "username", admin.Username, "principal_id", admin.ID)
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.revocations, app.logger)
	router.Sessions = app.sessions
	router.LoginService = app.loginService
	router.Gate = app.gate
	router.WSExtractor = wsx.Extractor{AllowQueryHeader: app.cfg.AllowWSQueryHeader}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
