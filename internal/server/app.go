// Package server wires configuration, storage, services and transports
// into a runnable application: the REST API over HTTP and the gRPC health
// endpoint, with graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/workboard/internal/cryptox"
	"github.com/dmitrijs2005/workboard/internal/logging"
	"github.com/dmitrijs2005/workboard/internal/server/auth"
	"github.com/dmitrijs2005/workboard/internal/server/config"
	"github.com/dmitrijs2005/workboard/internal/server/httpapi"
	"github.com/dmitrijs2005/workboard/internal/server/ratelimit"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/memory"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/workboard/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	gs "github.com/dmitrijs2005/workboard/internal/server/grpc"
)

// MemoryDSN selects the process-local store instead of PostgreSQL. Data
// does not survive a restart.
const MemoryDSN = "memory"

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	limiter     ratelimit.Limiter
	closers     []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, rm, err := openDatabase(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, repomanager: rm, closers: []func() error{db.Close}}

	if err := app.initLimiter(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("rate limiter init error: %w", err)
	}

	return app, nil
}

func openDatabase(dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	if dsn == MemoryDSN {
		// Transactions still need a real *sql.DB; a private sqlite
		// instance supplies one.
		db, err := sql.Open("sqlite", "file:workboard?mode=memory&cache=shared")
		if err != nil {
			return nil, nil, err
		}
		return db, memory.NewManager(), nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, repomanager.NewPostgresRepositoryManager(), nil
}

func (app *App) initLimiter(ctx context.Context) error {
	limit := app.config.AuthRateLimitPerMinute
	if limit <= 0 {
		return nil
	}

	if app.config.RedisURL == "" {
		app.limiter = ratelimit.NewMemoryLimiter(limit, time.Minute)
		return nil
	}

	client, err := ratelimit.NewRedisClient(ctx, app.config.RedisURL)
	if err != nil {
		return err
	}
	app.closers = append(app.closers, client.Close)
	app.limiter = ratelimit.NewRedisLimiter(client, "workboard:auth", limit, time.Minute)
	return nil
}

// Close releases the database and the Redis client.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i]())
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) buildRouter(authService *services.AuthService, issuer *auth.TokenIssuer) http.Handler {
	return httpapi.NewRouter(httpapi.Deps{
		Auth:        authService,
		Users:       services.NewUserService(app.db, app.repomanager),
		WorkItems:   services.NewWorkItemService(app.db, app.repomanager, app.logger.With("module", "workitems")),
		Tokens:      issuer,
		DB:          app.db,
		AuthLimiter: app.limiter,
		Log:         app.logger,
	})
}

// prepare migrates the schema, provisions the admin when asked and returns
// the HTTP handler.
func (app *App) prepare(ctx context.Context) (http.Handler, error) {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	c := app.config
	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.Issuer, c.Audience, c.AccessTokenValidityDuration)
	authService := services.NewAuthService(app.db, app.repomanager,
		auth.NewPasswordHasher(cryptox.DefaultArgon2Params), issuer,
		services.NewRefreshTokenManager(c.RefreshTokenValidityDuration),
		app.logger.With("module", "auth"))

	if c.BootstrapAdmin {
		created, err := authService.BootstrapAdmin(ctx, services.BootstrapAdminInput{
			Username: c.AdminUsername,
			Email:    c.AdminEmail,
			Password: c.AdminPassword,
		}, app.logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		if !created {
			app.logger.Info(ctx, "admin account already present, bootstrap skipped")
		}
	}

	return app.buildRouter(authService, issuer), nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc, lis net.Listener, h http.Handler) {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc, lis net.Listener) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.db, gs.DefaultProbeInterval)
	if err := s.Serve(ctx, lis); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives. Listeners are
// bound before Run returns any startup error.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	h, err := app.prepare(ctx)
	if err != nil {
		return err
	}

	httpLis, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		return err
	}
	grpcLis, err := net.Listen("tcp", app.config.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return err
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc, httpLis, h)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc, grpcLis)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
