// Package server wires the drivesense server together: storage, migrations,
// classifier artifacts, services and the HTTP and gRPC transports, and runs
// them until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/drivesense/internal/logging"
	"github.com/dmitrijs2005/drivesense/internal/server/auth"
	"github.com/dmitrijs2005/drivesense/internal/server/classifier"
	"github.com/dmitrijs2005/drivesense/internal/server/config"
	"github.com/dmitrijs2005/drivesense/internal/server/modelsync"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/drivesense/internal/server/rest"
	"github.com/dmitrijs2005/drivesense/internal/server/services"

	gs "github.com/dmitrijs2005/drivesense/internal/server/grpc"
)

const defaultSecretKey = "your-secret-key-change-in-production"

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *rest.Server
	grpc   *gs.GRPCServer
}

// Storage opens the database and applies migrations. It is shared with the
// admin tool.
func Storage(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, rm, nil
}

// TokenService builds the token service from c.
func TokenService(c *config.Config) (*auth.TokenService, error) {
	return auth.NewTokenService(auth.TokenSettings{
		Secret:     []byte(c.SecretKey),
		DefaultTTL: c.AccessTokenValidityDuration,
		Issuer:     c.TokenIssuer,
	})
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.Debug)

	if c.SecretKey == defaultSecretKey {
		logger.Warn(ctx, "using the development secret key; set SECRET_KEY")
	}

	tokens, err := TokenService(c)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	db, rm, err := Storage(ctx, c)
	if err != nil {
		return nil, err
	}

	if c.SyncModels() {
		if err := modelsync.NewSyncer(c, logger).Sync(ctx); err != nil {
			logger.Error(ctx, "model sync failed, using local artifacts", "err", err)
		}
	}
	gateway := classifier.LoadGateway(ctx, c.ModelsPath, logger)

	httpServer := rest.NewServer(c, rest.Deps{
		Users:  services.NewUserService(db, rm, tokens),
		Events: services.NewEventService(db, rm),
		Styles: services.NewStyleService(db, rm),
		Models: gateway,
	}, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   httpServer,
		grpc:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger, gateway),
	}, nil
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

// Run blocks until a signal arrives or either server fails; a failure of one
// server stops the other.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	run := func(name string, fn func(context.Context) error) {
		defer wg.Done()
		if err := fn(ctx); err != nil {
			app.logger.Error(ctx, "server stopped", "server", name, "err", err)
			cancelFunc()
		}
	}

	wg.Add(2)
	go run("http", app.http.Run)
	go run("grpc", app.grpc.Run)

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "err", err)
	}
	app.logger.Info(ctx, "App stopped")
}
