// Package server wires configuration, storage, services and transports into
// a runnable microblog server and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/microblog/internal/logging"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/metrics"
	"github.com/dmitrijs2005/microblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/microblog/internal/server/services"
	"golang.org/x/time/rate"

	gs "github.com/dmitrijs2005/microblog/internal/server/grpc"
)

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	users   *services.UserService
	servers map[string]runner
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	app := newApp(c, logger, db, rm)
	if err := app.grantAdmins(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("admin grant error: %w", err)
	}
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	users := services.NewUserService(db, rm, c, logger)
	svc := gs.Services{
		Users:      users,
		Sessions:   services.NewSessionService(users, c, logger),
		Graph:      services.NewRelationshipService(db, rm, c, logger),
		Microposts: services.NewMicropostService(db, rm, c, logger),
		Feed:       services.NewFeedService(db, rm, c),
	}

	var limiter *rate.Limiter
	if c.LoginRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.LoginRateLimit), c.LoginRateBurst)
	}

	servers := map[string]runner{
		"grpc": gs.NewGRPCServer(c.EndpointAddrGRPC, logger, svc, limiter),
	}
	if c.MetricsAddr != "" {
		servers["metrics"] = metrics.NewServer(c.MetricsAddr, logger)
	}

	return &App{config: c, logger: logger, db: db, users: users, servers: servers}
}

// grantAdmins promotes the identities listed in config.AdminEmails.
func (app *App) grantAdmins(ctx context.Context) error {
	if len(app.config.AdminEmails) == 0 {
		return nil
	}
	n, err := app.users.GrantAdmins(ctx, app.config.AdminEmails)
	if err != nil {
		return err
	}
	app.logger.Info(ctx, "admins granted", "count", n)
	return nil
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

// Run starts every server and blocks until ctx is cancelled, a signal
// arrives or one of the servers fails. The database is closed on return.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	for name, s := range app.servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Run(ctx); err != nil {
				app.logger.Error(ctx, "server stopped", "server", name, "error", err.Error())
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err.Error())
		}
	}
	app.logger.Info(ctx, "App stopped")
}
