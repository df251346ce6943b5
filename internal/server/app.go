// Package server wires configuration, storage, the auth service and the HTTP
// transport together and runs them until the process is told to stop.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/authkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config  config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	closers []io.Closer
	handler http.Handler
}

// NewApp validates c, opens storage (running migrations for PostgreSQL) and
// builds the HTTP handler. Logs go to stdout as JSON.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, *c, logging.NewJSONLogger(os.Stdout, c.LogLevel))
}

func newApp(ctx context.Context, c config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	hasher, err := cryptox.NewPasswordHasher(c.PasswordHasher)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger}

	if err := app.initStorage(ctx); err != nil {
		app.close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := services.NewAuthService(app.repos, hasher, c,
		services.WithLogger(logger),
		services.WithMailer(mailer.NewLogMailer(logger)),
		services.WithMetrics(metrics.NewRecorder(reg)),
	)

	app.handler = httpapi.NewRouter(svc, httpapi.RouterOptions{
		Secret:         []byte(c.SecretKey),
		AllowedOrigins: c.CORSAllowedOrigins,
	}, logger, reg)
	return app, nil
}

func (app *App) initStorage(ctx context.Context) error {
	if app.config.Storage == config.StorageMemory {
		if app.config.RedisAddr != "" {
			app.logger.Warn(ctx, "redis address ignored with in-memory storage")
		}
		app.repos = repomanager.NewMemoryRepositoryManager()
		app.logger.Info(ctx, "Using in-memory storage")
		return nil
	}

	db, err := dbx.OpenPostgres(ctx, app.config.DatabaseDSN, app.config.MaxOpenConns)
	if err != nil {
		return err
	}

	var opts []repomanager.Option
	if app.config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
		app.closers = append(app.closers, rdb)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = db.Close()
			return fmt.Errorf("redis ping: %w", err)
		}
		opts = append(opts, repomanager.WithTokenStore(tokens.NewRedisRepository(rdb)))
		app.logger.Info(ctx, "Token records kept in redis", "address", app.config.RedisAddr)
	}

	m := repomanager.NewPostgresRepositoryManager(db, opts...)
	app.repos = m
	app.closers = append(app.closers, m)

	if err := m.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error(context.Background(), "close error", "error", err)
		}
	}
	app.closers = nil
}

// Handler returns the HTTP handler of the app.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.handler, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM/SIGQUIT arrives,
// then releases storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")

	return runErr
}
