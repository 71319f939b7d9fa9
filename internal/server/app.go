// Package server initializes and runs the auth service: it opens the user
// store and the revocation store, applies migrations, builds the HTTP router
// and serves it until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/rest"
	"github.com/dmitrijs2005/gophauth/internal/server/revocation"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const startupTimeout = 15 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   redis.UniversalClient
	handler http.Handler
}

// NewApp validates c, connects to PostgreSQL and Redis, runs migrations and
// wires the service.
func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db connect error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	rdb := revocation.NewRedisClient(c.RedisAddr, c.RedisPassword, c.RedisDB)
	if err := rdb.Ping(ctx).Err(); err != nil {
		// revocation checks fail open, so a missing Redis is not fatal
		logger.Warn(ctx, "redis unreachable at startup", "address", c.RedisAddr, "error", err)
	}

	app, err := newApp(c, logger, db, rdb, rm, prometheus.NewRegistry())
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, err
	}
	return app, nil
}

// newApp wires already opened stores into the router.
func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rdb redis.UniversalClient, rm repomanager.RepositoryManager, reg *prometheus.Registry) (*App, error) {
	codec, err := auth.NewCodec(c.SecretKey, c.TokenValidityDuration)
	if err != nil {
		return nil, err
	}
	hasher, err := auth.NewBcryptHasher(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	revocations := revocation.NewRedisStore(rdb)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "auth"),
	)
	collector := metrics.NewCollector(reg)

	svc := services.NewUserService(db, dbx.NewSQLTxRunner(db), rm, hasher, codec, revocations, logger)

	handler := rest.NewRouter(&rest.RouterDeps{
		Service:        svc,
		Verifier:       codec,
		Revocations:    revocations,
		Cookies:        auth.NewCookies(c.IsProduction(), codec.Validity()),
		Logger:         logger,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		HealthChecks: map[string]rest.HealthCheck{
			"postgres": db.PingContext,
			"redis":    revocations.Ping,
		},
	})

	return &App{config: c, logger: logger, db: db, redis: rdb, handler: handler}, nil
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

// Close releases the store connections.
func (app *App) Close() error {
	return errors.Join(app.db.Close(), app.redis.Close())
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then closes the stores.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	srv := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.handler, app.logger, app.config.ShutdownTimeout)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "error closing stores", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
