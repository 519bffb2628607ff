// Command api runs the failure-log HTTP API.
//
//	@title						Failure Log API
//	@version					1.0
//	@description				Failure recording and product catalog API.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"

	"github.com/tbourn/go-failurelog-api/internal/alert"
	"github.com/tbourn/go-failurelog-api/internal/config"
	"github.com/tbourn/go-failurelog-api/internal/domain"
	"github.com/tbourn/go-failurelog-api/internal/failure"
	httpapi "github.com/tbourn/go-failurelog-api/internal/http"
	"github.com/tbourn/go-failurelog-api/internal/observability"
	"github.com/tbourn/go-failurelog-api/internal/repo"
	"github.com/tbourn/go-failurelog-api/internal/sysutil"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version string

func main() {
	app := cli.NewApp()
	app.Name = "failurelog-api"
	app.Usage = "Failure log and product catalog API"
	app.Version = sysutil.FirstNonEmpty(Version, "dev")
	app.Before = func(*cli.Context) error {
		// A missing .env is normal outside local development.
		_ = godotenv.Load()
		return nil
	}

	app.Commands = []cli.Command{
		serveCMD,
		migrateCMD,
	}
	app.Action = serveAction

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the HTTP API",
		Action:      serveAction,
		Description: `Connect to the database, migrate the schema and serve HTTP until SIGINT or SIGTERM.`,
	}
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "apply schema migrations and exit",
		Action:      migrateAction,
		Description: `Connect to the database and create or update the failure_logs and products tables.`,
	}
)

func setup() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, errors.Wrap(err, "load config")
	}
	sysutil.ConfigureLogger(os.Stderr, cfg.LogPretty, cfg.OTEL.ServiceName, cfg.Env)
	sysutil.SetLogLevel(cfg.LogLevel)
	return cfg, nil
}

func migrateAction(_ *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	db, err := repo.Open(ctx, cfg.Database, false)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		return errors.Wrap(err, "migrate")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("migrations applied")
	return nil
}

func serveAction(_ *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, observability.ServiceInfo{
		Name:        cfg.OTEL.ServiceName,
		Version:     sysutil.FirstNonEmpty(Version, "dev"),
		Environment: cfg.Env,
	})
	tracingErr := err
	if tracingErr != nil {
		log.Warn().Err(tracingErr).Msg("tracing disabled")
		shutdownTracing = func(context.Context) error { return nil }
	}

	a, err := bootstrap(ctx, cfg, failure.WithShutdownHooks(shutdownTracing))
	if err != nil {
		return err
	}
	defer a.boundary.Recover()
	if tracingErr != nil {
		a.degraded(ctx, "tracing", tracingErr)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, a.svc, a.rec, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	log.Info().
		Str("env", cfg.Env).
		Str("db_driver", cfg.Database.Driver).
		Bool("alerts", cfg.Alert.Enabled()).
		Bool("swagger", cfg.SwaggerEnabled).
		Msg("starting API")

	a.boundary.Serve(ctx, srv, cfg.ShutdownGrace)
	return nil
}

// application is what serve needs once the database is ready.
type application struct {
	svc      httpapi.Services
	rec      *failure.Recorder
	boundary *failure.ProcessBoundary
}

// bootstrap connects to and migrates the database, then builds the failure
// recorder and the process boundary. A failed step is recorded as a startup
// failure, which exits the process; the error is returned for callers whose
// exit does not terminate.
func bootstrap(ctx context.Context, cfg config.Config, opts ...failure.ProcessOption) (*application, error) {
	meta := map[string]any{"driver": cfg.Database.Driver}

	db, err := repo.Open(ctx, cfg.Database, cfg.OTEL.Enabled)
	if err != nil {
		// Nothing to persist into yet; the record attempt fails and is logged.
		err = errors.Wrap(err, "database connection")
		rec := failure.NewRecorder(unavailableStore{err: err}, cfg.Env, cfg.RecordTimeout)
		failure.NewProcessBoundary(rec, cfg.RecordTimeout, opts...).StartupFailure(err, meta)
		return nil, err
	}

	svc := httpapi.NewServices(db, cfg)

	var recOpts []failure.RecorderOption
	if cfg.Alert.Enabled() {
		pub := alert.NewKafkaPublisher(cfg.Alert.Brokers, cfg.Alert.Topic)
		recOpts = append(recOpts, failure.WithAlerts(pub))
		opts = append(opts, failure.WithShutdownHooks(func(context.Context) error { return pub.Close() }))
	}
	rec := failure.NewRecorder(svc.Failures, cfg.Env, cfg.RecordTimeout, recOpts...)
	boundary := failure.NewProcessBoundary(rec, cfg.RecordTimeout, opts...)

	if err := repo.AutoMigrate(db); err != nil {
		err = errors.Wrap(err, "migrate")
		boundary.StartupFailure(err, meta)
		return nil, err
	}
	return &application{svc: svc, rec: rec, boundary: boundary}, nil
}

// degraded records a warning for a component that failed to start but is
// not needed to serve.
func (a *application) degraded(ctx context.Context, component string, err error) {
	a.rec.Warning(ctx, failure.Options{
		Message:  "Degraded startup: " + component + " disabled",
		Err:      err,
		Path:     failure.PathStartup,
		Metadata: map[string]any{"component": component},
	})
}

// unavailableStore stands in for the failure-log store when the database
// could not be reached.
type unavailableStore struct{ err error }

func (s unavailableStore) Create(context.Context, *domain.FailureLog) (*domain.FailureLog, error) {
	return nil, s.err
}
