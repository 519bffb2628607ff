package failure

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-failurelog-api/internal/domain"
)

// Symbolic paths stored for process-level failures.
const (
	PathUncaughtException  = "process.uncaughtException"
	PathUnhandledRejection = "process.unhandledRejection"
	PathStartup            = "startup"
)

// Sink is the part of Recorder used by ProcessBoundary.
type Sink interface {
	Critical(ctx context.Context, o Options) *domain.FailureLog
	Drain(ctx context.Context) error
}

// ProcessBoundary handles faults that escape every request handler. Each
// trigger logs, records a critical failure, and exits with status 1 once the
// record settles or the settle timeout elapses. Only the first trigger acts.
type ProcessBoundary struct {
	sink    Sink
	settle  time.Duration
	exit    func(int)
	signals []os.Signal
	hooks   []func(context.Context) error

	once sync.Once
}

// ProcessOption customizes a ProcessBoundary.
type ProcessOption func(*ProcessBoundary)

// WithExit replaces os.Exit.
func WithExit(fn func(int)) ProcessOption {
	return func(b *ProcessBoundary) { b.exit = fn }
}

// WithSignals replaces the shutdown signals (SIGINT, SIGTERM).
func WithSignals(sigs ...os.Signal) ProcessOption {
	return func(b *ProcessBoundary) { b.signals = sigs }
}

// WithShutdownHooks runs fns, in order, after a graceful shutdown has
// drained pending records. Hook errors are logged.
func WithShutdownHooks(fns ...func(context.Context) error) ProcessOption {
	return func(b *ProcessBoundary) { b.hooks = append(b.hooks, fns...) }
}

// NewProcessBoundary returns a boundary recording into sink. settle bounds
// the wait for the fatal record (5s when <= 0).
func NewProcessBoundary(sink Sink, settle time.Duration, opts ...ProcessOption) *ProcessBoundary {
	if settle <= 0 {
		settle = 5 * time.Second
	}
	b := &ProcessBoundary{
		sink:    sink,
		settle:  settle,
		exit:    os.Exit,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Recover must be deferred directly. A panic in the deferring goroutine is
// treated as an uncaught exception.
func (b *ProcessBoundary) Recover() {
	if p := recover(); p != nil {
		b.UncaughtException(panicError(p))
	}
}

// Go runs fn in a new goroutine. A returned error is an unhandled rejection;
// a panic is an uncaught exception.
func (b *ProcessBoundary) Go(name string, fn func() error) {
	go func() {
		defer b.Recover()
		if err := fn(); err != nil {
			b.UnhandledRejection(errors.WithMessage(err, name))
		}
	}()
}

// UncaughtException records v as a fatal synchronous fault and exits.
func (b *ProcessBoundary) UncaughtException(v any) {
	b.fatal(PathUncaughtException, "uncaught exception, shutting down", "Uncaught Exception", v, nil)
}

// UnhandledRejection records v as a fatal asynchronous fault and exits.
func (b *ProcessBoundary) UnhandledRejection(v any) {
	b.fatal(PathUnhandledRejection, "unhandled rejection, shutting down", "Unhandled Rejection", v, nil)
}

// StartupFailure records a failed startup step (e.g. database connect) and
// exits.
func (b *ProcessBoundary) StartupFailure(err error, meta map[string]any) {
	b.fatal(PathStartup, "startup failed, shutting down", "Startup Failure", err, meta)
}

// Serve runs srv until a shutdown signal or ctx cancellation, then shuts it
// down within grace, drains pending failure records, runs the shutdown hooks
// and exits 0. If the server cannot close in time it is closed forcibly and
// the process exits 1. The listener runs under Go; a listen error is a
// startup failure.
func (b *ProcessBoundary) Serve(ctx context.Context, srv *http.Server, grace time.Duration) {
	ctx, stop := signal.NotifyContext(ctx, b.signals...)
	defer stop()

	errCh := make(chan error, 1)
	b.Go("http listener", func() error {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		return nil
	})

	select {
	case err := <-errCh:
		b.StartupFailure(errors.WithStack(err), map[string]any{"addr": srv.Addr})
		return
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received, closing HTTP server")
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("Could not close connections in time, forcefully shutting down")
		_ = srv.Close()
		b.exit(1)
		return
	}
	if err := b.sink.Drain(sctx); err != nil {
		log.Warn().Err(err).Msg("pending failure records not flushed before shutdown")
	}
	for _, fn := range b.hooks {
		if err := fn(sctx); err != nil {
			log.Warn().Err(err).Msg("shutdown hook failed")
		}
	}
	log.Info().Msg("HTTP server closed")
	b.exit(0)
}

func (b *ProcessBoundary) fatal(path, diag, label string, cause any, meta map[string]any) {
	b.once.Do(func() {
		msg := label
		if cause != nil {
			msg = label + ": " + Describe(cause)
		}
		ev := log.Error().Str("path", path)
		if err, ok := cause.(error); ok {
			ev = ev.Err(err)
		} else if cause != nil {
			ev = ev.Str("cause", Describe(cause))
		}
		ev.Msg(diag)

		md := processMetadata()
		for k, v := range meta {
			md[k] = v
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			b.sink.Critical(context.Background(), Options{
				Message:  msg,
				Err:      cause,
				Path:     path,
				Metadata: md,
			})
		}()

		select {
		case <-done:
		case <-time.After(b.settle):
			log.Error().Dur("waited", b.settle).Msg("failure record did not settle, exiting anyway")
		}
		b.exit(1)
	})
}

func processMetadata() map[string]any {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return map[string]any{
		"pid":        os.Getpid(),
		"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		"goVersion":  runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]any{
			"alloc":     ms.Alloc,
			"sys":       ms.Sys,
			"heapInuse": ms.HeapInuse,
			"numGC":     ms.NumGC,
		},
	}
}

// panicError keeps error panics in the chain and captures the stack at the
// point of recovery, which still includes the panicking frames.
func panicError(p any) error {
	if err, ok := p.(error); ok {
		return errors.WithStack(err)
	}
	return errors.New(Describe(p))
}
