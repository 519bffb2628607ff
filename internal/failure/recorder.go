package failure

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/tbourn/go-failurelog-api/internal/domain"
)

// MaxMessageRunes bounds FailureLog.Message.
const MaxMessageRunes = 1000

// recordsTotal counts recording attempts by severity and outcome
// (saved|failed|panic).
var recordsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "failure_records_total",
		Help: "Failure log recording attempts by severity and outcome.",
	},
	[]string{"type", "outcome"},
)

func init() {
	prometheus.MustRegister(recordsTotal)
}

// Store persists failure logs.
type Store interface {
	Create(ctx context.Context, fl *domain.FailureLog) (*domain.FailureLog, error)
}

// Publisher receives saved critical records. Errors are logged and dropped.
type Publisher interface {
	Publish(ctx context.Context, fl *domain.FailureLog) error
}

// Options describes one failure to record. Zero values mean:
//
//   - Message "": the error's text, else "Unknown error"
//   - Severity "": Classify(Err, Status)
//   - Path "": "unknown"
//   - Origin "": BE
type Options struct {
	Message  string
	Err      any
	Path     string
	Severity domain.Severity
	Status   int
	Origin   domain.Origin
	UserInfo map[string]any
	Metadata map[string]any
}

// Recorder builds failure logs and writes them to a Store. It never returns
// an error and never panics; a failed write is logged locally and dropped.
type Recorder struct {
	store   Store
	env     string
	timeout time.Duration
	alerts  Publisher
	now     func() time.Time

	wg sync.WaitGroup
}

// RecorderOption customizes a Recorder.
type RecorderOption func(*Recorder)

// WithAlerts publishes saved critical records to p.
func WithAlerts(p Publisher) RecorderOption {
	return func(r *Recorder) { r.alerts = p }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder returns a Recorder writing to store. env is stamped into every
// record's metadata; timeout bounds each write (5s when <= 0).
func NewRecorder(store Store, env string, timeout time.Duration, opts ...RecorderOption) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	r := &Recorder{
		store:   store,
		env:     env,
		timeout: timeout,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Environment returns the label stamped into metadata.
func (r *Recorder) Environment() string { return r.env }

// Record persists one failure log and returns it, or nil when persistence
// failed for any reason.
func (r *Recorder) Record(ctx context.Context, o Options) (saved *domain.FailureLog) {
	if ctx == nil {
		ctx = context.Background()
	}
	sev := string(domain.SeverityCritical)
	path := o.Path

	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Str("path", path).
				Str("type", sev).
				Str("panic", Describe(p)).
				Msg("failure recorder panicked")
			recordsTotal.WithLabelValues(sev, "panic").Inc()
			saved = nil
		}
	}()

	fl := r.build(o)
	sev, path = string(fl.Type), fl.Path

	wctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.store.Create(wctx, fl)
	if err != nil || out == nil {
		log.Error().
			Err(err).
			Str("path", fl.Path).
			Str("type", sev).
			Str("failure_message", fl.Message).
			Msg("failed to record failure log")
		recordsTotal.WithLabelValues(sev, "failed").Inc()
		return nil
	}
	recordsTotal.WithLabelValues(sev, "saved").Inc()

	if out.Type == domain.SeverityCritical && r.alerts != nil {
		r.publish(ctx, out)
	}
	return out
}

// Critical records o with severity critical.
func (r *Recorder) Critical(ctx context.Context, o Options) *domain.FailureLog {
	o.Severity = domain.SeverityCritical
	return r.Record(ctx, o)
}

// Warning records o with severity warning.
func (r *Recorder) Warning(ctx context.Context, o Options) *domain.FailureLog {
	o.Severity = domain.SeverityWarning
	return r.Record(ctx, o)
}

// Info records o with severity info.
func (r *Recorder) Info(ctx context.Context, o Options) *domain.FailureLog {
	o.Severity = domain.SeverityInfo
	return r.Record(ctx, o)
}

// RecordAsync records o in the background. The write is detached from ctx
// cancellation so that a finished request does not abort it.
func (r *Recorder) RecordAsync(ctx context.Context, o Options) {
	if ctx == nil {
		ctx = context.Background()
	}
	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Record(detached, o)
	}()
}

// Drain waits for in-flight RecordAsync calls or until ctx is done.
func (r *Recorder) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) build(o Options) *domain.FailureLog {
	var asErr error
	if e, ok := o.Err.(error); ok && !isNil(e) {
		asErr = e
	}

	msg := o.Message
	if msg == "" {
		if asErr != nil {
			msg = asErr.Error()
		} else {
			msg = "Unknown error"
		}
	}

	sev := o.Severity
	if !sev.Valid() {
		sev = Classify(asErr, o.Status)
	}
	origin := o.Origin
	if !origin.Valid() {
		origin = domain.OriginBackend
	}
	path := o.Path
	if path == "" {
		path = "unknown"
	}

	meta := make(datatypes.JSONMap, len(o.Metadata)+2)
	for k, v := range o.Metadata {
		meta[k] = v
	}
	meta["timestamp"] = r.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	meta["environment"] = r.env

	var user datatypes.JSONMap
	if len(o.UserInfo) > 0 {
		user = datatypes.JSONMap(o.UserInfo)
	}

	return &domain.FailureLog{
		Message:  truncateRunes(msg, MaxMessageRunes),
		Origin:   origin,
		Trace:    NormalizeTrace(o.Err),
		Path:     path,
		Type:     sev,
		UserInfo: user,
		Metadata: meta,
	}
}

func (r *Recorder) publish(ctx context.Context, fl *domain.FailureLog) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.alerts.Publish(pctx, fl); err != nil {
		log.Warn().Err(err).Str("failure_id", fl.ID).Msg("failed to publish failure alert")
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
