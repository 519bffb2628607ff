package failure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-failurelog-api/internal/domain"
	"github.com/tbourn/go-failurelog-api/internal/repo"
	"github.com/tbourn/go-failurelog-api/internal/services"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   []*domain.FailureLog
	err     error
	panicV  any
	block   bool
	sawDead bool
}

func (f *fakeStore) Create(ctx context.Context, fl *domain.FailureLog) (*domain.FailureLog, error) {
	if f.panicV != nil {
		panic(f.panicV)
	}
	if f.block {
		_, dl := ctx.Deadline()
		f.mu.Lock()
		f.sawDead = dl
		f.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *fl
	cp.ID = uuid.NewString()
	f.saved = append(f.saved, &cp)
	return &cp, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakePublisher struct {
	mu  sync.Mutex
	got []*domain.FailureLog
	err error
}

func (p *fakePublisher) Publish(_ context.Context, fl *domain.FailureLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, fl)
	return p.err
}

// syncBuffer lets background goroutines log while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	prev := log.Logger
	log.Logger = zerolog.New(buf)
	t.Cleanup(func() { log.Logger = prev })
	return buf
}

var fixedNow = time.Date(2025, 6, 1, 12, 30, 45, 123_000_000, time.UTC)

func TestRecord_BuildsRecordWithDefaultsAndMetadata(t *testing.T) {
	st := &fakeStore{}
	rec := NewRecorder(st, "production", time.Second, WithClock(func() time.Time { return fixedNow }))

	out := rec.Record(context.Background(), Options{
		Err:      errors.New("db exploded"),
		Status:   503,
		Metadata: map[string]any{"requestId": "r1", "timestamp": "caller"},
	})
	require.NotNil(t, out)
	assert.Equal(t, "db exploded", out.Message)
	assert.Equal(t, domain.SeverityCritical, out.Type)
	assert.Equal(t, domain.OriginBackend, out.Origin)
	assert.Equal(t, "unknown", out.Path)
	assert.Equal(t, "r1", out.Metadata["requestId"])
	assert.Equal(t, "2025-06-01T12:30:45.123Z", out.Metadata["timestamp"])
	assert.Equal(t, "production", out.Metadata["environment"])
	assert.Nil(t, out.UserInfo)

	var tr ErrorTrace
	require.NoError(t, json.Unmarshal(out.Trace, &tr))
	assert.Equal(t, "db exploded", tr.Message)
}

func TestRecord_ExplicitFieldsAndTruncation(t *testing.T) {
	st := &fakeStore{}
	rec := NewRecorder(st, "development", time.Second)

	long := strings.Repeat("ж", MaxMessageRunes+50)
	out := rec.Record(context.Background(), Options{
		Message:  long,
		Err:      "raw trace",
		Path:     "/api/products",
		Status:   404,
		Origin:   domain.OriginFrontend,
		UserInfo: map[string]any{"email": "a@b.c"},
	})
	require.NotNil(t, out)
	assert.Equal(t, MaxMessageRunes, len([]rune(out.Message)))
	assert.Equal(t, domain.SeverityNormal, out.Type)
	assert.Equal(t, domain.OriginFrontend, out.Origin)
	assert.Equal(t, "/api/products", out.Path)
	assert.Equal(t, `"raw trace"`, string(out.Trace))
	assert.Equal(t, "a@b.c", out.UserInfo["email"])
}

func TestRecord_NoErrorObject(t *testing.T) {
	rec := NewRecorder(&fakeStore{}, "test", time.Second)
	out := rec.Record(context.Background(), Options{})
	require.NotNil(t, out)
	assert.Equal(t, "Unknown error", out.Message)
	assert.Equal(t, domain.SeverityCritical, out.Type)
	assert.Equal(t, `"No error object provided"`, string(out.Trace))
}

func TestRecord_CyclicErrorValueIsStored(t *testing.T) {
	st := &fakeStore{}
	rec := NewRecorder(st, "test", 0)

	m := map[string]any{"a": 1}
	m["self"] = m
	out := rec.Record(context.Background(), Options{Message: "cyclic", Err: m})

	require.NotNil(t, out)
	assert.Equal(t, 1, st.count())
	assert.Equal(t, "cyclic", out.Message)
	var trace string
	require.NoError(t, json.Unmarshal(out.Trace, &trace))
	assert.Contains(t, trace, "map[string]interface {}")
	assert.Contains(t, trace, "encountered a cycle")
}

func TestRecord_SeverityWrappers(t *testing.T) {
	rec := NewRecorder(&fakeStore{}, "test", time.Second)
	ctx := context.Background()
	assert.Equal(t, domain.SeverityCritical, rec.Critical(ctx, Options{Status: 400}).Type)
	assert.Equal(t, domain.SeverityWarning, rec.Warning(ctx, Options{Status: 500}).Type)
	assert.Equal(t, domain.SeverityInfo, rec.Info(ctx, Options{}).Type)
}

func TestRecord_StoreFailureReturnsNilAndLogs(t *testing.T) {
	buf := captureLogs(t)
	rec := NewRecorder(&fakeStore{err: errors.New("store unavailable")}, "test", time.Second)

	before := testutil.ToFloat64(recordsTotal.WithLabelValues("critical", "failed"))
	out := rec.Record(context.Background(), Options{Message: "m", Path: "/x"})
	assert.Nil(t, out)
	assert.Equal(t, before+1, testutil.ToFloat64(recordsTotal.WithLabelValues("critical", "failed")))
	assert.Contains(t, buf.String(), "failed to record failure log")
	assert.Contains(t, buf.String(), "store unavailable")
}

func TestRecord_StorePanicIsContained(t *testing.T) {
	buf := captureLogs(t)
	rec := NewRecorder(&fakeStore{panicV: "kaboom"}, "test", time.Second)

	var out *domain.FailureLog
	assert.NotPanics(t, func() {
		out = rec.Record(context.Background(), Options{Message: "m"})
	})
	assert.Nil(t, out)
	assert.Contains(t, buf.String(), "failure recorder panicked")
}

func TestRecord_BoundedByTimeout(t *testing.T) {
	captureLogs(t)
	st := &fakeStore{block: true}
	rec := NewRecorder(st, "test", 30*time.Millisecond)

	start := time.Now()
	assert.Nil(t, rec.Record(context.Background(), Options{Message: "m"}))
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, st.sawDead)
}

func TestRecord_IdenticalFailuresAreDistinct(t *testing.T) {
	st := &fakeStore{}
	rec := NewRecorder(st, "test", time.Second)
	o := Options{Message: "same", Err: "same", Path: "/same"}
	a := rec.Record(context.Background(), o)
	b := rec.Record(context.Background(), o)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, st.count())
}

func TestRecord_PublishesOnlyCritical(t *testing.T) {
	buf := captureLogs(t)
	pub := &fakePublisher{err: fmt.Errorf("broker down")}
	rec := NewRecorder(&fakeStore{}, "test", time.Second, WithAlerts(pub))

	require.NotNil(t, rec.Critical(context.Background(), Options{Message: "c"}))
	require.NotNil(t, rec.Info(context.Background(), Options{Message: "i"}))

	require.Len(t, pub.got, 1)
	assert.Equal(t, "c", pub.got[0].Message)
	assert.Contains(t, buf.String(), "failed to publish failure alert")
}

func TestRecordAsync_DetachedFromCancellationAndDrain(t *testing.T) {
	st := &fakeStore{}
	rec := NewRecorder(st, "test", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		rec.RecordAsync(ctx, Options{Message: "async"})
	}
	cancel()

	dctx, dcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer dcancel()
	require.NoError(t, rec.Drain(dctx))
	assert.Equal(t, 5, st.count())
}

func TestDrain_TimesOut(t *testing.T) {
	captureLogs(t)
	rec := NewRecorder(&fakeStore{block: true}, "test", time.Second)
	rec.RecordAsync(context.Background(), Options{Message: "slow"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rec.Drain(ctx), context.DeadlineExceeded)
	_ = rec.Drain(context.Background())
}

func TestRecorder_WithFailureLogService(t *testing.T) {
	dsn := fmt.Sprintf("file:recorder_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))

	svc := services.NewFailureLogService(db, storeShim{}, time.Second)
	rec := NewRecorder(svc, "test", time.Second)

	out := rec.Critical(context.Background(), Options{
		Err:      errors.New("startup"),
		Path:     PathStartup,
		Metadata: map[string]any{"pid": 1},
	})
	require.NotNil(t, out)

	var got domain.FailureLog
	require.NoError(t, db.First(&got, "id = ?", out.ID).Error)
	assert.Equal(t, PathStartup, got.Path)
	assert.Equal(t, domain.SeverityCritical, got.Type)
	assert.Equal(t, "test", got.Metadata["environment"])
}

type storeShim struct{}

func (storeShim) CreateFailureLog(ctx context.Context, db *gorm.DB, fl *domain.FailureLog) (*domain.FailureLog, error) {
	return repo.CreateFailureLog(ctx, db, fl)
}
func (storeShim) ListFailureLogs(ctx context.Context, db *gorm.DB, f repo.FailureLogFilter) ([]domain.FailureLog, error) {
	return repo.ListFailureLogs(ctx, db, f)
}
func (storeShim) FailureLogStats(ctx context.Context, db *gorm.DB) (map[domain.Severity]int64, *time.Time, error) {
	return repo.FailureLogStats(ctx, db)
}
