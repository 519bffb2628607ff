// Package services – FailureLogService
//
// FailureLogService is the persistence collaborator behind the failure
// recorder and the failure-log HTTP endpoints. Every call is bounded by the
// configured store timeout so that a hung database cannot stall callers.
package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-failurelog-api/internal/domain"
	"github.com/tbourn/go-failurelog-api/internal/repo"
)

// FailureLogRepo defines the repository contract required by FailureLogService.
type FailureLogRepo interface {
	CreateFailureLog(ctx context.Context, db *gorm.DB, fl *domain.FailureLog) (*domain.FailureLog, error)
	ListFailureLogs(ctx context.Context, db *gorm.DB, f repo.FailureLogFilter) ([]domain.FailureLog, error)
	FailureLogStats(ctx context.Context, db *gorm.DB) (map[domain.Severity]int64, *time.Time, error)
}

// FailureLogService creates and lists failure logs.
type FailureLogService struct {
	DB   *gorm.DB
	Repo FailureLogRepo

	// Timeout bounds each store call (DB_SOCKET_TIMEOUT).
	Timeout time.Duration
}

// FailureLogStats summarizes active failure logs.
type FailureLogStats struct {
	Total    int64                     `json:"total"`
	ByType   map[domain.Severity]int64 `json:"byType"`
	LatestAt *time.Time                `json:"latestAt,omitempty"`
}

// NewFailureLogService constructs a FailureLogService.
func NewFailureLogService(db *gorm.DB, r FailureLogRepo, timeout time.Duration) *FailureLogService {
	return &FailureLogService{DB: db, Repo: r, Timeout: timeout}
}

// Create persists fl. Text fields are trimmed and an empty Type defaults to
// normal. Store failures are returned unchanged (*repo.StoreError).
func (s *FailureLogService) Create(ctx context.Context, fl *domain.FailureLog) (*domain.FailureLog, error) {
	ctx, span := otel.Tracer("services/FailureLogService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("failure.origin", string(fl.Origin)),
			attribute.String("failure.type", string(fl.Type)),
		),
	)
	defer span.End()

	fl.Message = strings.TrimSpace(fl.Message)
	fl.Path = strings.TrimSpace(fl.Path)
	if fl.Type == "" {
		fl.Type = domain.SeverityNormal
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	out, err := s.Repo.CreateFailureLog(ctx, s.DB, fl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failure log")
		return nil, err
	}
	span.SetAttributes(attribute.String("failure.id", out.ID))
	return out, nil
}

// List returns active failure logs filtered by the optional type and origin
// query values (case-insensitive).
func (s *FailureLogService) List(ctx context.Context, typ, origin string) ([]domain.FailureLog, error) {
	ctx, span := otel.Tracer("services/FailureLogService").Start(ctx, "List")
	defer span.End()

	var f repo.FailureLogFilter
	if strings.TrimSpace(typ) != "" {
		sev, ok := domain.ParseSeverity(typ)
		if !ok {
			return nil, ErrInvalidSeverity
		}
		f.Type = sev
	}
	if strings.TrimSpace(origin) != "" {
		o, ok := domain.ParseOrigin(origin)
		if !ok {
			return nil, ErrInvalidOrigin
		}
		f.Origin = o
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	out, err := s.Repo.ListFailureLogs(ctx, s.DB, f)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if out == nil {
		out = []domain.FailureLog{}
	}
	span.SetAttributes(attribute.Int("failure.count", len(out)))
	return out, nil
}

// Stats returns per-tier counts and the newest record time.
func (s *FailureLogService) Stats(ctx context.Context) (*FailureLogStats, error) {
	ctx, span := otel.Tracer("services/FailureLogService").Start(ctx, "Stats")
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	counts, latest, err := s.Repo.FailureLogStats(ctx, s.DB)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	st := &FailureLogStats{ByType: counts, LatestAt: latest}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}
