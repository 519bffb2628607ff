package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-failurelog-api/internal/domain"
)

// FailureLogFilter narrows ListFailureLogs. Zero values match everything.
type FailureLogFilter struct {
	Type   domain.Severity
	Origin domain.Origin
}

// CreateFailureLog validates and inserts a new failure log. An empty ID is
// replaced with a UUID; the row is always created active.
//
// There is deliberately no update function for failure logs.
func CreateFailureLog(ctx context.Context, db *gorm.DB, fl *domain.FailureLog) (*domain.FailureLog, error) {
	const op = "failure_logs.create"
	if fl.ID == "" {
		fl.ID = uuid.NewString()
	}
	fl.IsActive = true
	if err := validateModel(op, fl); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(fl).Error; err != nil {
		return nil, translate(op, err)
	}
	return fl, nil
}

// ListFailureLogs returns active failure logs, newest first.
func ListFailureLogs(ctx context.Context, db *gorm.DB, f FailureLogFilter) ([]domain.FailureLog, error) {
	q := db.WithContext(ctx).Where("is_active = ?", true)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Origin != "" {
		q = q.Where("origin = ?", f.Origin)
	}
	var out []domain.FailureLog
	if err := q.Order("created_at desc").Find(&out).Error; err != nil {
		return nil, translate("failure_logs.list", err)
	}
	return out, nil
}

// FailureLogStats aggregates active failure logs per severity tier and
// reports the newest CreatedAt. latest is nil when there are no rows.
func FailureLogStats(ctx context.Context, db *gorm.DB) (counts map[domain.Severity]int64, latest *time.Time, err error) {
	const op = "failure_logs.stats"
	q := db.WithContext(ctx).Model(&domain.FailureLog{}).Where("is_active = ?", true)

	var rows []struct {
		Type  domain.Severity
		Total int64
	}
	if err = q.Session(&gorm.Session{}).Select("type, count(*) as total").Group("type").Scan(&rows).Error; err != nil {
		return nil, nil, translate(op, err)
	}
	counts = make(map[domain.Severity]int64, len(rows))
	var total int64
	for _, r := range rows {
		counts[r.Type] = r.Total
		total += r.Total
	}
	if total == 0 {
		return counts, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return nil, nil, translate(op, err)
	}
	return counts, &row.CreatedAt, nil
}
