package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-failurelog-api/internal/domain"
	"github.com/tbourn/go-failurelog-api/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// repoShim forwards to the repo package free functions.
type repoShim struct{}

func (repoShim) CreateFailureLog(ctx context.Context, db *gorm.DB, fl *domain.FailureLog) (*domain.FailureLog, error) {
	return repo.CreateFailureLog(ctx, db, fl)
}
func (repoShim) ListFailureLogs(ctx context.Context, db *gorm.DB, f repo.FailureLogFilter) ([]domain.FailureLog, error) {
	return repo.ListFailureLogs(ctx, db, f)
}
func (repoShim) FailureLogStats(ctx context.Context, db *gorm.DB) (map[domain.Severity]int64, *time.Time, error) {
	return repo.FailureLogStats(ctx, db)
}
func (repoShim) CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) (*domain.Product, error) {
	return repo.CreateProduct(ctx, db, p)
}
func (repoShim) ListProducts(ctx context.Context, db *gorm.DB, f repo.ProductFilter) ([]domain.Product, error) {
	return repo.ListProducts(ctx, db, f)
}
func (repoShim) GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	return repo.GetProduct(ctx, db, id)
}

// blockingRepo waits for the deadline and reports it.
type blockingRepo struct {
	repoShim
	sawDeadline bool
}

func (b *blockingRepo) CreateFailureLog(ctx context.Context, _ *gorm.DB, _ *domain.FailureLog) (*domain.FailureLog, error) {
	_, b.sawDeadline = ctx.Deadline()
	<-ctx.Done()
	return nil, ctx.Err()
}
