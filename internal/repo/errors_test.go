package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})
	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}
	return gdb, mock
}

func TestPostgres_UniqueViolationBecomesConflict(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "failure_logs" WHERE is_active = \$1`).
		WillReturnError(&pgconn.PgError{
			Code:   "23505",
			Detail: "Key (name)=(Mug) already exists.",
		})

	_, err := ListFailureLogs(context.Background(), db, FailureLogFilter{})
	se, ok := AsStoreError(err)
	if !ok || se.Kind != KindConflict {
		t.Fatalf("expected conflict, got %T %v", err, err)
	}
	if se.Field != "name" || se.Value != "Mug" {
		t.Fatalf("unexpected key detail: field=%q value=%q", se.Field, se.Value)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgres_InvalidTextBecomesCastMismatch(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "products"`).
		WillReturnError(&pgconn.PgError{Code: "22P02", ColumnName: "price"})

	_, err := ListProducts(context.Background(), db, ProductFilter{IncludeNotOnSale: true})
	if !IsKind(err, KindCastMismatch) {
		t.Fatalf("expected cast mismatch, got %v", err)
	}
}

func TestPostgres_ConnectivityIsOther(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("connection refused")
	mock.ExpectQuery(`SELECT \* FROM "products"`).WillReturnError(boom)

	_, err := ListProducts(context.Background(), db, ProductFilter{})
	se, ok := AsStoreError(err)
	if !ok || se.Kind != KindOther || !errors.Is(err, boom) {
		t.Fatalf("expected KindOther wrapping cause, got %v", err)
	}
	if se.Name() != "StoreError" {
		t.Fatalf("Name() = %q", se.Name())
	}
}

func TestTranslate_PassThroughAndGormSentinels(t *testing.T) {
	if translate("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	if !errors.Is(translate("op", gorm.ErrRecordNotFound), ErrNotFound) {
		t.Fatalf("not found must pass through")
	}
	if !IsKind(translate("op", gorm.ErrDuplicatedKey), KindConflict) {
		t.Fatalf("ErrDuplicatedKey must map to conflict")
	}
	se := &StoreError{Kind: KindValidation, Op: "x"}
	if translate("op", se) != error(se) {
		t.Fatalf("existing StoreError must be returned as-is")
	}
}

func TestStoreError_ErrorStrings(t *testing.T) {
	v := &StoreError{Kind: KindValidation, Op: "products.create", Fields: []FieldViolation{
		{Field: "name", Message: "A"}, {Field: "price", Message: "B"},
	}}
	if v.Error() != "products.create: validation failed: A. B" || v.Name() != "ValidationError" {
		t.Fatalf("validation: %q %q", v.Error(), v.Name())
	}
	c := &StoreError{Kind: KindConflict, Op: "op", Field: "id", Value: "1"}
	if c.Error() != `op: duplicate id "1"` || c.Name() != "ConflictError" {
		t.Fatalf("conflict: %q %q", c.Error(), c.Name())
	}
	if KindCastMismatch.String() != "cast_mismatch" || Kind(99).String() != "other" {
		t.Fatalf("Kind.String mismatch")
	}
}
