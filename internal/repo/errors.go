package repo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// Kind tags the persistence failures the HTTP layer knows how to reclassify.
type Kind int

const (
	KindOther Kind = iota
	KindValidation
	KindConflict
	KindCastMismatch
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindCastMismatch:
		return "cast_mismatch"
	default:
		return "other"
	}
}

// FieldViolation is one failed field constraint.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StoreError is the single error type returned by repository functions for
// anything other than ErrNotFound.
//
//   - KindValidation: Fields lists every violation, in model field order.
//   - KindConflict: Field/Value name the duplicated key when the driver reports it.
//   - KindCastMismatch: Field/Value name the malformed identifier.
//   - KindOther: connectivity, timeouts and anything unrecognized; see Err.
type StoreError struct {
	Kind   Kind
	Op     string
	Fields []FieldViolation
	Field  string
	Value  string
	Err    error
}

func (e *StoreError) Error() string {
	switch e.Kind {
	case KindValidation:
		return fmt.Sprintf("%s: validation failed: %s", e.Op, strings.Join(e.Messages(), ". "))
	case KindConflict:
		return fmt.Sprintf("%s: duplicate %s %q", e.Op, e.Field, e.Value)
	case KindCastMismatch:
		return fmt.Sprintf("%s: cannot cast %q to %s", e.Op, e.Value, e.Field)
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": store error"
}

func (e *StoreError) Unwrap() error { return e.Err }

// Name reports the error kind in diagnostics and traces.
func (e *StoreError) Name() string {
	switch e.Kind {
	case KindValidation:
		return "ValidationError"
	case KindConflict:
		return "ConflictError"
	case KindCastMismatch:
		return "CastError"
	default:
		return "StoreError"
	}
}

// Messages returns the violation messages in order.
func (e *StoreError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Message)
	}
	return out
}

// AsStoreError unwraps err to a *StoreError.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsKind reports whether err is a StoreError of kind k.
func IsKind(err error, k Kind) bool {
	se, ok := AsStoreError(err)
	return ok && se.Kind == k
}

var (
	pgKeyDetailRe     = regexp.MustCompile(`Key \(([^)]+)\)=\((.*)\) already exists`)
	sqliteUniqueRe    = regexp.MustCompile(`(?i)unique constraint failed: [\w]+\.([\w]+)`)
	pgUniqueViolation = "23505"
	pgInvalidText     = "22P02"
)

// translate maps driver errors onto StoreError. ErrNotFound and nil pass
// through untouched.
func translate(op string, err error) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, ok := AsStoreError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			se := &StoreError{Kind: KindConflict, Op: op, Err: err}
			if m := pgKeyDetailRe.FindStringSubmatch(pgErr.Detail); m != nil {
				se.Field, se.Value = m[1], m[2]
			}
			return se
		case pgInvalidText:
			return &StoreError{Kind: KindCastMismatch, Op: op, Field: pgErr.ColumnName, Err: err}
		}
		return &StoreError{Kind: KindOther, Op: op, Err: err}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &StoreError{Kind: KindConflict, Op: op, Err: err}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		se := &StoreError{Kind: KindConflict, Op: op, Err: err}
		if m := sqliteUniqueRe.FindStringSubmatch(err.Error()); m != nil {
			se.Field = m[1]
		}
		return se
	}
	return &StoreError{Kind: KindOther, Op: op, Err: err}
}
