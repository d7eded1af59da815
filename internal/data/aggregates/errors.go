package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
)

// taggedError carries a code chosen inside a write body. Its text is meant
// for clients.
type taggedError struct {
	code domainagg.ErrorCode
	msg  string
}

func (e *taggedError) Error() string { return e.msg }

func tagged(code domainagg.ErrorCode, msg string) error {
	return &taggedError{code: code, msg: strings.TrimSpace(msg)}
}

func ValidationError(msg string) error { return tagged(domainagg.CodeValidation, msg) }
func ConflictError(msg string) error   { return tagged(domainagg.CodeConflict, msg) }
func OwnershipError(msg string) error  { return tagged(domainagg.CodeOwnership, msg) }
func TransientError(msg string) error  { return tagged(domainagg.CodeTransient, msg) }

// Postgres SQLSTATEs for lock and cancellation failures, plus unique_violation,
// which means a concurrent writer got there first.
var pgCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,
	"40001": domainagg.CodeTransient,
	"40P01": domainagg.CodeTransient,
	"55P03": domainagg.CodeTransient,
	"57014": domainagg.CodeTransient,
}

// Fallback for drivers whose errors arrive as plain text.
var messageCodes = []struct {
	needle string
	code   domainagg.ErrorCode
}{
	{"duplicate key", domainagg.CodeConflict},
	{"unique constraint failed", domainagg.CodeConflict},
	{"deadlock", domainagg.CodeTransient},
	{"serialization", domainagg.CodeTransient},
	{"database is locked", domainagg.CodeTransient},
	{"timeout", domainagg.CodeTransient},
}

// MapError turns any failure from a write body or its transaction into an
// *aggregates.Error. Errors that already carry a code pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	var t *taggedError
	if errors.As(err, &t) {
		return domainagg.NewError(t.code, op, t.msg, nil)
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.CodeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.CodeTransient
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[pgErr.Code]; ok {
			return code
		}
		return domainagg.CodeInternal
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch {
		case liteErr.Code == sqlite3.ErrBusy, liteErr.Code == sqlite3.ErrLocked:
			return domainagg.CodeTransient
		case liteErr.ExtendedCode == sqlite3.ErrConstraintUnique, liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return domainagg.CodeConflict
		}
		return domainagg.CodeInternal
	}

	msg := strings.ToLower(err.Error())
	for _, m := range messageCodes {
		if strings.Contains(msg, m.needle) {
			return m.code
		}
	}
	return domainagg.CodeInternal
}
