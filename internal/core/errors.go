package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Every error returned by a core service matches exactly one of
// these through errors.Is, so callers can branch without parsing messages.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrStorage           = errors.New("storage error")
)

// Specific category tree failures. Both carry the validation kind.
var (
	ErrSelfParent    = errors.New("category cannot be its own parent")
	ErrCycleDetected = errors.New("category move would create a cycle")
)

// Error is a classified core failure.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func notFoundf(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func transitionf(format string, args ...any) error {
	return newError(ErrInvalidTransition, format, args...)
}

func insufficientStockf(format string, args ...any) error {
	return newError(ErrInsufficientStock, format, args...)
}

func conflictf(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// storageErr classifies a persistence failure. Errors that already carry a kind
// are wrapped with msg and keep it; PostgreSQL constraint violations map onto the
// matching kind; everything else is a storage error.
func storageErr(msg string, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return fmt.Errorf("%s: %w", msg, err)
	}

	kind := ErrStorage
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			kind = ErrConflict
		case "23503": // foreign_key_violation
			kind = ErrNotFound
		case "23514", "23502", "22P02", "22003": // check, not null, invalid text, out of range
			kind = ErrValidation
		}
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Codes returned by KindOf.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeConflict          = "CONFLICT"
	CodeStorage           = "STORAGE_ERROR"
)

// KindOf returns the stable code for err's kind. Unclassified errors are
// reported as storage errors.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, ErrConflict):
		return CodeConflict
	default:
		return CodeStorage
	}
}
