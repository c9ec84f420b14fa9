package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/etalasekita/etalase/internal/shared"
)

// Postgres SQLSTATE codes inspected by callers.
const (
	CodeForeignKeyViolation = "23503"
	CodeUniqueViolation     = "23505"
	CodeCheckViolation      = "23514"
)

// StoreError reports a failure returned by the remote data service.
// Its Message is safe to surface verbatim to API clients.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Message()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Message returns the store's own error text.
func (e *StoreError) Message() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Message
	}
	if e.Err == nil {
		return "remote store failure"
	}
	return e.Err.Error()
}

// Code returns the SQLSTATE of the wrapped error, if any.
func (e *StoreError) Code() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Wrap classifies err. No rows becomes shared.ErrNotFound; anything else is a StoreError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, shared.ErrNotFound) {
		return shared.ErrNotFound
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// HasCode reports whether err carries the given SQLSTATE.
func HasCode(err error, code string) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code() == code
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
