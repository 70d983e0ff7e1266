package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no transaction matches the lookup key.
var ErrNotFound = errors.New("transaction not found")

// ErrInvalidFilter is returned when a filter value cannot form a predicate,
// e.g. a status outside the known lifecycle states.
var ErrInvalidFilter = errors.New("invalid filter")

// ErrInvalidPagination is returned when limit or offset falls outside the
// accepted window. The query is rejected before storage is touched.
var ErrInvalidPagination = errors.New("invalid pagination")

// ErrStorageUnavailable is returned when the database cannot be reached or
// refuses work. Callers may retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrInvariantViolation is returned when the store observes a state its own
// construction rules should have made impossible. The wrapped detail is for
// logs, not for clients.
var ErrInvariantViolation = errors.New("storage invariant violation")

// classifyPgErr sorts a low-level pgx error into one of the sentinel
// categories. op names the failing operation for log context.
func classifyPgErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrInvariantViolation) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			strings.HasPrefix(pgErr.Code, "57"): // shutdown / operator intervention
			return fmt.Errorf("%w: %s: %s", ErrStorageUnavailable, op, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "42"): // undefined column, broken SQL
			return fmt.Errorf("%w: %s: %s", ErrInvariantViolation, op, pgErr.Message)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	// pgconn reports dial and socket failures as plain errors.
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
