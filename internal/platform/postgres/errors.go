package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"notewise/internal/store"
)

// PostgreSQL error codes.
const (
	uniqueViolationCode  = "23505"
	notNullViolationCode = "23502"
)

// MapError maps a driver error to the store's error vocabulary, keeping
// the original wrapped for debugging.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("duplicate record (%s): %w", pgErr.ConstraintName, err)
		case notNullViolationCode:
			return fmt.Errorf("missing required column (%s): %w", pgErr.ColumnName, err)
		}
	}

	return err
}

// IsNotFoundError reports whether err represents a missing record,
// either sql.ErrNoRows or anything wrapping store.ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound)
}
