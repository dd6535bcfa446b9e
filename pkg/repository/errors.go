package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// ErrConstraint reports a row rejected by a CHECK constraint, such as a
// label outside Fake/Real or a confidence outside [0, 1].
var ErrConstraint = errors.New("constraint violation")

// MapError translates driver errors into domain errors:
//
//	sql.ErrNoRows            -> notFoundErr
//	foreign key violation    -> notFoundErr (the referenced row is gone)
//	unique violation         -> duplicateErr
//	check violation          -> ErrConstraint, naming the constraint
//
// Anything else is returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return duplicateErr
	case pgForeignKeyViolation:
		return notFoundErr
	case pgCheckViolation:
		return fmt.Errorf("%w: %s", ErrConstraint, pgErr.ConstraintName)
	}
	return err
}
