package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("store: user not found")
	// ErrDuplicateEmail is returned when an insert trips the unique email constraint.
	ErrDuplicateEmail = errors.New("store: email already exists")
)

// pgUniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgUniqueViolation
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
