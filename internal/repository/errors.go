package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced by repositories. Services translate these into
// caller-facing errors.
var (
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate row")

	// ErrActiveSessionExists indicates the partial unique index on
	// in-progress sessions rejected a concurrent start.
	ErrActiveSessionExists = errors.New("an in-progress session already exists for this assignment")

	// ErrAnswerLocked indicates the answer row has is_final = true.
	ErrAnswerLocked = errors.New("answer is finalized")
)

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
