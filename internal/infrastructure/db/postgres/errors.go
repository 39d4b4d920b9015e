package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsPgUniqueViolation reports a unique constraint failure and the constraint name.
func IsPgUniqueViolation(err error) (bool, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true, pgErr.ConstraintName
	}
	return false, ""
}
