package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	ierr "github.com/proxynest/proxynest/internal/errors"
)

// uniqueViolation is the postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique violation, optionally on
// one specific constraint. An empty constraint matches any.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// requireRowAffected turns a zero-row update into a not found error so
// callers cannot silently update vanished rows.
func requireRowAffected(res sql.Result, entity string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError(entity + " not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}
