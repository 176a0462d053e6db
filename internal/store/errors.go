package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with an existing record,
// such as a duplicate slug or a category that still has articles.
var ErrConflict = errors.New("conflict")

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The unique index on slugs is the correctness backstop for the
// best-effort existence pre-checks: two concurrent writers may both pass the
// pre-check, and the loser of the race lands here.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
