package db

import (
	"errors"

	"github.com/lib/pq"
)

// ErrUniqueViolation is the storage-agnostic conflict signal. Services match
// on it (or on the underlying pq code) instead of inspecting error text.
var ErrUniqueViolation = errors.New("unique violation")

const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether err was caused by a duplicate value in a
// column with a uniqueness constraint.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrUniqueViolation) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
