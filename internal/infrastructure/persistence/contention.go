package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/matflow/backend/internal/domain/shared"
)

// PostgreSQL SQLSTATEs raised when concurrent stock movements collide on the
// same material rows
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// IsLockContention reports whether err is a PostgreSQL error caused by
// competing transactions rather than by the statement itself
func IsLockContention(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return true
	}
	return false
}

// classifyTxError turns lock contention into a concurrency conflict so the
// caller's retry loop runs the whole unit again
func classifyTxError(err error) error {
	if err == nil || !IsLockContention(err) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrConcurrencyConflict, err)
}
