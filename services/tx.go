package services

import (
	"context"
	"errors"

	"run-leaderboard-service/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// isSerializationFailure reports whether Postgres aborted the transaction
// because of a concurrent one, in which case running it again may succeed.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// transactWithRetry runs fn in a transaction, retrying once on a
// serialization failure. fn must be safe to run twice.
func transactWithRetry(ctx context.Context, db *gorm.DB, log *logger.Logger, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if isSerializationFailure(err) {
		log.Warn("transaction conflict, retrying", "error", err)
		err = db.WithContext(ctx).Transaction(fn)
	}
	return err
}
