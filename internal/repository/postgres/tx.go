package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventbooking/internal/domain"

	"github.com/lib/pq"
)

// Postgres error codes the repositories translate.
const (
	codeUniqueViolation      = "23505"
	codeInvalidTextRepr      = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// withTx runs fn inside a transaction. The transaction is rolled back when fn
// fails or ctx is cancelled, and committed otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(fmt.Errorf("begin tx: %w", err))
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return translateErr(err)
	}
	if err := tx.Commit(); err != nil {
		return translateErr(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// translateErr maps driver errors onto domain sentinels. Contention becomes
// ErrRetryable and a malformed uuid becomes ErrNotFound.
func translateErr(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", domain.ErrRetryable, pqErr.Message)
	case codeInvalidTextRepr:
		return domain.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

// limitArg converts a page size into a LIMIT argument; nil means LIMIT ALL.
func limitArg(params domain.PaginationParams) any {
	if params.Limit() == 0 {
		return nil
	}
	return params.Limit()
}
