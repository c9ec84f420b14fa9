package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var readCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// WithTx runs fn inside a read-committed transaction. The transaction commits
// when fn returns nil and rolls back otherwise; fn's error is returned as is so
// callers can still match StoreError and shared sentinels.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	var fnErr error
	err := pgx.BeginTxFunc(ctx, pool, readCommitted, func(tx pgx.Tx) error {
		fnErr = fn(tx)
		return fnErr
	})
	switch {
	case fnErr != nil:
		return fnErr
	case err != nil:
		return fmt.Errorf("platform/db: tx: %w", err)
	}
	return nil
}
