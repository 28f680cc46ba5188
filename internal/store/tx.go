package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// withTx runs fn inside a transaction, committing on success.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// requireAffected turns a guarded update that matched nothing into ErrStateChanged.
func requireAffected(op string, result sql.Result, err error) error {
	if err != nil {
		return wrap(op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if affected == 0 {
		return ErrStateChanged
	}
	return nil
}
