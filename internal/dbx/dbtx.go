// Package dbx holds the few database/sql helpers shared by repositories:
// the DBTX handle satisfied by both *sql.DB and *sql.Tx, transaction runners,
// and driver-independent classification of constraint errors.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authservice/internal/common"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InTx runs fn inside a transaction and returns its result.
//
// The transaction commits when fn succeeds. Otherwise it is rolled back and
// a failed rollback is joined to fn's error. A unique violation raised by fn
// or by the commit matches common.ErrorAlreadyExists. Panics roll back and
// are re-raised.
//
//	user, err := dbx.InTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
//	    return users.NewSQLRepository(tx).Create(ctx, u)
//	})
func InTx[T any](ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return zero, fmt.Errorf("begin tx: %w", err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	res, err := fn(ctx, tx)
	if err != nil {
		done = true
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return zero, classify(err)
	}

	done = true
	if err := tx.Commit(); err != nil {
		return zero, classify(fmt.Errorf("commit: %w", err))
	}
	return res, nil
}

// WithTx is InTx for callbacks without a result.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	_, err := InTx(ctx, db, opts, func(ctx context.Context, tx DBTX) (struct{}, error) {
		return struct{}{}, fn(ctx, tx)
	})
	return err
}

func classify(err error) error {
	if IsUniqueViolation(err) && !errors.Is(err, common.ErrorAlreadyExists) {
		return fmt.Errorf("%w: %w", common.ErrorAlreadyExists, err)
	}
	return err
}
