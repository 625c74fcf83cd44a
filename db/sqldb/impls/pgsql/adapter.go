package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zeptools/legalgram/db/sqldb"
)

// querier is the statement surface shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// statements adapts a querier to the sqldb result types.
type statements struct {
	q querier
}

func (s statements) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return result(tag), nil
}

func (s statements) QueryRows(ctx context.Context, query string, args ...any) (sqldb.Rows, error) {
	rs, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows{rs}, nil
}

func (s statements) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	return row{s.q.QueryRow(ctx, query, args...)}
}

type Tx struct {
	statements
	tx pgx.Tx
}

var _ sqldb.Tx = (*Tx)(nil)

func newTx(tx pgx.Tx) *Tx {
	return &Tx{statements: statements{tx}, tx: tx}
}

func (t *Tx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback after a successful Commit returns pgx.ErrTxClosed.
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

type rows struct {
	pgx.Rows
}

func (r rows) Close() error {
	r.Rows.Close()
	return nil
}

type row struct {
	pgx.Row
}

func (r row) Scan(dest ...any) error {
	if err := r.Row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sqldb.ErrNoRows
		}
		return err
	}
	return nil
}

type result pgconn.CommandTag

func (r result) RowsAffected() (int64, error) {
	return pgconn.CommandTag(r).RowsAffected(), nil
}
