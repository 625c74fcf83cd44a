// Package stdsql adapts database/sql to the sqldb interfaces for drivers that plug into it.
package stdsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zeptools/legalgram/db/sqldb"
)

// execer is what *sql.DB and *sql.Tx have in common.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type statements struct {
	e execer
}

func (s statements) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	return s.e.ExecContext(ctx, query, args...)
}

// QueryRows returns a nil interface on error, never a typed nil *sql.Rows.
func (s statements) QueryRows(ctx context.Context, query string, args ...any) (sqldb.Rows, error) {
	rows, err := s.e.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s statements) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	return row{s.e.QueryRowContext(ctx, query, args...)}
}

type Handle struct {
	*sql.DB // [Embedded]
}

var _ sqldb.Handle = (*Handle)(nil)

func (h *Handle) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	return statements{h.DB}.Exec(ctx, query, args...)
}

func (h *Handle) QueryRows(ctx context.Context, query string, args ...any) (sqldb.Rows, error) {
	return statements{h.DB}.QueryRows(ctx, query, args...)
}

func (h *Handle) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	return statements{h.DB}.QueryRow(ctx, query, args...)
}

// Listen - database/sql has no server-side notifications
func (h *Handle) Listen(_ context.Context, _ string) (<-chan sqldb.Notification, error) {
	return nil, fmt.Errorf("method `Listen`: %w", sqldb.ErrNotSupported)
}

func (h *Handle) Notify(_ context.Context, _ string, _ string) error {
	return fmt.Errorf("method `Notify`: %w", sqldb.ErrNotSupported)
}

func (h *Handle) BeginTx(ctx context.Context) (sqldb.Tx, error) {
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{statements: statements{tx}, tx: tx}, nil
}

type row struct {
	*sql.Row
}

func (r row) Scan(dest ...any) error {
	if err := r.Row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sqldb.ErrNoRows
		}
		return err
	}
	return nil
}

// Tx ignores the context on Commit and Rollback; database/sql binds it at BeginTx.
type Tx struct {
	statements
	tx *sql.Tx
}

var _ sqldb.Tx = (*Tx)(nil)

func (t *Tx) Commit(context.Context) error { return t.tx.Commit() }

func (t *Tx) Rollback(context.Context) error { return t.tx.Rollback() }
