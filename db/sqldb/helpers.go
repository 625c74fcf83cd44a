package sqldb

import (
	"context"
	"fmt"
)

// Scannable is a pointer to a model that lists the scan targets of its columns, in SELECT order.
type Scannable[T any] interface {
	*T
	TargetFields() []any
}

// QueryItems scans every row of the query into a new M.
func QueryItems[M any, MP Scannable[M]](ctx context.Context, handle Handle, rawStmt string, args ...any) ([]*M, error) {
	rows, err := handle.QueryRows(ctx, rawStmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return RowsToNewItems[M, MP](rows)
}

func RowsToNewItems[M any, MP Scannable[M]](rows Rows) ([]*M, error) {
	var items []*M
	for rows.Next() {
		item := new(M)
		if err := rows.Scan(MP(item).TargetFields()...); err != nil {
			return nil, fmt.Errorf("sqldb: scan row %d: %w", len(items), err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterate rows: %w", err)
	}
	return items, nil
}

// QueryItem scans the single row of the query, or returns ErrNoRows.
func QueryItem[M any, MP Scannable[M]](ctx context.Context, handle Handle, rawStmt string, args ...any) (*M, error) {
	return RowToNewItem[M, MP](handle.QueryRow(ctx, rawStmt, args...))
}

func RowToNewItem[M any, MP Scannable[M]](row Row) (*M, error) {
	item := new(M)
	if err := row.Scan(MP(item).TargetFields()...); err != nil {
		return nil, err
	}
	return item, nil
}
