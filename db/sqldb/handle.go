package sqldb

import "context"

// Handle is the query surface of a Client.
type Handle interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	// QueryRows fails upfront when the statement fails.
	QueryRows(ctx context.Context, query string, args ...any) (Rows, error)
	// QueryRow defers every error to Scan.
	QueryRow(ctx context.Context, query string, args ...any) Row

	// Listen subscribes to channel until ctx is done.
	// Drivers without server-side notifications return ErrNotSupported.
	Listen(ctx context.Context, channel string) (<-chan Notification, error)
	// Notify publishes payload on channel, or returns ErrNotSupported.
	Notify(ctx context.Context, channel string, payload string) error
}

// Tx is a transaction started by Client.BeginTx.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRows(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

type Row interface {
	Scan(dest ...any) error // ErrNoRows when the query matched nothing
}

type Result interface {
	RowsAffected() (int64, error)
}

// Notification is one message received by Listen.
type Notification struct {
	PID     uint32 // server process that sent it
	Channel string
	Payload string
}
