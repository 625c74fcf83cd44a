package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/db/sqldb"
)

type Handle struct {
	*pgxpool.Pool // [Embedded]
}

var _ sqldb.Handle = (*Handle)(nil)

func (h *Handle) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	return statements{h.Pool}.Exec(ctx, query, args...)
}

func (h *Handle) QueryRows(ctx context.Context, query string, args ...any) (sqldb.Rows, error) {
	return statements{h.Pool}.QueryRows(ctx, query, args...)
}

func (h *Handle) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	return statements{h.Pool}.QueryRow(ctx, query, args...)
}

// Listen holds one pooled connection for the lifetime of the subscription.
// The returned channel is closed when ctx is done or the connection fails.
func (h *Handle) Listen(ctx context.Context, channel string) (<-chan sqldb.Notification, error) {
	conn, err := h.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err = conn.Exec(ctx, fmt.Sprintf("LISTEN %s;", pgx.Identifier{channel}.Sanitize())); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to LISTEN on %s: %w", channel, err)
	}

	notifyCh := make(chan sqldb.Notification)

	go func() {
		defer conn.Release()
		defer close(notifyCh)

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					zap.L().Warn("pgsql listen loop ended", zap.String("channel", channel), zap.Error(err))
				}
				// the connection is left in LISTEN state. drop it instead of returning it to the pool
				_ = conn.Conn().Close(context.Background())
				return
			}
			select {
			case notifyCh <- sqldb.Notification{
				PID:     notification.PID,
				Channel: notification.Channel,
				Payload: notification.Payload,
			}:
			case <-ctx.Done():
				_ = conn.Conn().Close(context.Background())
				return
			}
		}
	}()

	return notifyCh, nil
}

func (h *Handle) Notify(ctx context.Context, channel string, payload string) error {
	_, err := h.Pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload)
	return err
}
