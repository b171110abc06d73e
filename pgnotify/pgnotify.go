// Package pgnotify turns Postgres LISTEN/NOTIFY into change feeds. Writers
// notify a channel with the id of the changed row inside their transaction;
// readers refetch the row and publish it to their subscribers.
package pgnotify

import (
	"context"
	"fmt"
	"time"

	"github.com/evaltrack/backend/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ChannelSessionChanged = "session_changed"
	ChannelTrainerChanged = "trainer_changed"
)

const maxBackoff = 30 * time.Second

type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Notify queues a notification. Inside a transaction it is delivered on
// commit.
func Notify(ctx context.Context, db Execer, channel string, payload string) error {
	_, err := db.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload)
	if err != nil {
		return fmt.Errorf("failed to notify %s: %w", channel, err)
	}
	return nil
}

// Listen calls handle for every notification on channels until ctx is done.
// A lost connection is acquired again with exponential backoff.
func Listen(ctx context.Context, pool *pgxpool.Pool, handle func(ctx context.Context, n *pgconn.Notification), channels ...string) error {
	log := logger.FromContext(ctx).With("channels", channels)
	backoff := time.Second
	for {
		listened, err := listenOnce(ctx, pool, handle, channels)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if listened {
			backoff = time.Second
		}
		log.Warn("notification listener stopped, reconnecting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func listenOnce(ctx context.Context, pool *pgxpool.Pool, handle func(ctx context.Context, n *pgconn.Notification), channels []string) (bool, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	for _, ch := range channels {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			return false, fmt.Errorf("failed to listen on %s: %w", ch, err)
		}
	}
	logger.FromContext(ctx).Debug("listening for notifications", "channels", channels)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return true, err
		}
		handle(ctx, n)
	}
}
