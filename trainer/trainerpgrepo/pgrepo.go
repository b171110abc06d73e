package trainerpgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/evaltrack/backend/feed"
	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/pgnotify"
	"github.com/evaltrack/backend/trainer"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgTrainerRepo struct {
	pool *pgxpool.Pool
	hub  *feed.Hub[uuid.UUID, trainer.Record]
}

func NewPgTrainerRepo(pool *pgxpool.Pool) *PgTrainerRepo {
	return &PgTrainerRepo{
		pool: pool,
		hub:  feed.NewHub[uuid.UUID, trainer.Record](),
	}
}

const selectTrainer = `SELECT user_id, name, email, role, created_at FROM trainers`

func scanTrainer(row pgx.Row) (trainer.Trainer, error) {
	var t trainer.Trainer
	var role string
	err := row.Scan(&t.UserID, &t.Name, &t.Email, &role, &t.CreatedAt)
	t.Role = trainer.Role(role)
	return t, err
}

func (r *PgTrainerRepo) GetTrainer(ctx context.Context, userID uuid.UUID) (trainer.Trainer, error) {
	t, err := scanTrainer(r.pool.QueryRow(ctx, selectTrainer+` WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return trainer.Trainer{}, trainer.ErrTrainerNotFound()
	}
	if err != nil {
		return trainer.Trainer{}, fmt.Errorf("failed to get trainer: %w", err)
	}
	return t, nil
}

func (r *PgTrainerRepo) ListTrainers(ctx context.Context) ([]trainer.Trainer, error) {
	rows, err := r.pool.Query(ctx, selectTrainer+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainers: %w", err)
	}
	defer rows.Close()

	res := []trainer.Trainer{}
	for rows.Next() {
		t, err := scanTrainer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trainer: %w", err)
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trainers: %w", err)
	}
	return res, nil
}

func (r *PgTrainerRepo) StoreTrainer(ctx context.Context, t trainer.Trainer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO trainers (user_id, name, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role
	`, t.UserID, t.Name, t.Email, string(t.Role), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert trainer: %w", err)
	}
	if err := pgnotify.Notify(ctx, tx, pgnotify.ChannelTrainerChanged, t.UserID.String()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PgTrainerRepo) DeleteTrainer(ctx context.Context, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM trainers WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete trainer: %w", err)
	}
	if err := pgnotify.Notify(ctx, tx, pgnotify.ChannelTrainerChanged, userID.String()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PgTrainerRepo) WatchTrainer(ctx context.Context, userID uuid.UUID) (<-chan trainer.Record, error) {
	return r.hub.Subscribe(ctx, userID, func(ctx context.Context) (trainer.Record, error) {
		return trainer.Lookup(ctx, r, userID)
	})
}

// Listen feeds trainer_changed notifications to watchers until ctx is done.
func (r *PgTrainerRepo) Listen(ctx context.Context) error {
	return pgnotify.Listen(ctx, r.pool, r.handleNotification, pgnotify.ChannelTrainerChanged)
}

func (r *PgTrainerRepo) handleNotification(ctx context.Context, n *pgconn.Notification) {
	userID, err := uuid.Parse(n.Payload)
	if err != nil {
		logger.FromContext(ctx).Warn("malformed trainer notification", "payload", n.Payload)
		return
	}
	if r.hub.Subscribers(userID) == 0 {
		return
	}
	rec, err := trainer.Lookup(ctx, r, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to refetch trainer", "trainer_id", userID, "error", err)
		return
	}
	r.hub.Publish(userID, rec)
}
