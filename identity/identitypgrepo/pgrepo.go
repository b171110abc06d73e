package identitypgrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evaltrack/backend/identity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgUserStore struct {
	pool *pgxpool.Pool
}

func NewPgUserStore(pool *pgxpool.Pool) *PgUserStore {
	return &PgUserStore{pool: pool}
}

const selectUser = `SELECT uuid, email, display_name, bcrypt_pwd, disabled, created_at FROM users`

func scanUser(row pgx.Row) (identity.User, error) {
	var u identity.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.BcryptPwd, &u.Disabled, &u.CreatedAt)
	return u, err
}

func (s *PgUserStore) GetUser(ctx context.Context, id uuid.UUID) (identity.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, selectUser+` WHERE uuid = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.User{}, identity.ErrUserNotFound()
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *PgUserStore) GetUserByEmail(ctx context.Context, email string) (identity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(s.pool.QueryRow(ctx, selectUser+` WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.User{}, identity.ErrUserNotFound()
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

func (s *PgUserStore) StoreUser(ctx context.Context, u identity.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (uuid, email, display_name, bcrypt_pwd, disabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (uuid) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			bcrypt_pwd = EXCLUDED.bcrypt_pwd,
			disabled = EXCLUDED.disabled
	`, u.ID, u.Email, u.DisplayName, u.BcryptPwd, u.Disabled, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("email %s already taken: %w", u.Email, err)
		}
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

func (s *PgUserStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM users WHERE uuid = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
