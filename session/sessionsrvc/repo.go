package sessionsrvc

import (
	"context"

	"github.com/evaltrack/backend/session/domain"
	"github.com/google/uuid"
)

// Repo is the document store of sessions. Watch channels replay the current
// value and then deliver every later write, latest-wins.
type Repo interface {
	GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error)
	ListSessions(ctx context.Context, f domain.Filter) ([]domain.Session, error)
	StoreSession(ctx context.Context, s domain.Session) error
	UpdateSession(ctx context.Context, id uuid.UUID, edit func(s domain.Session) (domain.Session, error)) error
	DeleteSession(ctx context.Context, id uuid.UUID) error

	WatchSession(ctx context.Context, id uuid.UUID) (<-chan domain.Session, error)
	WatchSessions(ctx context.Context, trainerID uuid.UUID) (<-chan []domain.Session, error)
}
