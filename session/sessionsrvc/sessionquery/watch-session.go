package sessionquery

import (
	"context"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	decorator "github.com/evaltrack/backend/srvccqs"
	"github.com/google/uuid"
)

type WatchSessionQuery decorator.QueryHandler[WatchSessionParams, <-chan domain.Session]

type WatchSessionParams struct {
	UUID uuid.UUID
}

func NewWatchSessionQuery(
	getSession func(ctx context.Context, id uuid.UUID) (domain.Session, error),
	watchSession func(ctx context.Context, id uuid.UUID) (<-chan domain.Session, error),
) WatchSessionQuery {
	return watchSessionHandler{getSession: getSession, watchSession: watchSession}
}

type watchSessionHandler struct {
	getSession   func(ctx context.Context, id uuid.UUID) (domain.Session, error)
	watchSession func(ctx context.Context, id uuid.UUID) (<-chan domain.Session, error)
}

// Handle streams the session document, starting with its current state. The
// channel is closed when ctx is done.
func (h watchSessionHandler) Handle(ctx context.Context, p WatchSessionParams) (<-chan domain.Session, error) {
	s, err := h.getSession(ctx, p.UUID)
	if err != nil {
		return nil, err
	}
	if err := sessionerror.CheckRead(ctx, s); err != nil {
		return nil, err
	}
	return h.watchSession(ctx, p.UUID)
}

type WatchSessionsQuery decorator.QueryHandler[WatchSessionsParams, <-chan []domain.Session]

// WatchSessionsParams selects the session list of one trainer.
type WatchSessionsParams struct {
	TrainerID uuid.UUID
}

func NewWatchSessionsQuery(
	watchSessions func(ctx context.Context, trainerID uuid.UUID) (<-chan []domain.Session, error),
) WatchSessionsQuery {
	return watchSessionsHandler{watchSessions: watchSessions}
}

type watchSessionsHandler struct {
	watchSessions func(ctx context.Context, trainerID uuid.UUID) (<-chan []domain.Session, error)
}

func (h watchSessionsHandler) Handle(ctx context.Context, p WatchSessionsParams) (<-chan []domain.Session, error) {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return nil, sessionerror.ErrUnauthenticated()
	}
	if !a.IsAdmin() && a.UserID != p.TrainerID {
		return nil, sessionerror.ErrNotSessionOwner()
	}
	return h.watchSessions(ctx, p.TrainerID)
}
