package sessionquery

import (
	"context"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	decorator "github.com/evaltrack/backend/srvccqs"
)

type ListSessionsQuery decorator.QueryHandler[domain.Filter, []domain.Session]

func NewListSessionsQuery(listSessions func(ctx context.Context, f domain.Filter) ([]domain.Session, error)) ListSessionsQuery {
	return listSessionsHandler{listSessions: listSessions}
}

type listSessionsHandler struct {
	listSessions func(ctx context.Context, f domain.Filter) ([]domain.Session, error)
}

// Handle lists the sessions matching f. Trainers only ever see their own.
func (h listSessionsHandler) Handle(ctx context.Context, f domain.Filter) ([]domain.Session, error) {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return nil, sessionerror.ErrUnauthenticated()
	}
	if !a.IsAdmin() {
		if f.TrainerID != nil && *f.TrainerID != a.UserID {
			return nil, sessionerror.ErrNotSessionOwner()
		}
		f.TrainerID = &a.UserID
	}
	return h.listSessions(ctx, f)
}
