package sessionquery

import (
	"context"

	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	decorator "github.com/evaltrack/backend/srvccqs"
	"github.com/google/uuid"
)

type GetSessionQuery decorator.QueryHandler[GetSessionParams, domain.Session]

func NewGetSessionQuery(getSession func(ctx context.Context, id uuid.UUID) (domain.Session, error)) GetSessionQuery {
	return getSessionHandler{getSession: getSession}
}

type GetSessionParams struct {
	UUID uuid.UUID
}

type getSessionHandler struct {
	getSession func(ctx context.Context, id uuid.UUID) (domain.Session, error)
}

func (h getSessionHandler) Handle(ctx context.Context, p GetSessionParams) (domain.Session, error) {
	s, err := h.getSession(ctx, p.UUID)
	if err != nil {
		return domain.Session{}, err
	}
	if err := sessionerror.CheckRead(ctx, s); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}
