package sessioncmd

import (
	"context"
	"fmt"

	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	decorator "github.com/evaltrack/backend/srvccqs"
	"github.com/google/uuid"
)

type DeleteSessionCmd decorator.CmdHandler[DeleteSessionParams]

type DeleteSessionParams struct {
	UUID uuid.UUID
}

type DeleteSessionCmdHandler struct {
	GetSession    func(ctx context.Context, id uuid.UUID) (domain.Session, error)
	DeleteSession func(ctx context.Context, id uuid.UUID) error
}

func (h DeleteSessionCmdHandler) Handle(ctx context.Context, p DeleteSessionParams) error {
	s, err := h.GetSession(ctx, p.UUID)
	if err != nil {
		return err
	}
	if err := sessionerror.CheckWrite(ctx, s); err != nil {
		return err
	}
	if err := h.DeleteSession(ctx, p.UUID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
