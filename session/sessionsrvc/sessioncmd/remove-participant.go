package sessioncmd

import (
	"context"

	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	decorator "github.com/evaltrack/backend/srvccqs"
	"github.com/google/uuid"
)

type RemoveParticipantCmd decorator.CmdHandler[RemoveParticipantParams]

type RemoveParticipantParams struct {
	SessionUUID uuid.UUID
	ChestNumber int
}

type RemoveParticipantCmdHandler struct {
	UpdateSession UpdateSessionFunc
}

// Handle drops the participant and its stored evaluation. The chest number
// stays retired.
func (h RemoveParticipantCmdHandler) Handle(ctx context.Context, p RemoveParticipantParams) error {
	return h.UpdateSession(ctx, p.SessionUUID, func(s domain.Session) (domain.Session, error) {
		if err := sessionerror.CheckWrite(ctx, s); err != nil {
			return s, err
		}
		if s.Completed {
			return s, sessionerror.ErrSessionCompleted()
		}
		if s.Type != rubric.TypeGD {
			return s, sessionerror.ErrNotGroupSession()
		}
		if _, ok := s.Participant(p.ChestNumber); !ok {
			return s, sessionerror.ErrParticipantNotFound(p.ChestNumber)
		}
		next, _ := domain.RemoveParticipant(s, nil, p.ChestNumber)
		return next, nil
	})
}
