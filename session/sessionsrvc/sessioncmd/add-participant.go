package sessioncmd

import (
	"context"

	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AddParticipantParams struct {
	SessionUUID uuid.UUID `validate:"required"`
	Participant domain.Participant
}

// AddParticipantCmd adds a student on behalf of the owning trainer. The chest
// number is allocated inside the session write, so it can not collide with a
// concurrent self-registration.
type AddParticipantCmd struct {
	Validate      *validator.Validate
	UpdateSession UpdateSessionFunc
}

func (h AddParticipantCmd) Handle(ctx context.Context, p AddParticipantParams) (domain.Participant, error) {
	if err := h.Validate.StructCtx(ctx, p); err != nil {
		return domain.Participant{}, srvcerror.ErrValidation(err)
	}

	var added domain.Participant
	err := h.UpdateSession(ctx, p.SessionUUID, func(s domain.Session) (domain.Session, error) {
		if err := sessionerror.CheckWrite(ctx, s); err != nil {
			return s, err
		}
		if s.Completed {
			return s, sessionerror.ErrSessionCompleted()
		}
		if s.Type != rubric.TypeGD {
			return s, sessionerror.ErrNotGroupSession()
		}
		next, np := domain.AddParticipant(s, p.Participant)
		added = np
		return next, nil
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return added, nil
}
