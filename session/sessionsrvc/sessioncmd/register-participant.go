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

type RegisterParticipantParams struct {
	SessionUUID uuid.UUID `validate:"required"`
	Participant domain.Participant
}

// RegisterParticipantCmd adds a participant on their own request, without a
// signed-in trainer. It returns the participant with the allocated chest
// number.
type RegisterParticipantCmd struct {
	Validate      *validator.Validate
	UpdateSession UpdateSessionFunc
}

func (h RegisterParticipantCmd) Handle(ctx context.Context, p RegisterParticipantParams) (domain.Participant, error) {
	if err := h.Validate.StructCtx(ctx, p); err != nil {
		return domain.Participant{}, srvcerror.ErrValidation(err)
	}

	var added domain.Participant
	err := h.UpdateSession(ctx, p.SessionUUID, func(s domain.Session) (domain.Session, error) {
		if s.Type != rubric.TypeGD {
			return s, sessionerror.ErrNotGroupSession()
		}
		if s.Completed || !s.IsActive {
			return s, sessionerror.ErrSessionClosed()
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
