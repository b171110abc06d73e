package sessioncmd

import (
	"context"

	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	decorator "github.com/evaltrack/backend/srvccqs"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type UpdateDetailsCmd decorator.CmdHandler[UpdateDetailsParams]

type UpdateDetailsParams struct {
	UUID      uuid.UUID         `validate:"required"`
	GroupName *string           `validate:"omitempty,max=200"`
	Topic     *string           `validate:"omitempty,max=500"`
	Candidate *domain.Candidate `validate:"omitempty"`
}

type UpdateDetailsCmdHandler struct {
	Validate      *validator.Validate
	UpdateSession UpdateSessionFunc
}

func (h UpdateDetailsCmdHandler) Handle(ctx context.Context, p UpdateDetailsParams) error {
	if err := h.Validate.StructCtx(ctx, p); err != nil {
		return srvcerror.ErrValidation(err)
	}
	return h.UpdateSession(ctx, p.UUID, func(s domain.Session) (domain.Session, error) {
		if err := sessionerror.CheckWrite(ctx, s); err != nil {
			return s, err
		}
		if s.Completed {
			return s, sessionerror.ErrSessionCompleted()
		}
		if s.Type == rubric.TypePI && (p.GroupName != nil || p.Topic != nil) {
			return s, sessionerror.ErrNotGroupSession()
		}
		return domain.UpdateDetails(s, p.GroupName, p.Topic, p.Candidate), nil
	})
}
