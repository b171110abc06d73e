package sessioncmd

import (
	"context"
	"fmt"
	"time"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	decorator "github.com/evaltrack/backend/srvccqs"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CreateSessionCmd decorator.CmdHandler[CreateSessionParams]

type CreateSessionParams struct {
	UUID      uuid.UUID          `validate:"required"`
	Type      rubric.SessionType `validate:"required,oneof=gd pi"`
	ProjectID *uuid.UUID
	BatchID   *uuid.UUID
	// TrainerID hands the session to another trainer, admins only
	TrainerID *uuid.UUID

	GroupName string               `validate:"max=200"`
	Topic     string               `validate:"max=500"`
	Candidate *domain.Candidate    `validate:"omitempty"`
	Students  []domain.Participant `validate:"max=200,dive"`
}

type CreateSessionCmdHandler struct {
	Validate     *validator.Validate
	StoreSession func(ctx context.Context, s domain.Session) error
	Now          func() time.Time
}

func (h CreateSessionCmdHandler) Handle(ctx context.Context, p CreateSessionParams) error {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return sessionerror.ErrUnauthenticated()
	}
	if err := h.Validate.StructCtx(ctx, p); err != nil {
		return srvcerror.ErrValidation(err)
	}

	trainerID := a.UserID
	if p.TrainerID != nil && *p.TrainerID != a.UserID {
		if !a.IsAdmin() {
			return sessionerror.ErrNotSessionOwner()
		}
		trainerID = *p.TrainerID
	}

	s := domain.NewSession(p.UUID, p.Type, trainerID, h.Now())
	s.ProjectID = p.ProjectID
	s.BatchID = p.BatchID

	switch p.Type {
	case rubric.TypeGD:
		s.GroupName = p.GroupName
		s.Topic = p.Topic
		for _, st := range p.Students {
			s, _ = domain.AddParticipant(s, st)
		}
	case rubric.TypePI:
		if p.Candidate == nil || p.Candidate.Name == "" {
			return sessionerror.ErrCandidateRequired()
		}
		if len(p.Students) > 0 {
			return sessionerror.ErrNotGroupSession()
		}
		c := *p.Candidate
		s.Candidate = &c
	}

	if err := h.StoreSession(ctx, s); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
