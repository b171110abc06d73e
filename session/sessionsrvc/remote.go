package sessionsrvc

import (
	"context"

	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	"github.com/evaltrack/backend/session/sessionsrvc/sessioncmd"
	"github.com/evaltrack/backend/session/sessionsrvc/sessionquery"
	"github.com/google/uuid"
)

// Remote exposes the service as the server side of a draft view. Every call
// runs with the actor found in ctx.
type Remote struct {
	srvc *SessionSrvc
}

func NewRemote(srvc *SessionSrvc) Remote {
	return Remote{srvc: srvc}
}

// GetSession loads the session a view is opened on. A view edits, so the
// caller must own the session.
func (r Remote) GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	s, err := r.srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	if err != nil {
		return domain.Session{}, err
	}
	if err := sessionerror.CheckWrite(ctx, s); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

func (r Remote) WatchSession(ctx context.Context, id uuid.UUID) (<-chan domain.Session, error) {
	return r.srvc.WatchSession.Handle(ctx, sessionquery.WatchSessionParams{UUID: id})
}

func (r Remote) SaveEvaluations(ctx context.Context, s domain.Session) error {
	return r.srvc.SaveEvaluations.Handle(ctx, sessioncmd.SaveEvaluationsParams{Session: s})
}

func (r Remote) AddParticipant(ctx context.Context, sessionID uuid.UUID, p domain.Participant) (domain.Participant, error) {
	return r.srvc.AddParticipant.Handle(ctx, sessioncmd.AddParticipantParams{SessionUUID: sessionID, Participant: p})
}

func (r Remote) RemoveParticipant(ctx context.Context, sessionID uuid.UUID, chestNumber int) error {
	return r.srvc.RemoveParticipant.Handle(ctx, sessioncmd.RemoveParticipantParams{SessionUUID: sessionID, ChestNumber: chestNumber})
}

func (r Remote) CompleteSession(ctx context.Context, s domain.Session) error {
	return r.srvc.CompleteSession.Handle(ctx, sessioncmd.CompleteSessionParams{Session: s})
}
