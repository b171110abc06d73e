package tracing

import (
	"context"

	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/draft"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RemoteTracer wraps the server side of draft views so that loads and
// commits show up as child spans of the request.
type RemoteTracer struct {
	remote draft.Remote
	tracer trace.Tracer
}

func NewRemoteTracer(remote draft.Remote) *RemoteTracer {
	return &RemoteTracer{
		remote: remote,
		tracer: otel.Tracer(ServiceName),
	}
}

func (t *RemoteTracer) GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	ctx, span := t.tracer.Start(ctx, "GetSession")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", id.String()))

	s, err := t.remote.GetSession(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return s, err
}

// WatchSession is not traced: the subscription lives as long as the view.
func (t *RemoteTracer) WatchSession(ctx context.Context, id uuid.UUID) (<-chan domain.Session, error) {
	return t.remote.WatchSession(ctx, id)
}

func (t *RemoteTracer) SaveEvaluations(ctx context.Context, s domain.Session) error {
	return t.commit(ctx, "SaveEvaluations", s, t.remote.SaveEvaluations)
}

func (t *RemoteTracer) CompleteSession(ctx context.Context, s domain.Session) error {
	return t.commit(ctx, "CompleteSession", s, t.remote.CompleteSession)
}

func (t *RemoteTracer) AddParticipant(ctx context.Context, sessionID uuid.UUID, p domain.Participant) (domain.Participant, error) {
	ctx, span := t.tracer.Start(ctx, "AddParticipant")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID.String()))

	added, err := t.remote.AddParticipant(ctx, sessionID, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Participant{}, err
	}
	span.SetAttributes(attribute.Int("chest_number", added.ChestNumber))
	return added, nil
}

func (t *RemoteTracer) RemoveParticipant(ctx context.Context, sessionID uuid.UUID, chestNumber int) error {
	ctx, span := t.tracer.Start(ctx, "RemoveParticipant")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", sessionID.String()),
		attribute.Int("chest_number", chestNumber),
	)

	if err := t.remote.RemoveParticipant(ctx, sessionID, chestNumber); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (t *RemoteTracer) commit(ctx context.Context, name string, s domain.Session, write func(context.Context, domain.Session) error) error {
	ctx, span := t.tracer.Start(ctx, name)
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", s.ID.String()),
		attribute.String("session_type", string(s.Type)),
		attribute.Int("evaluations", len(s.Evaluations)),
		attribute.Int("students", len(s.Students)),
	)

	if err := write(ctx, s); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
