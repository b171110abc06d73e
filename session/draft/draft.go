// Package draft keeps a trainer's in-progress evaluations of a session in a
// local store until they are committed to the server.
package draft

import (
	"context"
	"time"

	"github.com/evaltrack/backend/session/domain"
	"github.com/google/uuid"
)

// Draft mirrors the locally edited subset of a session.
type Draft struct {
	SessionID       uuid.UUID            `json:"sessionId"`
	Evaluations     []domain.Evaluation  `json:"evaluations"`
	Students        []domain.Participant `json:"students"`
	LastChestNumber int                  `json:"lastChestNumber"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// Empty reports whether d carries no evaluation and no student entry.
func (d Draft) Empty() bool {
	return len(d.Evaluations) == 0 && len(d.Students) == 0
}

// Store is the local durable key-value store of drafts, keyed by session id.
type Store interface {
	Get(ctx context.Context, sessionID uuid.UUID) (Draft, bool, error)
	Set(ctx context.Context, d Draft) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// Remote is the server side of a session as seen by a view.
type Remote interface {
	GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error)
	WatchSession(ctx context.Context, id uuid.UUID) (<-chan domain.Session, error)
	SaveEvaluations(ctx context.Context, s domain.Session) error
	CompleteSession(ctx context.Context, s domain.Session) error
	// AddParticipant allocates the chest number of p on the server.
	AddParticipant(ctx context.Context, sessionID uuid.UUID, p domain.Participant) (domain.Participant, error)
	RemoveParticipant(ctx context.Context, sessionID uuid.UUID, chestNumber int) error
}

func fromSession(s domain.Session, now time.Time) Draft {
	return Draft{
		SessionID:       s.ID,
		Evaluations:     append([]domain.Evaluation{}, s.Evaluations...),
		Students:        append([]domain.Participant{}, s.Students...),
		LastChestNumber: s.LastChestNumber,
		UpdatedAt:       now,
	}
}
