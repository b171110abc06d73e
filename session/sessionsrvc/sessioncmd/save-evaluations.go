package sessioncmd

import (
	"context"

	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	decorator "github.com/evaltrack/backend/srvccqs"
)

type SaveEvaluationsCmd decorator.CmdHandler[SaveEvaluationsParams]

// SaveEvaluationsParams carries the locally edited session. Only its
// evaluations are written.
type SaveEvaluationsParams struct {
	Session domain.Session
}

type SaveEvaluationsCmdHandler struct {
	UpdateSession UpdateSessionFunc
}

func (h SaveEvaluationsCmdHandler) Handle(ctx context.Context, p SaveEvaluationsParams) error {
	return h.UpdateSession(ctx, p.Session.ID, func(s domain.Session) (domain.Session, error) {
		if err := sessionerror.CheckWrite(ctx, s); err != nil {
			return s, err
		}
		if s.Completed {
			return s, sessionerror.ErrSessionCompleted()
		}
		return withEvaluations(s, p.Session), nil
	})
}

// withEvaluations is a partial write: the evaluations of local replace the
// stored ones, every other field stays as stored. Participants are allocated
// on the server, so an evaluation is kept only when its chest number names a
// stored participant, and it carries that participant's identity.
func withEvaluations(stored domain.Session, local domain.Session) domain.Session {
	next := stored.Clone()
	next.Evaluations = make([]domain.Evaluation, 0, len(local.Evaluations))
	for _, e := range local.Evaluations {
		p, ok := stored.Participant(e.StudentID)
		if !ok {
			continue
		}
		next.Evaluations = append(next.Evaluations, e.WithIdentity(p))
	}
	return next
}
