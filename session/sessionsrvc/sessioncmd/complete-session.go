package sessioncmd

import (
	"context"
	"time"

	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	decorator "github.com/evaltrack/backend/srvccqs"
)

type CompleteSessionCmd decorator.CmdHandler[CompleteSessionParams]

type CompleteSessionParams struct {
	Session domain.Session
}

type CompleteSessionCmdHandler struct {
	UpdateSession UpdateSessionFunc
	Now           func() time.Time
}

// Handle writes the final evaluations and locks the session in one write.
func (h CompleteSessionCmdHandler) Handle(ctx context.Context, p CompleteSessionParams) error {
	return h.UpdateSession(ctx, p.Session.ID, func(s domain.Session) (domain.Session, error) {
		if err := sessionerror.CheckWrite(ctx, s); err != nil {
			return s, err
		}
		if s.Completed {
			return s, sessionerror.ErrSessionCompleted()
		}
		return domain.Complete(withEvaluations(s, p.Session), h.Now()), nil
	})
}
