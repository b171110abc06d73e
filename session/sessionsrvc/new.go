package sessionsrvc

import (
	"time"

	"github.com/evaltrack/backend/session/sessionsrvc/sessioncmd"
	"github.com/evaltrack/backend/session/sessionsrvc/sessionquery"
	"github.com/go-playground/validator/v10"
)

func NewSessionSrvc(repo Repo) *SessionSrvc {
	validate := validator.New(validator.WithRequiredStructEnabled())
	now := func() time.Time { return time.Now().UTC() }

	getSession := sessionquery.NewGetSessionQuery(repo.GetSession)

	return &SessionSrvc{
		CreateSession: sessioncmd.CreateSessionCmdHandler{
			Validate:     validate,
			StoreSession: repo.StoreSession,
			Now:          now,
		},
		UpdateDetails: sessioncmd.UpdateDetailsCmdHandler{
			Validate:      validate,
			UpdateSession: repo.UpdateSession,
		},
		SaveEvaluations: sessioncmd.SaveEvaluationsCmdHandler{
			UpdateSession: repo.UpdateSession,
		},
		CompleteSession: sessioncmd.CompleteSessionCmdHandler{
			UpdateSession: repo.UpdateSession,
			Now:           now,
		},
		DeleteSession: sessioncmd.DeleteSessionCmdHandler{
			GetSession:    repo.GetSession,
			DeleteSession: repo.DeleteSession,
		},
		RegisterParticipant: sessioncmd.RegisterParticipantCmd{
			Validate:      validate,
			UpdateSession: repo.UpdateSession,
		},
		AddParticipant: sessioncmd.AddParticipantCmd{
			Validate:      validate,
			UpdateSession: repo.UpdateSession,
		},
		RemoveParticipant: sessioncmd.RemoveParticipantCmdHandler{
			UpdateSession: repo.UpdateSession,
		},

		GetSession:    getSession,
		ListSessions:  sessionquery.NewListSessionsQuery(repo.ListSessions),
		GetScores:     sessionquery.NewGetScoresQuery(getSession),
		WatchSession:  sessionquery.NewWatchSessionQuery(repo.GetSession, repo.WatchSession),
		WatchSessions: sessionquery.NewWatchSessionsQuery(repo.WatchSessions),
	}
}
