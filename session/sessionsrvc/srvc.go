package sessionsrvc

import (
	"github.com/evaltrack/backend/session/sessionsrvc/sessioncmd"
	"github.com/evaltrack/backend/session/sessionsrvc/sessionquery"
)

type SessionSrvc struct {
	CreateSession       sessioncmd.CreateSessionCmd
	UpdateDetails       sessioncmd.UpdateDetailsCmd
	SaveEvaluations     sessioncmd.SaveEvaluationsCmd
	CompleteSession     sessioncmd.CompleteSessionCmd
	DeleteSession       sessioncmd.DeleteSessionCmd
	RegisterParticipant sessioncmd.RegisterParticipantCmd
	AddParticipant      sessioncmd.AddParticipantCmd
	RemoveParticipant   sessioncmd.RemoveParticipantCmd

	GetSession    sessionquery.GetSessionQuery
	ListSessions  sessionquery.ListSessionsQuery
	GetScores     sessionquery.GetScoresQuery
	WatchSession  sessionquery.WatchSessionQuery
	WatchSessions sessionquery.WatchSessionsQuery
}
