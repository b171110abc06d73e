package sessionhttp

import (
	"net/http"

	"github.com/evaltrack/backend/httpjson"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionsrvc/sessioncmd"
	"github.com/go-chi/httplog/v2"
)

// Register is the target of the session QR code: a participant adds
// themselves without signing in. The scoring trainer sees them through the
// live session update.
func (h *SessionHttpHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := sessionIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	var p domain.Participant
	if err := httpjson.DecodeBody(r, &p); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	added, err := h.srvc.RegisterParticipant.Handle(r.Context(), sessioncmd.RegisterParticipantParams{
		SessionUUID: id,
		Participant: p,
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.forgetScores(id)
	httpjson.WriteSuccessJson(w, added)
}
