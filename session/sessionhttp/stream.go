package sessionhttp

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/evaltrack/backend/httpjson"
	"github.com/evaltrack/backend/session/sessionsrvc/sessionquery"
	"github.com/go-chi/httplog/v2"
)

// KeepAliveInterval is how often an idle event stream sends a comment line.
var KeepAliveInterval = 15 * time.Second

func (h *SessionHttpHandler) StreamSession(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := sessionIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	updates, err := h.srvc.WatchSession.Handle(r.Context(), sessionquery.WatchSessionParams{UUID: id})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	streamEvents(w, r, updates, nil)
}

func (h *SessionHttpHandler) StreamSessionList(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	a, err := requireActor(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	params := sessionquery.WatchSessionsParams{TrainerID: a.UserID}
	f, err := filterFromQuery(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if f.TrainerID != nil {
		params.TrainerID = *f.TrainerID
	}

	updates, err := h.srvc.WatchSessions.Handle(r.Context(), params)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	streamEvents(w, r, updates, nil)
}

// streamEvents writes every value of updates as a server-sent event until the
// client goes away, updates is closed or stop is closed.
func streamEvents[T any](w http.ResponseWriter, r *http.Request, updates <-chan T, stop <-chan struct{}) {
	log := httplog.LogEntry(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var writeMutex sync.Mutex
	safeWrite := func(data string) {
		writeMutex.Lock()
		defer writeMutex.Unlock()
		io.WriteString(w, data)
		flusher.Flush()
	}

	keepAliveTicker := time.NewTicker(KeepAliveInterval)
	defer keepAliveTicker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-stop:
			safeWrite("event: closed\ndata: {}\n\n")
			return
		case <-keepAliveTicker.C:
			safeWrite(": keep-alive\n\n")
		case v, ok := <-updates:
			if !ok {
				return
			}
			marshalled, err := json.Marshal(v)
			if err != nil {
				log.Error("failed to marshal event", "error", err)
				return
			}
			safeWrite("data: " + string(marshalled) + "\n\n")
		}
	}
}
