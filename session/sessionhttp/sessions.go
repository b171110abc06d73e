package sessionhttp

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/httpjson"
	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionsrvc/sessioncmd"
	"github.com/evaltrack/backend/session/sessionsrvc/sessionquery"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

func (h *SessionHttpHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	f, err := filterFromQuery(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	sessions, err := h.srvc.ListSessions.Handle(r.Context(), f)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, sessions)
}

// filterFromQuery reads trainerId, projectId, batchId, type, completed, from
// and to. Dates are either YYYY-MM-DD or RFC 3339; a bare to date covers its
// whole day.
func filterFromQuery(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()
	f := domain.Filter{}

	ids := map[string]**uuid.UUID{
		"trainerId": &f.TrainerID,
		"projectId": &f.ProjectID,
		"batchId":   &f.BatchID,
	}
	for name, dst := range ids {
		v := q.Get(name)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return f, srvcerror.ErrInvalidRequest(name + " is not a valid uuid")
		}
		*dst = &id
	}

	if v := q.Get("type"); v != "" {
		t := rubric.SessionType(v)
		if !t.Valid() {
			return f, srvcerror.ErrInvalidRequest("type must be gd or pi")
		}
		f.Type = t
	}
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, srvcerror.ErrInvalidRequest("completed must be true or false")
		}
		f.Completed = &b
	}

	from, err := parseDate(q.Get("from"), false)
	if err != nil {
		return f, err
	}
	to, err := parseDate(q.Get("to"), true)
	if err != nil {
		return f, err
	}
	f.From, f.To = from, to
	return f, nil
}

func parseDate(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, srvcerror.ErrInvalidRequest("dates must be YYYY-MM-DD or RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

type createSessionRequest struct {
	ID        *uuid.UUID           `json:"id"`
	Type      rubric.SessionType   `json:"type"`
	ProjectID *uuid.UUID           `json:"projectId"`
	BatchID   *uuid.UUID           `json:"batchId"`
	TrainerID *uuid.UUID           `json:"trainerId"`
	GroupName string               `json:"groupName"`
	Topic     string               `json:"topic"`
	Candidate *domain.Candidate    `json:"candidate"`
	Students  []domain.Participant `json:"students"`
}

func (h *SessionHttpHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	var req createSessionRequest
	if err := httpjson.DecodeBody(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	id := uuid.New()
	if req.ID != nil {
		id = *req.ID
	}

	err := h.srvc.CreateSession.Handle(r.Context(), sessioncmd.CreateSessionParams{
		UUID:      id,
		Type:      req.Type,
		ProjectID: req.ProjectID,
		BatchID:   req.BatchID,
		TrainerID: req.TrainerID,
		GroupName: req.GroupName,
		Topic:     req.Topic,
		Candidate: req.Candidate,
		Students:  req.Students,
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	s, err := h.srvc.GetSession.Handle(r.Context(), sessionquery.GetSessionParams{UUID: id})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, s)
}

func (h *SessionHttpHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := sessionIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	s, err := h.getSession(r.Context(), id)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, s)
}

// getSession collapses concurrent reads of one session by one actor into a
// single store read.
func (h *SessionHttpHandler) getSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return h.srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	}
	v, err, _ := h.reads.Do(id.String()+":"+a.UserID.String(), func() (any, error) {
		return h.srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	})
	if err != nil {
		return domain.Session{}, err
	}
	return v.(domain.Session).Clone(), nil
}

type updateDetailsRequest struct {
	GroupName *string           `json:"groupName"`
	Topic     *string           `json:"topic"`
	Candidate *domain.Candidate `json:"candidate"`
}

func (h *SessionHttpHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := sessionIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	var req updateDetailsRequest
	if err := httpjson.DecodeBody(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	err = h.srvc.UpdateDetails.Handle(r.Context(), sessioncmd.UpdateDetailsParams{
		UUID:      id,
		GroupName: req.GroupName,
		Topic:     req.Topic,
		Candidate: req.Candidate,
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.forgetScores(id)

	s, err := h.srvc.GetSession.Handle(r.Context(), sessionquery.GetSessionParams{UUID: id})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, s)
}

func (h *SessionHttpHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := sessionIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := h.srvc.DeleteSession.Handle(r.Context(), sessioncmd.DeleteSessionParams{UUID: id}); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.forgetScores(id)
	httpjson.WriteSuccessJson(w, nil)
}

func (h *SessionHttpHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := sessionIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	a, err := requireActor(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	key := id.String() + ":" + a.UserID.String()
	if cached, ok := h.scores.Get(key); ok {
		httpjson.WriteSuccessJson(w, cached)
		return
	}
	scores, err := h.srvc.GetScores.Handle(r.Context(), sessionquery.GetSessionParams{UUID: id})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	h.scores.Set(key, scores, cache.DefaultExpiration)
	httpjson.WriteSuccessJson(w, scores)
}
