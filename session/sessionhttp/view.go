package sessionhttp

import (
	"net/http"

	"github.com/evaltrack/backend/export"
	"github.com/evaltrack/backend/httpjson"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/draft"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/go-chi/httplog/v2"
)

// withView resolves the open view of the session in the path for the
// calling trainer and hands it to fn.
func (h *SessionHttpHandler) withView(fn func(w http.ResponseWriter, r *http.Request, v *draft.View)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		v, err := h.workspace.Get(a.SessionID, id)
		if err != nil {
			httpjson.HandleError(log, w, err)
			return
		}
		fn(w, r, v)
	}
}

// writeSnapshot answers an edit with the resulting snapshot.
func writeSnapshot(w http.ResponseWriter, r *http.Request, snap draft.Snapshot, err error) {
	if err != nil {
		httpjson.HandleError(httplog.LogEntry(r.Context()), w, err)
		return
	}
	httpjson.WriteSuccessJson(w, snap)
}

func (h *SessionHttpHandler) OpenView(w http.ResponseWriter, r *http.Request) {
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
	v, err := h.workspace.Open(r.Context(), a.SessionID, id)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, v.Snapshot())
}

func (h *SessionHttpHandler) GetView(w http.ResponseWriter, r *http.Request) {
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		httpjson.WriteSuccessJson(w, v.Snapshot())
	})(w, r)
}

func (h *SessionHttpHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		a, _ := requireActor(r)
		h.workspace.Close(r.Context(), a.SessionID)
		httpjson.WriteSuccessJson(w, nil)
	})(w, r)
}

func (h *SessionHttpHandler) StreamView(w http.ResponseWriter, r *http.Request) {
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		updates, err := v.Subscribe(r.Context())
		if err != nil {
			httpjson.HandleError(httplog.LogEntry(r.Context()), w, err)
			return
		}
		streamEvents(w, r, updates, v.Done())
	})(w, r)
}

func (h *SessionHttpHandler) ApplyScore(w http.ResponseWriter, r *http.Request) {
	type applyScoreRequest struct {
		ChestNumber int    `json:"chestNumber"`
		CategoryID  string `json:"categoryId"`
		Value       int    `json:"value"`
	}
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		var req applyScoreRequest
		if err := httpjson.DecodeBody(r, &req); err != nil {
			httpjson.HandleError(httplog.LogEntry(r.Context()), w, err)
			return
		}
		snap, err := v.ApplyScore(req.ChestNumber, req.CategoryID, req.Value)
		writeSnapshot(w, r, snap, err)
	})(w, r)
}

func (h *SessionHttpHandler) ApplySubScore(w http.ResponseWriter, r *http.Request) {
	type applySubScoreRequest struct {
		ChestNumber int    `json:"chestNumber"`
		CategoryID  string `json:"categoryId"`
		SubFieldID  string `json:"subFieldId"`
		Value       int    `json:"value"`
	}
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		var req applySubScoreRequest
		if err := httpjson.DecodeBody(r, &req); err != nil {
			httpjson.HandleError(httplog.LogEntry(r.Context()), w, err)
			return
		}
		snap, err := v.ApplySubScore(req.ChestNumber, req.CategoryID, req.SubFieldID, req.Value)
		writeSnapshot(w, r, snap, err)
	})(w, r)
}

func (h *SessionHttpHandler) ApplyRemarks(w http.ResponseWriter, r *http.Request) {
	type applyRemarksRequest struct {
		ChestNumber int    `json:"chestNumber"`
		Text        string `json:"text"`
	}
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		var req applyRemarksRequest
		if err := httpjson.DecodeBody(r, &req); err != nil {
			httpjson.HandleError(httplog.LogEntry(r.Context()), w, err)
			return
		}
		snap, err := v.ApplyRemarks(req.ChestNumber, req.Text)
		writeSnapshot(w, r, snap, err)
	})(w, r)
}

func (h *SessionHttpHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	type setActiveRequest struct {
		ChestNumber int `json:"chestNumber"`
	}
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		var req setActiveRequest
		if err := httpjson.DecodeBody(r, &req); err != nil {
			httpjson.HandleError(httplog.LogEntry(r.Context()), w, err)
			return
		}
		snap, err := v.SetActive(req.ChestNumber)
		writeSnapshot(w, r, snap, err)
	})(w, r)
}

type addParticipantResponse struct {
	Snapshot    draft.Snapshot     `json:"snapshot"`
	Participant domain.Participant `json:"participant"`
}

func (h *SessionHttpHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		log := httplog.LogEntry(r.Context())

		var p domain.Participant
		if err := httpjson.DecodeBody(r, &p); err != nil {
			httpjson.HandleError(log, w, err)
			return
		}
		if err := h.validate.StructCtx(r.Context(), p); err != nil {
			httpjson.HandleError(log, w, srvcerror.ErrValidation(err))
			return
		}
		snap, added, err := v.AddParticipant(r.Context(), p)
		if err != nil {
			httpjson.HandleError(log, w, err)
			return
		}
		httpjson.WriteSuccessJson(w, addParticipantResponse{Snapshot: snap, Participant: added})
	})(w, r)
}

type importParticipantsResponse struct {
	Snapshot draft.Snapshot       `json:"snapshot"`
	Added    []domain.Participant `json:"added"`
}

// ImportParticipants adds every row of an uploaded xlsx or csv sheet. The
// whole sheet is validated before the first participant is added.
func (h *SessionHttpHandler) ImportParticipants(w http.ResponseWriter, r *http.Request) {
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		log := httplog.LogEntry(r.Context())

		r.Body = http.MaxBytesReader(w, r.Body, export.MaxImportSize+1<<20)
		file, _, err := r.FormFile("file")
		if err != nil {
			httpjson.HandleError(log, w, srvcerror.ErrInvalidRequest("expected a multipart upload in field \"file\"").SetDebug(err))
			return
		}
		defer file.Close()

		participants, err := export.ReadParticipants(file)
		if err != nil {
			httpjson.HandleError(log, w, err)
			return
		}
		for _, p := range participants {
			if err := h.validate.StructCtx(r.Context(), p); err != nil {
				httpjson.HandleError(log, w, srvcerror.ErrValidation(err))
				return
			}
		}

		res := importParticipantsResponse{Snapshot: v.Snapshot(), Added: []domain.Participant{}}
		for _, p := range participants {
			snap, added, err := v.AddParticipant(r.Context(), p)
			if err != nil {
				httpjson.HandleError(log, w, err)
				return
			}
			res.Snapshot = snap
			res.Added = append(res.Added, added)
		}
		log.Info("participants imported", "count", len(res.Added))
		httpjson.WriteSuccessJson(w, res)
	})(w, r)
}

func (h *SessionHttpHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		n, err := chestNumberParam(r)
		if err != nil {
			httpjson.HandleError(httplog.LogEntry(r.Context()), w, err)
			return
		}
		snap, err := v.RemoveParticipant(r.Context(), n)
		writeSnapshot(w, r, snap, err)
	})(w, r)
}

func (h *SessionHttpHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		snap, err := v.Save(r.Context())
		if err == nil {
			h.forgetScores(v.ID())
		}
		writeSnapshot(w, r, snap, err)
	})(w, r)
}

func (h *SessionHttpHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.withView(func(w http.ResponseWriter, r *http.Request, v *draft.View) {
		snap, err := v.Complete(r.Context())
		if err == nil {
			h.forgetScores(v.ID())
		}
		writeSnapshot(w, r, snap, err)
	})(w, r)
}
