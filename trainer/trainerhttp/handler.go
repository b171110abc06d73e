package trainerhttp

import (
	"net/http"

	"github.com/evaltrack/backend/access"
	"github.com/evaltrack/backend/httpjson"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/evaltrack/backend/trainer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
)

// TrainerHttpHandler is the admin roster. Every route needs the admin role.
type TrainerHttpHandler struct {
	roster *trainer.Roster
	auth   func(http.Handler) http.Handler
}

func NewTrainerHttpHandler(roster *trainer.Roster, auth func(http.Handler) http.Handler) *TrainerHttpHandler {
	return &TrainerHttpHandler{roster: roster, auth: auth}
}

func (h *TrainerHttpHandler) RegisterRoutes(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(access.RequireRole(trainer.RoleAdmin))
		r.Get("/trainers", h.ListTrainers)
		r.Post("/trainers", h.CreateTrainer)
		r.Get("/trainers/{trainerID}", h.GetTrainer)
		r.Put("/trainers/{trainerID}/role", h.SetRole)
		r.Put("/trainers/{trainerID}/disabled", h.SetDisabled)
		r.Delete("/trainers/{trainerID}", h.DeleteTrainer)
	})
}

func trainerIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "trainerID"))
	if err != nil {
		return uuid.Nil, srvcerror.ErrInvalidRequest("trainer id is not a valid uuid").SetDebug(err)
	}
	return id, nil
}

func (h *TrainerHttpHandler) ListTrainers(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	trainers, err := h.roster.ListTrainers(r.Context())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, trainers)
}

func (h *TrainerHttpHandler) GetTrainer(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := trainerIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	t, err := h.roster.GetTrainer(r.Context(), id)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, t)
}

func (h *TrainerHttpHandler) CreateTrainer(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	var p trainer.CreateTrainerParams
	if err := httpjson.DecodeBody(r, &p); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	t, err := h.roster.CreateTrainer(r.Context(), p)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, t)
}

func (h *TrainerHttpHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	type setRoleRequest struct {
		Role trainer.Role `json:"role"`
	}

	log := httplog.LogEntry(r.Context())

	id, err := trainerIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	var req setRoleRequest
	if err := httpjson.DecodeBody(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	t, err := h.roster.SetRole(r.Context(), id, req.Role)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, t)
}

func (h *TrainerHttpHandler) SetDisabled(w http.ResponseWriter, r *http.Request) {
	type setDisabledRequest struct {
		Disabled bool `json:"disabled"`
	}

	log := httplog.LogEntry(r.Context())

	id, err := trainerIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	var req setDisabledRequest
	if err := httpjson.DecodeBody(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := h.roster.SetDisabled(r.Context(), id, req.Disabled); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, map[string]bool{"disabled": req.Disabled})
}

func (h *TrainerHttpHandler) DeleteTrainer(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := trainerIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := h.roster.DeleteTrainer(r.Context(), id); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, nil)
}
