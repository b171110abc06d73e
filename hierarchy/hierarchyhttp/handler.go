package hierarchyhttp

import (
	"net/http"

	"github.com/evaltrack/backend/access"
	"github.com/evaltrack/backend/hierarchy"
	"github.com/evaltrack/backend/httpjson"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/evaltrack/backend/trainer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
)

type HierarchyHttpHandler struct {
	hierarchy *hierarchy.Hierarchy
	auth      func(http.Handler) http.Handler
}

func NewHierarchyHttpHandler(h *hierarchy.Hierarchy, auth func(http.Handler) http.Handler) *HierarchyHttpHandler {
	return &HierarchyHttpHandler{hierarchy: h, auth: auth}
}

func (h *HierarchyHttpHandler) RegisterRoutes(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/hierarchy", h.ListNodes)
		r.Get("/hierarchy/{nodeID}", h.GetNode)

		r.Group(func(r chi.Router) {
			r.Use(access.RequireRole(trainer.RoleAdmin))
			r.Post("/hierarchy", h.CreateNode)
			r.Patch("/hierarchy/{nodeID}", h.RenameNode)
			r.Delete("/hierarchy/{nodeID}", h.DeleteNode)
		})
	})
}

func nodeIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "nodeID"))
	if err != nil {
		return uuid.Nil, srvcerror.ErrInvalidRequest("node id is not a valid uuid").SetDebug(err)
	}
	return id, nil
}

// ListNodes reads kind and parentId from the query string.
func (h *HierarchyHttpHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	f := hierarchy.Filter{Kind: hierarchy.Kind(r.URL.Query().Get("kind"))}
	if v := r.URL.Query().Get("parentId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpjson.HandleError(log, w, srvcerror.ErrInvalidRequest("parentId is not a valid uuid"))
			return
		}
		f.ParentID = &id
	}

	nodes, err := h.hierarchy.ListNodes(r.Context(), f)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, nodes)
}

func (h *HierarchyHttpHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := nodeIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	n, err := h.hierarchy.GetNode(r.Context(), id)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, n)
}

func (h *HierarchyHttpHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	var p hierarchy.CreateNodeParams
	if err := httpjson.DecodeBody(r, &p); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	n, err := h.hierarchy.CreateNode(r.Context(), p)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, n)
}

func (h *HierarchyHttpHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := nodeIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	var p hierarchy.RenameNodeParams
	if err := httpjson.DecodeBody(r, &p); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	p.ID = id

	n, err := h.hierarchy.RenameNode(r.Context(), p)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, n)
}

func (h *HierarchyHttpHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	id, err := nodeIDParam(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := h.hierarchy.DeleteNode(r.Context(), id); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, nil)
}
