package exporthttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/evaltrack/backend/export"
	"github.com/evaltrack/backend/httpjson"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
)

type ExportHttpHandler struct {
	exporter export.Exporter
	auth     func(http.Handler) http.Handler
}

// NewExportHttpHandler serves exports. exporter.ListSessions must scope
// sessions by the actor in the request context.
func NewExportHttpHandler(exporter export.Exporter, auth func(http.Handler) http.Handler) *ExportHttpHandler {
	return &ExportHttpHandler{exporter: exporter, auth: auth}
}

func (h *ExportHttpHandler) RegisterRoutes(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/export", h.Export)
	})
}

// Export reads projectId, from and to (YYYY-MM-DD). An uploaded export is
// answered with its link, otherwise the workbook is sent as an attachment.
func (h *ExportHttpHandler) Export(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	f, err := filterFromQuery(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	res, err := h.exporter.Export(r.Context(), f)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	if res.URL != "" {
		httpjson.WriteSuccessJson(w, res)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Content); err != nil {
		log.Warn("failed to send export", "error", err)
	}
}

// filterFromQuery leaves absent fields nil so that the exporter reports the
// filter as incomplete.
func filterFromQuery(r *http.Request) (export.Filter, error) {
	q := r.URL.Query()
	f := export.Filter{}
	if v := q.Get("projectId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, srvcerror.ErrInvalidRequest("projectId is not a valid uuid")
		}
		f.ProjectID = &id
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return f, srvcerror.ErrInvalidRequest(name + " must be YYYY-MM-DD")
		}
		*dst = &t
	}
	return f, nil
}
