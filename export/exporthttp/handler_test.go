package exporthttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evaltrack/backend/export"
	"github.com/evaltrack/backend/export/exporthttp"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/trainer"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noAuth(next http.Handler) http.Handler { return next }

type uploader struct{}

func (uploader) Upload(ctx context.Context, key string, contentType string, content []byte) (string, error) {
	return "https://files.example.com/" + key, nil
}

func newRouter(up export.Uploader) *chi.Mux {
	exporter := export.Exporter{
		ListSessions: func(ctx context.Context, f domain.Filter) ([]domain.Session, error) {
			return []domain.Session{}, nil
		},
		LookupTrainer: func(ctx context.Context, userID uuid.UUID) (trainer.Record, error) {
			return trainer.Record{}, nil
		},
		Uploader: up,
	}
	r := chi.NewRouter()
	exporthttp.NewExportHttpHandler(exporter, noAuth).RegisterRoutes(r)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestExportDownload(t *testing.T) {
	project := uuid.New()
	w := get(newRouter(nil), "/export?projectId="+project.String()+"&from=2024-03-01&to=2024-03-08")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "evaluations_2024-03-01_2024-03-08.xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestExportUploaded(t *testing.T) {
	project := uuid.New()
	w := get(newRouter(uploader{}), "/export?projectId="+project.String()+"&from=2024-03-01&to=2024-03-02")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Data export.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Data.URL, "https://files.example.com/exports/"+project.String())
}

func TestExportDisabled(t *testing.T) {
	project := uuid.New()
	tests := map[string]string{
		"eight days": "/export?projectId=" + project.String() + "&from=2024-03-01&to=2024-03-09",
		"no project": "/export?from=2024-03-01&to=2024-03-02",
		"no dates":   "/export?projectId=" + project.String(),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			w := get(newRouter(nil), path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), export.ErrCodeExportDisabled)
		})
	}

	w := get(newRouter(nil), "/export?projectId=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
