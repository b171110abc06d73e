package trainerhttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/identity"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/evaltrack/backend/trainer"
	"github.com/evaltrack/backend/trainer/trainerhttp"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := actor.Actor{UserID: uuid.New(), Role: trainer.Role(r.Header.Get("X-Role"))}
		next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
	})
}

type response struct {
	Data json.RawMessage `json:"data"`
	Code string          `json:"code"`
}

func do(t *testing.T, h http.Handler, role trainer.Role, method, path string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Role", string(role))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var res response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return w.Code, res
}

func TestRosterRoutes(t *testing.T) {
	provider := identity.NewProvider(identity.NewInMemUserStore(), []byte("test"), identity.Options{})
	repo := trainer.NewInMemTrainerRepo()
	r := chi.NewRouter()
	trainerhttp.NewTrainerHttpHandler(trainer.NewRoster(repo, provider), roleAuth).RegisterRoutes(r)

	code, _ := do(t, r, trainer.RoleUser, http.MethodGet, "/trainers", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, res := do(t, r, trainer.RoleAdmin, http.MethodPost, "/trainers", map[string]any{
		"name": "Asha", "email": "asha@example.com", "password": "password1", "role": "user",
	})
	require.Equal(t, http.StatusOK, code, res.Code)
	var created trainer.Trainer
	require.NoError(t, json.Unmarshal(res.Data, &created))

	code, res = do(t, r, trainer.RoleAdmin, http.MethodPut, "/trainers/"+created.UserID.String()+"/role", map[string]any{"role": "admin"})
	require.Equal(t, http.StatusOK, code, res.Code)

	code, res = do(t, r, trainer.RoleAdmin, http.MethodPut, "/trainers/"+created.UserID.String()+"/role", map[string]any{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, trainer.ErrCodeInvalidRole, res.Code)

	code, res = do(t, r, trainer.RoleAdmin, http.MethodPut, "/trainers/"+created.UserID.String()+"/disabled", map[string]any{"disabled": true})
	require.Equal(t, http.StatusOK, code, res.Code)
	_, err := provider.SignIn(context.Background(), "asha@example.com", "password1")
	assert.True(t, srvcerror.HasCode(err, identity.ErrCodeAccountDisabled))

	code, res = do(t, r, trainer.RoleAdmin, http.MethodGet, "/trainers", nil)
	require.Equal(t, http.StatusOK, code)
	var list []trainer.Trainer
	require.NoError(t, json.Unmarshal(res.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, trainer.RoleAdmin, list[0].Role)

	code, _ = do(t, r, trainer.RoleAdmin, http.MethodDelete, "/trainers/"+created.UserID.String(), nil)
	require.Equal(t, http.StatusOK, code)

	code, res = do(t, r, trainer.RoleAdmin, http.MethodGet, "/trainers/"+created.UserID.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, trainer.ErrCodeTrainerNotFound, res.Code)
}
