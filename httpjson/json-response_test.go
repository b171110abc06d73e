package httpjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evaltrack/backend/srvcerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) JsonResponse {
	t.Helper()
	var resp JsonResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleErrorServiceError(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))

	rec := httptest.NewRecorder()
	err := srvcerror.New("session_not_found", "session not found").
		SetKind(srvcerror.KindNotFound).
		SetHttpStatusCode(http.StatusNotFound)
	HandleError(log, rec, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "session_not_found", resp.ErrCode)
	assert.Equal(t, "session not found", resp.ErrMsg)
	assert.Contains(t, logs.String(), `"level":"INFO"`)
}

func TestHandleErrorHidesUnknownErrors(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))

	rec := httptest.NewRecorder()
	HandleError(log, rec, errors.New("connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, srvcerror.ErrCodeInternalServerError, resp.ErrCode)
	assert.NotContains(t, resp.ErrMsg, "connection reset")
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
}

func TestDecodeBody(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ann"}`))
	require.NoError(t, DecodeBody(r, &v))
	assert.Equal(t, "Ann", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(`{`)))
	err := DecodeBody(r, &v)
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, srvcerror.ErrCodeInvalidRequest))
}

func TestWriteSuccessJson(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessJson(rec, map[string]int{"total": 18})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"success","data":{"total":18}}`, rec.Body.String())
}
