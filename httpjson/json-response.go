package httpjson

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evaltrack/backend/srvcerror"
)

type JsonResponse struct {
	Status  string `json:"status"` // "success" or "error"
	Data    any    `json:"data,omitempty"`
	ErrCode string `json:"code,omitempty"`
	ErrMsg  string `json:"message,omitempty"`
}

func WriteSuccessJson(w http.ResponseWriter, data any) {
	resp := JsonResponse{
		Status: "success",
		Data:   data,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func WriteErrorJson(w http.ResponseWriter, errMsg string, statusCode int, errCode string) {
	resp := JsonResponse{
		Status:  "error",
		ErrMsg:  errMsg,
		ErrCode: errCode,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func writeInternalErrorJson(w http.ResponseWriter) {
	WriteErrorJson(w,
		http.StatusText(http.StatusInternalServerError),
		http.StatusInternalServerError,
		srvcerror.ErrCodeInternalServerError)
}

// DecodeBody decodes a JSON request body into v. A malformed body is reported
// to the client as a validation error.
func DecodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return srvcerror.ErrInvalidRequest("malformed request body").SetDebug(err)
	}
	return nil
}

// HandleError writes err as an error response. Service errors keep their
// code and status; anything else is answered as an internal error. Client
// mistakes are logged quietly, server faults loudly.
func HandleError(logger *slog.Logger, w http.ResponseWriter, err error) {
	srvcErr := &srvcerror.Error{}
	if !errors.As(err, &srvcErr) {
		logger.Error("internal server error", "error", err)
		writeInternalErrorJson(w)
		return
	}

	attrs := []any{"code", srvcErr.ErrorCode(), "kind", srvcErr.Kind()}
	if dbg := srvcErr.DebugInfo(); dbg != nil {
		attrs = append(attrs, "debug", dbg)
	}
	if srvcErr.HttpStatusCode() >= http.StatusInternalServerError {
		logger.Error("service error", append(attrs, "error", err)...)
	} else {
		logger.Info("request rejected", append(attrs, "error", err)...)
	}
	WriteErrorJson(w, srvcErr.Error(), srvcErr.HttpStatusCode(), srvcErr.ErrorCode())
}
