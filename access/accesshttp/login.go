package accesshttp

import (
	"net/http"
	"time"

	"github.com/evaltrack/backend/access"
	"github.com/evaltrack/backend/httpjson"
	"github.com/go-chi/httplog/v2"
)

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Whoami    access.Whoami `json:"whoami"`
}

func (h *AccessHttpHandler) Login(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	log := httplog.LogEntry(r.Context())

	var req loginRequest
	if err := httpjson.DecodeBody(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	res, s, err := h.gate.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	httpjson.WriteSuccessJson(w, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Whoami:    s.Whoami(),
	})
}
