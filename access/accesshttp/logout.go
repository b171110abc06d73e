package accesshttp

import (
	"net/http"

	"github.com/evaltrack/backend/access"
	"github.com/evaltrack/backend/httpjson"
)

func (h *AccessHttpHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s, ok := access.SessionFromContext(r.Context()); ok {
		h.gate.SignOut(s.ID())
	}
	httpjson.WriteSuccessJson(w, nil)
}

func (h *AccessHttpHandler) Whoami(w http.ResponseWriter, r *http.Request) {
	s, ok := access.SessionFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	httpjson.WriteSuccessJson(w, s.Whoami())
}
