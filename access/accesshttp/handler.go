package accesshttp

import (
	"github.com/evaltrack/backend/access"
	"github.com/go-chi/chi/v5"
)

type AccessHttpHandler struct {
	gate *access.Gate
	// origins allowed to open the auth watch socket, empty for same-origin only
	wsOrigins []string
}

func NewAccessHttpHandler(gate *access.Gate, wsOrigins []string) *AccessHttpHandler {
	return &AccessHttpHandler{
		gate:      gate,
		wsOrigins: wsOrigins,
	}
}

func (h *AccessHttpHandler) RegisterRoutes(r *chi.Mux) {
	r.Post("/auth/login", h.Login)
	// browsers cannot set headers on a websocket, so the watch route reads the
	// token itself
	r.Get("/auth/watch", h.Watch)
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Middleware)
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/whoami", h.Whoami)
	})
}
