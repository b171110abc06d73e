package sessionhttp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/session/draft"
	"github.com/evaltrack/backend/session/sessionerror"
	"github.com/evaltrack/backend/session/sessionsrvc"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// ScoresTTL bounds how stale a cached score summary may be when the session
// was written outside this handler.
const ScoresTTL = 3 * time.Second

type SessionHttpHandler struct {
	srvc      *sessionsrvc.SessionSrvc
	workspace *draft.Workspace
	auth      func(http.Handler) http.Handler
	validate  *validator.Validate

	scores *cache.Cache
	reads  singleflight.Group
}

// NewSessionHttpHandler serves sessions and evaluation views. auth must put
// the actor into the request context.
func NewSessionHttpHandler(
	srvc *sessionsrvc.SessionSrvc,
	workspace *draft.Workspace,
	auth func(http.Handler) http.Handler,
) *SessionHttpHandler {
	return &SessionHttpHandler{
		srvc:      srvc,
		workspace: workspace,
		auth:      auth,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		scores:    cache.New(ScoresTTL, 2*ScoresTTL),
	}
}

func (h *SessionHttpHandler) RegisterRoutes(r *chi.Mux) {
	r.Post("/register/{sessionID}", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/sessions", h.ListSessions)
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/stream", h.StreamSessionList)
		r.Get("/sessions/{sessionID}", h.GetSession)
		r.Patch("/sessions/{sessionID}", h.UpdateDetails)
		r.Delete("/sessions/{sessionID}", h.DeleteSession)
		r.Get("/sessions/{sessionID}/scores", h.GetScores)
		r.Get("/sessions/{sessionID}/stream", h.StreamSession)

		r.Route("/sessions/{sessionID}/view", func(r chi.Router) {
			r.Post("/", h.OpenView)
			r.Get("/", h.GetView)
			r.Delete("/", h.CloseView)
			r.Get("/stream", h.StreamView)
			r.Put("/scores", h.ApplyScore)
			r.Put("/subscores", h.ApplySubScore)
			r.Put("/remarks", h.ApplyRemarks)
			r.Put("/active", h.SetActive)
			r.Post("/participants", h.AddParticipant)
			r.Post("/participants/import", h.ImportParticipants)
			r.Delete("/participants/{chestNumber}", h.RemoveParticipant)
			r.Post("/save", h.Save)
			r.Post("/complete", h.Complete)
		})
	})
}

func sessionIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		return uuid.Nil, srvcerror.ErrInvalidRequest("session id is not a valid uuid").SetDebug(err)
	}
	return id, nil
}

func chestNumberParam(r *http.Request) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "chestNumber"))
	if err != nil || n <= 0 {
		return 0, srvcerror.ErrInvalidRequest("chest number must be a positive integer")
	}
	return n, nil
}

func requireActor(r *http.Request) (actor.Actor, error) {
	a, ok := actor.FromContext(r.Context())
	if !ok {
		return actor.Actor{}, sessionerror.ErrUnauthenticated()
	}
	return a, nil
}

func (h *SessionHttpHandler) forgetScores(sessionID uuid.UUID) {
	prefix := sessionID.String() + ":"
	for key := range h.scores.Items() {
		if strings.HasPrefix(key, prefix) {
			h.scores.Delete(key)
		}
	}
}
