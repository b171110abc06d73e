package access

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/httpjson"
	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/trainer"
	"github.com/go-chi/httplog/v2"
	"github.com/golang-jwt/jwt/v5/request"
	"github.com/thoas/go-funk"
)

type ctxKey struct{}

// Middleware admits requests that carry a bearer token of a live session and
// puts the session and its actor into the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		log := httplog.LogEntry(r.Context())

		token, err := request.BearerExtractor{}.ExtractToken(r)
		if err != nil {
			httpjson.HandleError(log, w, ErrUnauthenticated().SetDebug(err))
			return
		}
		s, err := g.Authenticate(token)
		if err != nil {
			httpjson.HandleError(log, w, err)
			return
		}

		a := s.Actor()
		ctx := actor.WithActor(r.Context(), a)
		ctx = context.WithValue(ctx, ctxKey{}, s)
		ctx = logger.With(ctx, "user_id", a.UserID.String())
		httplog.LogEntrySetField(ctx, "user_id", slog.StringValue(a.UserID.String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hfn)
}

// Authenticate resolves a bearer token to its live session.
func (g *Gate) Authenticate(token string) (*AuthSession, error) {
	id, err := g.provider.Verify(token)
	if err != nil {
		return nil, err
	}
	s, ok := g.Session(id.SessionID)
	if !ok {
		return nil, ErrUnauthenticated()
	}
	return s, nil
}

// SessionFromContext returns the session put there by Middleware.
func SessionFromContext(ctx context.Context) (*AuthSession, bool) {
	s, ok := ctx.Value(ctxKey{}).(*AuthSession)
	return s, ok
}

// RequireRole lets through only actors holding one of roles.
func RequireRole(roles ...trainer.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			a, ok := actor.FromContext(r.Context())
			if !ok {
				httpjson.HandleError(httplog.LogEntry(r.Context()), w, ErrUnauthenticated())
				return
			}
			if !funk.Contains(roles, a.Role) {
				httpjson.HandleError(httplog.LogEntry(r.Context()), w, ErrForbidden())
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
