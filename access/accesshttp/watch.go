package accesshttp

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/evaltrack/backend/access"
	"github.com/evaltrack/backend/httpjson"
	"github.com/go-chi/httplog/v2"
	"github.com/golang-jwt/jwt/v5/request"
)

type watchEvent struct {
	Event  string           `json:"event"`
	Whoami *access.Whoami   `json:"whoami,omitempty"`
	Reason access.EndReason `json:"reason,omitempty"`
}

const (
	eventAuthorized = "authorized"
	eventSignedOut  = "signed_out"
)

var tokenExtractor = request.MultiExtractor{
	request.BearerExtractor{},
	request.ArgumentExtractor{"token"},
}

// Watch streams the auth state of a sign-in over a websocket. The socket gets
// the current identity once and a final signed_out event with the reason when
// the session ends.
func (h *AccessHttpHandler) Watch(w http.ResponseWriter, r *http.Request) {
	log := httplog.LogEntry(r.Context())

	token, err := tokenExtractor.ExtractToken(r)
	if err != nil {
		httpjson.HandleError(log, w, access.ErrUnauthenticated().SetDebug(err))
		return
	}
	s, err := h.gate.Authenticate(token)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.wsOrigins,
	})
	if err != nil {
		log.Warn("failed to accept websocket", "error", err)
		return
	}
	defer conn.CloseNow()

	// the client never writes; reading keeps control frames flowing
	ctx := conn.CloseRead(r.Context())

	who := s.Whoami()
	if err := writeEvent(ctx, conn, watchEvent{Event: eventAuthorized, Whoami: &who}); err != nil {
		return
	}

	select {
	case <-ctx.Done():
		conn.Close(websocket.StatusNormalClosure, "closed")
	case <-s.Done():
		_ = writeEvent(ctx, conn, watchEvent{Event: eventSignedOut, Reason: s.Reason()})
		conn.Close(websocket.StatusNormalClosure, string(s.Reason()))
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev watchEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
