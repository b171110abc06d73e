// Package access resolves signed-in identities to trainer roles and keeps
// every authorized sign-in bound to its live role record.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/identity"
	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/trainer"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthorized      State = "authorized"
	StateRejected        State = "rejected"
)

type EndReason string

const (
	ReasonSignedOut   EndReason = "signed_out"
	ReasonDeactivated EndReason = "account_deactivated"
	ReasonRoleRemoved EndReason = "role_removed"
)

type IdentityProvider interface {
	SignIn(ctx context.Context, email string, password string) (identity.SignIn, error)
	SignOut(sessionID string)
	Verify(token string) (identity.Identity, error)
	OnAuthStateChanged(cb func(identity.AuthEvent)) (unsubscribe func())
}

type Gate struct {
	provider IdentityProvider
	trainers trainer.Repo

	sessions *xsync.MapOf[string, *AuthSession]

	hookLock sync.Mutex
	hooks    []func(s *AuthSession, reason EndReason)

	unsubscribe func()
}

func NewGate(provider IdentityProvider, trainers trainer.Repo) *Gate {
	g := &Gate{
		provider: provider,
		trainers: trainers,
		sessions: xsync.NewMapOf[string, *AuthSession](),
	}
	g.unsubscribe = provider.OnAuthStateChanged(g.onAuthEvent)
	return g
}

// Close ends every live session and detaches from the identity provider.
func (g *Gate) Close() {
	g.unsubscribe()
	g.sessions.Range(func(_ string, s *AuthSession) bool {
		s.end(ReasonSignedOut)
		return true
	})
}

func (g *Gate) onAuthEvent(ev identity.AuthEvent) {
	if ev.Identity != nil {
		return
	}
	if s, ok := g.sessions.Load(ev.SessionID); ok {
		s.end(ReasonSignedOut)
	}
}

// OnSessionEnded registers hook to run once for every session that ends,
// whatever the reason.
func (g *Gate) OnSessionEnded(hook func(s *AuthSession, reason EndReason)) {
	g.hookLock.Lock()
	defer g.hookLock.Unlock()
	g.hooks = append(g.hooks, hook)
}

func (g *Gate) fireEnded(s *AuthSession, reason EndReason) {
	g.hookLock.Lock()
	hooks := append([]func(*AuthSession, EndReason){}, g.hooks...)
	g.hookLock.Unlock()
	for _, hook := range hooks {
		hook(s, reason)
	}
}

// SignIn authenticates with the identity provider and admits the result.
func (g *Gate) SignIn(ctx context.Context, email string, password string) (identity.SignIn, *AuthSession, error) {
	logger.FromContext(ctx).Debug("authenticating", "state", StateAuthenticating)
	res, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		return identity.SignIn{}, nil, err
	}
	s, err := g.Admit(ctx, res.Identity)
	if err != nil {
		return identity.SignIn{}, nil, err
	}
	return res, s, nil
}

// Admit looks up the role record of a fresh sign-in. Without a record, or
// with a dead one, the sign-in is ended and rejected. Otherwise the returned
// session follows the record until it ends.
func (g *Gate) Admit(ctx context.Context, id identity.Identity) (*AuthSession, error) {
	log := logger.FromContext(ctx).With("user_id", id.UserID, "sid", id.SessionID)

	rec, err := trainer.Lookup(ctx, g.trainers, id.UserID)
	if err != nil {
		g.provider.SignOut(id.SessionID)
		return nil, fmt.Errorf("failed to look up role record: %w", err)
	}
	if !rec.Found {
		g.provider.SignOut(id.SessionID)
		log.Warn("sign-in rejected", "state", StateRejected, "reason", ErrCodeNotAuthorized)
		return nil, newErrNotAuthorized()
	}
	if rec.Trainer.Role == trainer.RoleDead {
		g.provider.SignOut(id.SessionID)
		log.Warn("sign-in rejected", "state", StateRejected, "reason", ErrCodeAccountDeactivated)
		return nil, newErrAccountDeactivated()
	}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	updates, err := g.trainers.WatchTrainer(watchCtx, id.UserID)
	if err != nil {
		cancel()
		g.provider.SignOut(id.SessionID)
		return nil, fmt.Errorf("failed to watch role record: %w", err)
	}

	s := &AuthSession{
		gate:     g,
		identity: id,
		cancel:   cancel,
		done:     make(chan struct{}),
		log:      log,
		role:     rec.Trainer.Role,
		name:     rec.Trainer.Name,
		state:    StateAuthorized,
	}
	g.sessions.Store(id.SessionID, s)
	go s.watch(updates)

	log.Info("sign-in admitted", "role", s.role)
	return s, nil
}

// Session returns the live session of a sign-in.
func (g *Gate) Session(sessionID string) (*AuthSession, bool) {
	s, ok := g.sessions.Load(sessionID)
	if !ok || s.State() != StateAuthorized {
		return nil, false
	}
	return s, true
}

// SignOut ends a sign-in on request of its owner.
func (g *Gate) SignOut(sessionID string) {
	if s, ok := g.sessions.Load(sessionID); ok {
		s.end(ReasonSignedOut)
		return
	}
	g.provider.SignOut(sessionID)
}

// AuthSession is one authorized sign-in. It owns the subscription on its
// role record, released when the session ends.
type AuthSession struct {
	gate     *Gate
	identity identity.Identity
	cancel   context.CancelFunc
	done     chan struct{}
	log      *slog.Logger

	lock   sync.Mutex
	role   trainer.Role
	name   string
	state  State
	reason EndReason
}

func (s *AuthSession) ID() string { return s.identity.SessionID }

func (s *AuthSession) UserID() uuid.UUID { return s.identity.UserID }

// Done is closed when the session ends.
func (s *AuthSession) Done() <-chan struct{} { return s.done }

func (s *AuthSession) Role() trainer.Role {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.role
}

func (s *AuthSession) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Reason is why the session ended, empty while it is live.
func (s *AuthSession) Reason() EndReason {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.reason
}

func (s *AuthSession) Actor() actor.Actor {
	return actor.Actor{
		UserID:    s.identity.UserID,
		Email:     s.identity.Email,
		Role:      s.Role(),
		SessionID: s.identity.SessionID,
	}
}

type Whoami struct {
	UserID      uuid.UUID    `json:"userId"`
	Email       string       `json:"email"`
	DisplayName string       `json:"displayName"`
	Name        string       `json:"name"`
	Role        trainer.Role `json:"role"`
	State       State        `json:"state"`
}

func (s *AuthSession) Whoami() Whoami {
	s.lock.Lock()
	defer s.lock.Unlock()
	return Whoami{
		UserID:      s.identity.UserID,
		Email:       s.identity.Email,
		DisplayName: s.identity.DisplayName,
		Name:        s.name,
		Role:        s.role,
		State:       s.state,
	}
}

func (s *AuthSession) watch(updates <-chan trainer.Record) {
	for rec := range updates {
		switch {
		case !rec.Found:
			s.end(ReasonRoleRemoved)
		case rec.Trainer.Role == trainer.RoleDead:
			s.end(ReasonDeactivated)
		default:
			s.lock.Lock()
			if s.role != rec.Trainer.Role {
				s.log.Info("role changed", "from", s.role, "to", rec.Trainer.Role)
			}
			s.role = rec.Trainer.Role
			s.name = rec.Trainer.Name
			s.lock.Unlock()
		}
	}
}

// end moves the session to unauthenticated exactly once: the role
// subscription is released, the sign-in ended and the hooks fired.
func (s *AuthSession) end(reason EndReason) {
	s.lock.Lock()
	if s.state != StateAuthorized {
		s.lock.Unlock()
		return
	}
	s.state = StateUnauthenticated
	s.reason = reason
	s.lock.Unlock()

	s.cancel()
	s.gate.sessions.Delete(s.identity.SessionID)
	s.gate.provider.SignOut(s.identity.SessionID)
	s.gate.fireEnded(s, reason)
	close(s.done)

	s.log.Info("session ended", "reason", reason)
}
