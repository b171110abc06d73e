package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/crypto/bcrypt"
)

// Identity is a signed-in account. SessionID names the sign-in, so one
// account may be signed in several times.
type Identity struct {
	UserID      uuid.UUID `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	SessionID   string    `json:"sid"`
}

type SignIn struct {
	Identity  Identity  `json:"identity"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthEvent is delivered on every auth transition of a sign-in. Identity is
// nil when the sign-in ended.
type AuthEvent struct {
	SessionID string
	Identity  *Identity
}

type Options struct {
	TokenTTL    time.Duration
	MaxAttempts int
	// AttemptWindow is how long failed attempts of an email are remembered.
	AttemptWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.TokenTTL <= 0 {
		o.TokenTTL = 24 * time.Hour
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.AttemptWindow <= 0 {
		o.AttemptWindow = 15 * time.Minute
	}
	return o
}

type Provider struct {
	users  UserStore
	jwtKey []byte
	opts   Options

	attempts *cache.Cache
	signIns  *xsync.MapOf[string, Identity]

	listenLock sync.Mutex
	listeners  map[int]func(AuthEvent)
	nextID     int
}

func NewProvider(users UserStore, jwtKey []byte, opts Options) *Provider {
	opts = opts.withDefaults()
	return &Provider{
		users:     users,
		jwtKey:    jwtKey,
		opts:      opts,
		attempts:  cache.New(opts.AttemptWindow, opts.AttemptWindow),
		signIns:   xsync.NewMapOf[string, Identity](),
		listeners: make(map[int]func(AuthEvent)),
	}
}

// SignIn checks the password of email and issues a token for a new sign-in.
func (p *Provider) SignIn(ctx context.Context, email string, password string) (SignIn, error) {
	email = normalizeEmail(email)
	if n, ok := p.attempts.Get(email); ok && n.(int) >= p.opts.MaxAttempts {
		return SignIn{}, newErrTooManyAttempts()
	}

	u, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		if srvcerror.HasCode(err, ErrCodeUserNotFound) {
			p.recordFailure(email)
		}
		return SignIn{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.BcryptPwd), []byte(password)); err != nil {
		p.recordFailure(email)
		return SignIn{}, newErrInvalidCredential()
	}
	if u.Disabled {
		return SignIn{}, newErrAccountDisabled()
	}
	p.attempts.Delete(email)

	id := Identity{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		SessionID:   uuid.NewString(),
	}
	expiresAt := time.Now().Add(p.opts.TokenTTL)
	token, err := GenerateJWT(u.ID, u.Email, id.SessionID, expiresAt, p.jwtKey)
	if err != nil {
		return SignIn{}, srvcerror.ErrInternalSE().SetDebug(fmt.Errorf("failed to sign token: %w", err))
	}

	p.signIns.Store(id.SessionID, id)
	logger.FromContext(ctx).Info("signed in", "user_id", u.ID, "sid", id.SessionID)
	p.emit(AuthEvent{SessionID: id.SessionID, Identity: &id})

	return SignIn{Identity: id, Token: token, ExpiresAt: expiresAt}, nil
}

func (p *Provider) recordFailure(email string) {
	if err := p.attempts.Add(email, 1, cache.DefaultExpiration); err != nil {
		// already present
		_, _ = p.attempts.IncrementInt(email, 1)
	}
}

// SignOut ends a sign-in. Ending an unknown or ended sign-in is a no-op.
func (p *Provider) SignOut(sessionID string) {
	if _, ok := p.signIns.LoadAndDelete(sessionID); !ok {
		return
	}
	p.emit(AuthEvent{SessionID: sessionID})
}

// SignOutUser ends every sign-in of userID.
func (p *Provider) SignOutUser(userID uuid.UUID) {
	sids := []string{}
	p.signIns.Range(func(sid string, id Identity) bool {
		if id.UserID == userID {
			sids = append(sids, sid)
		}
		return true
	})
	for _, sid := range sids {
		p.SignOut(sid)
	}
}

// Verify resolves a bearer token to the live sign-in it was issued for.
func (p *Provider) Verify(token string) (Identity, error) {
	claims, err := ValidateJWT(token, p.jwtKey)
	if err != nil {
		return Identity{}, newErrInvalidToken().SetDebug(err)
	}
	id, ok := p.signIns.Load(claims.SID)
	if !ok {
		return Identity{}, newErrSignedOut()
	}
	return id, nil
}

// OnAuthStateChanged registers cb for every later auth transition. The
// returned func unregisters it.
func (p *Provider) OnAuthStateChanged(cb func(AuthEvent)) (unsubscribe func()) {
	p.listenLock.Lock()
	defer p.listenLock.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = cb
	return func() {
		p.listenLock.Lock()
		defer p.listenLock.Unlock()
		delete(p.listeners, id)
	}
}

func (p *Provider) emit(ev AuthEvent) {
	p.listenLock.Lock()
	cbs := make([]func(AuthEvent), 0, len(p.listeners))
	for _, cb := range p.listeners {
		cbs = append(cbs, cb)
	}
	p.listenLock.Unlock()

	for _, cb := range cbs {
		cb(ev)
	}
}

func (p *Provider) CreateUser(ctx context.Context, email, displayName, password string) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, srvcerror.ErrInternalSE().SetDebug(fmt.Errorf("failed to hash password: %w", err))
	}
	email = normalizeEmail(email)
	if _, err := p.users.GetUserByEmail(ctx, email); err == nil {
		return uuid.Nil, newErrEmailExists()
	}
	u := User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		BcryptPwd:   string(hash),
		CreatedAt:   time.Now(),
	}
	if err := p.users.StoreUser(ctx, u); err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

// SetDisabled blocks or unblocks sign-in. Disabling also ends every live
// sign-in of the account.
func (p *Provider) SetDisabled(ctx context.Context, userID uuid.UUID, disabled bool) error {
	u, err := p.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	u.Disabled = disabled
	if err := p.users.StoreUser(ctx, u); err != nil {
		return err
	}
	if disabled {
		p.SignOutUser(userID)
	}
	return nil
}

func (p *Provider) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := p.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	p.SignOutUser(userID)
	return nil
}
