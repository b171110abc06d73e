package draft

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// Workspace holds the open session view of every sign-in. A sign-in has at
// most one open view; opening another session switches away from the
// previous one. Sign-ins of one trainer on several devices keep their own
// views.
type Workspace struct {
	remote Remote
	store  Store
	opts   Options

	slots *xsync.MapOf[string, *slot]
}

type slot struct {
	lock sync.Mutex
	view *View
}

func NewWorkspace(remote Remote, store Store, opts Options) *Workspace {
	return &Workspace{
		remote: remote,
		store:  store,
		opts:   opts,
		slots:  xsync.NewMapOf[string, *slot](),
	}
}

func (w *Workspace) slot(signInID string) *slot {
	s, _ := w.slots.LoadOrStore(signInID, &slot{})
	return s
}

// Open returns the view of sessionID for signInID, opening it when needed.
func (w *Workspace) Open(ctx context.Context, signInID string, sessionID uuid.UUID) (*View, error) {
	s := w.slot(signInID)
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.view != nil {
		if s.view.ID() == sessionID && !s.view.Closed() {
			return s.view, nil
		}
		s.view.Close(ctx)
		s.view = nil
	}

	v, err := Open(ctx, w.remote, w.store, sessionID, w.opts)
	if err != nil {
		return nil, err
	}
	s.view = v
	return v, nil
}

// Get returns the open view of sessionID for signInID.
func (w *Workspace) Get(signInID string, sessionID uuid.UUID) (*View, error) {
	s, ok := w.slots.Load(signInID)
	if !ok {
		return nil, newErrViewNotOpen()
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.view == nil || s.view.ID() != sessionID || s.view.Closed() {
		return nil, newErrViewNotOpen()
	}
	return s.view, nil
}

// Close switches signInID away from its open view, if any, and forgets the
// sign-in.
func (w *Workspace) Close(ctx context.Context, signInID string) {
	s, ok := w.slots.LoadAndDelete(signInID)
	if !ok {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.view != nil {
		s.view.Close(ctx)
		s.view = nil
	}
}

// CloseAll switches every trainer away. Used on shutdown.
func (w *Workspace) CloseAll(ctx context.Context) {
	w.slots.Range(func(signInID string, _ *slot) bool {
		w.Close(ctx, signInID)
		return true
	})
}
