package draft

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/evaltrack/backend/feed"
	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const DefaultFlushDelay = time.Second

type Options struct {
	// FlushDelay is how long edits have to settle before the local draft is
	// written. Zero means DefaultFlushDelay.
	FlushDelay time.Duration
	Policy     Policy
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.FlushDelay <= 0 {
		o.FlushDelay = DefaultFlushDelay
	}
	if o.Policy == nil {
		o.Policy = DraftWins{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Snapshot is the state of a view as shown to the trainer.
type Snapshot struct {
	Session domain.Session `json:"session"`
	Active  *domain.Active `json:"active"`
	// Dirty is set while local edits have not been committed to the server.
	Dirty bool `json:"dirty"`
}

// View is an open evaluation screen of one session. Edits are applied to the
// in-memory session, written to the local store after they settle and sent
// to the server only on Save or Complete.
type View struct {
	id     uuid.UUID
	remote Remote
	store  Store
	opts   Options
	log    *slog.Logger

	lock    sync.Mutex
	session domain.Session
	active  *domain.Active
	dirty   bool
	version uint64 // bumped by every local edit
	timer   *time.Timer
	closed  bool

	cancel  context.CancelFunc
	done    chan struct{}
	updates *feed.Hub[uuid.UUID, Snapshot]
}

// Open reads the server document and the local draft of a session
// concurrently, merges them with the configured policy and starts following
// live server updates. The subscription outlives ctx and ends on Close.
func Open(ctx context.Context, remote Remote, store Store, id uuid.UUID, opts Options) (*View, error) {
	opts = opts.withDefaults()
	log := logger.FromContext(ctx).With("session_id", id.String())

	var (
		server   domain.Session
		local    Draft
		hasLocal bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := remote.GetSession(gctx, id)
		if err != nil {
			return err
		}
		server = s
		return nil
	})
	g.Go(func() error {
		d, ok, err := store.Get(gctx, id)
		if err != nil {
			// an unreadable draft must not lock the trainer out of the session
			log.Warn("failed to read local draft", "error", err)
			return nil
		}
		local, hasLocal = d, ok
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var draftPtr *Draft
	if hasLocal {
		draftPtr = &local
	}
	merged := opts.Policy.OnLoad(server, draftPtr)

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	updates, err := remote.WatchSession(subCtx, id)
	if err != nil {
		cancel()
		return nil, err
	}
	// the replayed value is the document just loaded
	select {
	case <-updates:
	default:
	}

	v := &View{
		id:      id,
		remote:  remote,
		store:   store,
		opts:    opts,
		log:     log,
		session: merged,
		dirty:   draftPtr != nil && !draftPtr.Empty(),
		cancel:  cancel,
		done:    make(chan struct{}),
		updates: feed.NewHub[uuid.UUID, Snapshot](),
	}
	v.refreshActiveLocked()

	go v.follow(updates)

	log.Info("session view opened", "from_draft", v.dirty)
	return v, nil
}

func (v *View) ID() uuid.UUID { return v.id }

// Done is closed once the view is closed and stopped following the server.
func (v *View) Done() <-chan struct{} { return v.done }

func (v *View) follow(updates <-chan domain.Session) {
	defer close(v.done)
	for remote := range updates {
		v.lock.Lock()
		if v.closed {
			v.lock.Unlock()
			continue
		}
		v.session = v.opts.Policy.OnRemote(v.session, remote)
		v.refreshActiveLocked()
		snap := v.snapshotLocked()
		v.lock.Unlock()

		v.updates.Publish(v.id, snap)
	}
}

// refreshActiveLocked keeps the active participant in step with the session.
// A participant that disappeared is replaced by the first remaining one.
func (v *View) refreshActiveLocked() {
	participants := v.session.Participants()
	if v.active != nil {
		if p, ok := v.session.Participant(v.active.Participant.ChestNumber); ok {
			a := domain.Hydrate(v.session, p)
			v.active = &a
			return
		}
	}
	if len(participants) == 0 {
		v.active = nil
		return
	}
	a := domain.Hydrate(v.session, participants[0])
	v.active = &a
}

func (v *View) snapshotLocked() Snapshot {
	snap := Snapshot{Session: v.session.Clone(), Dirty: v.dirty}
	if v.active != nil {
		a := *v.active
		snap.Active = &a
	}
	return snap
}

func (v *View) Snapshot() Snapshot {
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.snapshotLocked()
}

// Subscribe streams snapshots of the view, starting with the current one.
func (v *View) Subscribe(ctx context.Context) (<-chan Snapshot, error) {
	return v.updates.Subscribe(ctx, v.id, func(ctx context.Context) (Snapshot, error) {
		return v.Snapshot(), nil
	})
}

// mutate applies edit to the session, makes focus the active participant when
// it is non-zero and schedules a draft flush.
func (v *View) mutate(focus int, edit func(s domain.Session) (domain.Session, error)) (Snapshot, error) {
	v.lock.Lock()
	if v.closed {
		v.lock.Unlock()
		return Snapshot{}, newErrViewClosed()
	}
	if v.session.Completed {
		v.lock.Unlock()
		return Snapshot{}, newErrSessionCompleted()
	}
	next, err := edit(v.session)
	if err != nil {
		v.lock.Unlock()
		return Snapshot{}, err
	}
	v.session = next
	v.dirty = true
	v.version++
	if focus > 0 {
		if p, ok := v.session.Participant(focus); ok {
			a := domain.Hydrate(v.session, p)
			v.active = &a
		}
	}
	v.refreshActiveLocked()
	v.scheduleFlushLocked()
	snap := v.snapshotLocked()
	v.lock.Unlock()

	v.updates.Publish(v.id, snap)
	return snap, nil
}

func (v *View) ApplyScore(chestNumber int, categoryID string, value int) (Snapshot, error) {
	return v.mutate(chestNumber, func(s domain.Session) (domain.Session, error) {
		p, ok := s.Participant(chestNumber)
		if !ok {
			return s, newErrParticipantNotFound(chestNumber)
		}
		cat, ok := rubric.Lookup(s.Type, categoryID)
		if !ok {
			return s, newErrUnknownCategory(categoryID)
		}
		if len(cat.SubFields) > 0 {
			return s, newErrSubFieldRequired(categoryID)
		}
		return domain.ApplyScore(s, p, cat.ID, cat.Clamp(value)), nil
	})
}

func (v *View) ApplySubScore(chestNumber int, categoryID string, subFieldID string, value int) (Snapshot, error) {
	return v.mutate(chestNumber, func(s domain.Session) (domain.Session, error) {
		p, ok := s.Participant(chestNumber)
		if !ok {
			return s, newErrParticipantNotFound(chestNumber)
		}
		cat, ok := rubric.Lookup(s.Type, categoryID)
		if !ok {
			return s, newErrUnknownCategory(categoryID)
		}
		sf, ok := cat.SubField(subFieldID)
		if !ok {
			return s, newErrUnknownCategory(rubric.SubScoreKey(categoryID, subFieldID))
		}
		return domain.ApplySubScore(s, p, cat.ID, sf.ID, sf.Clamp(value)), nil
	})
}

func (v *View) ApplyRemarks(chestNumber int, text string) (Snapshot, error) {
	return v.mutate(chestNumber, func(s domain.Session) (domain.Session, error) {
		p, ok := s.Participant(chestNumber)
		if !ok {
			return s, newErrParticipantNotFound(chestNumber)
		}
		return domain.ApplyRemarks(s, p, text), nil
	})
}

// checkEditable fails when the view no longer accepts edits or check
// rejects the current session.
func (v *View) checkEditable(check func(s domain.Session) error) error {
	v.lock.Lock()
	defer v.lock.Unlock()
	if v.closed {
		return newErrViewClosed()
	}
	if v.session.Completed {
		return newErrSessionCompleted()
	}
	return check(v.session)
}

// AddParticipant adds a student to a group discussion. The chest number is
// allocated by the server, never locally, so a participant registering at the
// same time gets a different one. The new student becomes the active
// participant.
func (v *View) AddParticipant(ctx context.Context, p domain.Participant) (Snapshot, domain.Participant, error) {
	err := v.checkEditable(func(s domain.Session) error {
		if s.Type != rubric.TypeGD {
			return newErrNotGroupSession()
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, domain.Participant{}, err
	}

	added, err := v.remote.AddParticipant(context.WithoutCancel(ctx), v.id, p)
	if err != nil {
		return Snapshot{}, domain.Participant{}, commitError(err)
	}

	v.lock.Lock()
	// the live update may have delivered the participant already
	v.session = withParticipant(v.session, added)
	if current, ok := v.session.Participant(added.ChestNumber); ok {
		a := domain.Hydrate(v.session, current)
		v.active = &a
	}
	snap := v.afterServerEditLocked()
	v.lock.Unlock()

	v.updates.Publish(v.id, snap)
	v.log.Info("participant added", "chest_number", added.ChestNumber)
	return snap, added, nil
}

// RemoveParticipant removes a student and its evaluation on the server and
// then locally. Its chest number is never handed out again.
func (v *View) RemoveParticipant(ctx context.Context, chestNumber int) (Snapshot, error) {
	err := v.checkEditable(func(s domain.Session) error {
		if s.Type != rubric.TypeGD {
			return newErrNotGroupSession()
		}
		if _, ok := s.Participant(chestNumber); !ok {
			return newErrParticipantNotFound(chestNumber)
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	if err := v.remote.RemoveParticipant(context.WithoutCancel(ctx), v.id, chestNumber); err != nil {
		return Snapshot{}, commitError(err)
	}

	v.lock.Lock()
	next, active := domain.RemoveParticipant(v.session, v.active, chestNumber)
	next.Evaluations = ofParticipants(next, next.Evaluations)
	v.session = next
	v.active = active
	snap := v.afterServerEditLocked()
	v.lock.Unlock()

	v.updates.Publish(v.id, snap)
	v.log.Info("participant removed", "chest_number", chestNumber)
	return snap, nil
}

// afterServerEditLocked settles the view after a participant change that the
// server already holds. Pending evaluations keep their draft current.
func (v *View) afterServerEditLocked() Snapshot {
	v.refreshActiveLocked()
	if v.dirty && !v.closed {
		v.version++
		v.scheduleFlushLocked()
	}
	return v.snapshotLocked()
}

// withParticipant adds p to the students of s unless it is there already,
// keeping students ordered by chest number.
func withParticipant(s domain.Session, p domain.Participant) domain.Session {
	next := s.Clone()
	if _, ok := next.Participant(p.ChestNumber); !ok {
		next.Students = append(next.Students, p)
		slices.SortFunc(next.Students, func(a, b domain.Participant) int {
			return cmp.Compare(a.ChestNumber, b.ChestNumber)
		})
	}
	if p.ChestNumber > next.LastChestNumber {
		next.LastChestNumber = p.ChestNumber
	}
	return next
}

// SetActive selects the participant being scored. It is not an edit.
func (v *View) SetActive(chestNumber int) (Snapshot, error) {
	v.lock.Lock()
	if v.closed {
		v.lock.Unlock()
		return Snapshot{}, newErrViewClosed()
	}
	p, ok := v.session.Participant(chestNumber)
	if !ok {
		v.lock.Unlock()
		return Snapshot{}, newErrParticipantNotFound(chestNumber)
	}
	a := domain.Hydrate(v.session, p)
	v.active = &a
	snap := v.snapshotLocked()
	v.lock.Unlock()

	v.updates.Publish(v.id, snap)
	return snap, nil
}

func (v *View) scheduleFlushLocked() {
	if v.timer == nil {
		v.timer = time.AfterFunc(v.opts.FlushDelay, v.flush)
		return
	}
	v.timer.Reset(v.opts.FlushDelay)
}

// flush writes the current state, not the state at scheduling time, so
// a burst of edits ends in one write of the latest values.
func (v *View) flush() {
	v.lock.Lock()
	defer v.lock.Unlock()
	if v.closed || !v.dirty {
		return
	}
	v.writeDraftLocked(context.Background())
}

func (v *View) writeDraftLocked(ctx context.Context) {
	d := fromSession(v.session, v.opts.Now())
	if err := v.store.Set(ctx, d); err != nil {
		v.log.Error("failed to write local draft", "error", err)
	}
}

func (v *View) stopTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
	}
}

// Save commits the evaluations and participants to the server. On success
// the local draft is deleted. On failure it is written right away and kept.
func (v *View) Save(ctx context.Context) (Snapshot, error) {
	return v.commit(ctx, false)
}

// Complete commits like Save and then locks the session.
func (v *View) Complete(ctx context.Context) (Snapshot, error) {
	return v.commit(ctx, true)
}

func (v *View) commit(ctx context.Context, complete bool) (Snapshot, error) {
	v.lock.Lock()
	if v.closed {
		v.lock.Unlock()
		return Snapshot{}, newErrViewClosed()
	}
	if v.session.Completed {
		v.lock.Unlock()
		return Snapshot{}, newErrSessionCompleted()
	}
	s := withIdentities(v.session)
	version := v.version
	v.lock.Unlock()

	// once issued the write runs to the end even if the caller goes away
	writeCtx := context.WithoutCancel(ctx)
	var err error
	if complete {
		err = v.remote.CompleteSession(writeCtx, s)
	} else {
		err = v.remote.SaveEvaluations(writeCtx, s)
	}

	v.lock.Lock()
	if err != nil {
		v.dirty = true
		v.stopTimerLocked()
		v.writeDraftLocked(writeCtx)
		v.lock.Unlock()
		v.log.Warn("failed to commit evaluations", "complete", complete, "error", err)
		return Snapshot{}, commitError(err)
	}

	if complete {
		v.session = domain.Complete(v.session, v.opts.Now())
	}
	// edits made while the write was in flight stay in the draft
	if complete || v.version == version {
		v.dirty = false
		v.stopTimerLocked()
		if err := v.store.Delete(writeCtx, v.id); err != nil {
			v.log.Warn("failed to delete local draft", "error", err)
		}
	}
	v.refreshActiveLocked()
	snap := v.snapshotLocked()
	v.lock.Unlock()

	v.updates.Publish(v.id, snap)
	v.log.Info("evaluations committed", "complete", complete, "evaluations", len(s.Evaluations))
	return snap, nil
}

// commitError passes through rejections the trainer can act on and reports
// everything else as a store failure.
func commitError(err error) error {
	var srvcErr *srvcerror.Error
	if errors.As(err, &srvcErr) {
		switch srvcErr.Kind() {
		case srvcerror.KindInternal, srvcerror.KindStore:
		default:
			return err
		}
	}
	return newErrCommitFailed(err)
}

// withIdentities stamps each evaluation with the current identity of its
// participant.
func withIdentities(s domain.Session) domain.Session {
	next := s.Clone()
	for i, e := range next.Evaluations {
		if p, ok := next.Participant(e.StudentID); ok {
			next.Evaluations[i] = e.WithIdentity(p)
		}
	}
	return next
}

// Close is the switch-away path: pending edits are written to the local
// store right away and the live subscription ends.
func (v *View) Close(ctx context.Context) {
	v.lock.Lock()
	if v.closed {
		v.lock.Unlock()
		return
	}
	v.closed = true
	v.stopTimerLocked()
	if v.dirty {
		v.writeDraftLocked(context.WithoutCancel(ctx))
	}
	v.lock.Unlock()

	v.cancel()
	<-v.done
	v.log.Info("session view closed")
}

func (v *View) Closed() bool {
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.closed
}
