package draft_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evaltrack/backend/feed"
	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/draft"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	lock     sync.Mutex
	sessions map[uuid.UUID]domain.Session
	hub      *feed.Hub[uuid.UUID, domain.Session]
	saveErr  error
	commits  int
}

func newFakeRemote(sessions ...domain.Session) *fakeRemote {
	r := &fakeRemote{
		sessions: map[uuid.UUID]domain.Session{},
		hub:      feed.NewHub[uuid.UUID, domain.Session](),
	}
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *fakeRemote) GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, errors.New("not found")
	}
	return s.Clone(), nil
}

func (r *fakeRemote) WatchSession(ctx context.Context, id uuid.UUID) (<-chan domain.Session, error) {
	return r.hub.Subscribe(ctx, id, func(ctx context.Context) (domain.Session, error) {
		return r.GetSession(ctx, id)
	})
}

func (r *fakeRemote) SaveEvaluations(ctx context.Context, s domain.Session) error {
	return r.commit(s, false)
}

func (r *fakeRemote) CompleteSession(ctx context.Context, s domain.Session) error {
	return r.commit(s, true)
}

func (r *fakeRemote) commit(s domain.Session, complete bool) error {
	r.lock.Lock()
	if r.saveErr != nil {
		r.lock.Unlock()
		return r.saveErr
	}
	stored := r.sessions[s.ID].Clone()
	stored.Evaluations = nil
	for _, e := range s.Evaluations {
		if p, ok := stored.Participant(e.StudentID); ok {
			stored.Evaluations = append(stored.Evaluations, e.WithIdentity(p))
		}
	}
	if complete {
		stored = domain.Complete(stored, time.Now())
	}
	r.sessions[s.ID] = stored
	r.commits++
	r.lock.Unlock()

	r.hub.Publish(s.ID, stored)
	return nil
}

func (r *fakeRemote) AddParticipant(ctx context.Context, id uuid.UUID, p domain.Participant) (domain.Participant, error) {
	r.lock.Lock()
	if r.saveErr != nil {
		r.lock.Unlock()
		return domain.Participant{}, r.saveErr
	}
	next, added := domain.AddParticipant(r.sessions[id], p)
	r.sessions[id] = next
	r.lock.Unlock()

	r.hub.Publish(id, next)
	return added, nil
}

func (r *fakeRemote) RemoveParticipant(ctx context.Context, id uuid.UUID, chestNumber int) error {
	r.lock.Lock()
	if r.saveErr != nil {
		r.lock.Unlock()
		return r.saveErr
	}
	s := r.sessions[id]
	if _, ok := s.Participant(chestNumber); !ok {
		r.lock.Unlock()
		return errors.New("no such participant")
	}
	next, _ := domain.RemoveParticipant(s, nil, chestNumber)
	r.sessions[id] = next
	r.lock.Unlock()

	r.hub.Publish(id, next)
	return nil
}

// register adds p on the server the way a self-registration does.
func (r *fakeRemote) register(id uuid.UUID, name string) domain.Participant {
	r.lock.Lock()
	next, added := domain.AddParticipant(r.sessions[id], domain.Participant{Name: name})
	r.sessions[id] = next
	r.lock.Unlock()

	r.hub.Publish(id, next)
	return added
}

func (r *fakeRemote) stored(id uuid.UUID) domain.Session {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.sessions[id].Clone()
}

func (r *fakeRemote) put(s domain.Session) {
	r.lock.Lock()
	r.sessions[s.ID] = s
	r.lock.Unlock()
	r.hub.Publish(s.ID, s)
}

func (r *fakeRemote) failWith(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.saveErr = err
}

type countingStore struct {
	*draft.MemStore
	sets atomic.Int32
}

func (c *countingStore) Set(ctx context.Context, d draft.Draft) error {
	c.sets.Add(1)
	return c.MemStore.Set(ctx, d)
}

func newGDSession(names ...string) domain.Session {
	s := domain.NewSession(uuid.New(), rubric.TypeGD, uuid.New(), time.Now())
	s.GroupName = "Group A"
	s.Topic = "Remote work"
	for _, n := range names {
		s, _ = domain.AddParticipant(s, domain.Participant{Name: n, Email: n + "@example.com"})
	}
	return s
}

func slowFlush() draft.Options {
	return draft.Options{FlushDelay: time.Hour}
}

func openView(t *testing.T, remote draft.Remote, store draft.Store, id uuid.UUID, opts draft.Options) *draft.View {
	t.Helper()
	v, err := draft.Open(context.Background(), remote, store, id, opts)
	require.NoError(t, err)
	t.Cleanup(func() { v.Close(context.Background()) })
	return v
}

func score(t *testing.T, snap draft.Snapshot, chest int, category string) int {
	t.Helper()
	e, ok := snap.Session.Evaluation(chest)
	require.True(t, ok, "no evaluation for chest %d", chest)
	return e.Scores[category]
}

func TestOpenWithoutDraftUsesServer(t *testing.T) {
	s := newGDSession("ann", "bob")
	s = domain.ApplyScore(s, s.Students[0], "communication", 3)
	remote := newFakeRemote(s)

	v := openView(t, remote, draft.NewMemStore(), s.ID, slowFlush())

	snap := v.Snapshot()
	assert.False(t, snap.Dirty)
	assert.Equal(t, 3, score(t, snap, 1, "communication"))
	require.NotNil(t, snap.Active)
	assert.Equal(t, 1, snap.Active.Participant.ChestNumber)
}

func TestOpenPrefersDraftEvaluations(t *testing.T) {
	s := newGDSession("ann", "bob")
	s = domain.ApplyScore(s, s.Students[0], "communication", 3)
	remote := newFakeRemote(s)

	local := domain.ApplyScore(s, s.Students[0], "communication", 7)
	local, _ = domain.AddParticipant(local, domain.Participant{Name: "cid"})
	store := draft.NewMemStore()
	require.NoError(t, store.Set(context.Background(), draft.Draft{
		SessionID:       s.ID,
		Evaluations:     local.Evaluations,
		Students:        local.Students,
		LastChestNumber: local.LastChestNumber,
	}))

	v := openView(t, remote, store, s.ID, slowFlush())

	snap := v.Snapshot()
	assert.True(t, snap.Dirty)
	assert.Equal(t, 7, score(t, snap, 1, "communication"))
	assert.Len(t, snap.Session.Students, 3)
	assert.Equal(t, "Group A", snap.Session.GroupName)
}

func TestRemoteUpdateKeepsLocalEvaluations(t *testing.T) {
	s := newGDSession("ann")
	remote := newFakeRemote(s)
	v := openView(t, remote, draft.NewMemStore(), s.ID, slowFlush())

	_, err := v.ApplyScore(1, "communication", 8)
	require.NoError(t, err)

	changed := domain.UpdateDetails(s, nil, ptr("Four day week"), nil)
	changed = domain.ApplyScore(changed, s.Students[0], "communication", 2)
	remote.put(changed)

	require.Eventually(t, func() bool {
		return v.Snapshot().Session.Topic == "Four day week"
	}, time.Second, 5*time.Millisecond)
	snap := v.Snapshot()
	assert.Equal(t, 8, score(t, snap, 1, "communication"))
	assert.True(t, snap.Dirty)
}

func TestApplyScoreClampsToCategoryMax(t *testing.T) {
	s := newGDSession("ann")
	v := openView(t, newFakeRemote(s), draft.NewMemStore(), s.ID, slowFlush())

	snap, err := v.ApplyScore(1, "leadership", 15)
	require.NoError(t, err)
	assert.Equal(t, 10, score(t, snap, 1, "leadership"))

	snap, err = v.ApplyScore(1, "leadership", -3)
	require.NoError(t, err)
	assert.Equal(t, 0, score(t, snap, 1, "leadership"))
}

func TestApplyScoreRejectsUnknownInput(t *testing.T) {
	s := newGDSession("ann")
	v := openView(t, newFakeRemote(s), draft.NewMemStore(), s.ID, slowFlush())

	_, err := v.ApplyScore(9, "leadership", 5)
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeParticipantNotFound))

	_, err = v.ApplyScore(1, "charisma", 5)
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeUnknownCategory))
}

func TestPersonalInterviewScoresThroughSubFields(t *testing.T) {
	s := domain.NewSession(uuid.New(), rubric.TypePI, uuid.New(), time.Now())
	s.Candidate = &domain.Candidate{Name: "dana", Email: "dana@example.com"}
	v := openView(t, newFakeRemote(s), draft.NewMemStore(), s.ID, slowFlush())

	_, err := v.ApplyScore(1, "communication", 5)
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeSubFieldRequired))

	snap, err := v.ApplySubScore(1, "communication", "clarity", 9)
	require.NoError(t, err)
	assert.Equal(t, 4, score(t, snap, 1, "communication"))

	snap, err = v.ApplySubScore(1, "communication", "fluency", 2)
	require.NoError(t, err)
	assert.Equal(t, 6, score(t, snap, 1, "communication"))

	_, _, err = v.AddParticipant(context.Background(), domain.Participant{Name: "eve"})
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeNotGroupSession))
}

func TestDraftFlushIsDebounced(t *testing.T) {
	s := newGDSession("ann")
	store := &countingStore{MemStore: draft.NewMemStore()}
	v := openView(t, newFakeRemote(s), store, s.ID, draft.Options{FlushDelay: 50 * time.Millisecond})

	for i := 1; i <= 5; i++ {
		_, err := v.ApplyScore(1, "listening", i)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return store.sets.Load() >= 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), store.sets.Load())

	d, ok, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	require.True(t, ok)
	e := d.Evaluations[0]
	assert.Equal(t, 5, e.Scores["listening"])
}

func TestSaveDeletesDraft(t *testing.T) {
	s := newGDSession("ann", "bob")
	remote := newFakeRemote(s)
	store := draft.NewMemStore()
	v := openView(t, remote, store, s.ID, draft.Options{FlushDelay: 10 * time.Millisecond})

	_, err := v.ApplyScore(2, "bodyLanguage", 6)
	require.NoError(t, err)
	_, err = v.ApplyRemarks(2, "steady")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok, _ := store.Get(context.Background(), s.ID)
		return ok
	}, time.Second, 5*time.Millisecond)

	snap, err := v.Save(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Dirty)

	_, ok, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	saved, err := remote.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	e, ok := saved.Evaluation(2)
	require.True(t, ok)
	assert.Equal(t, 6, e.Scores["bodyLanguage"])
	assert.Equal(t, "steady", e.Remarks)
	assert.Equal(t, "bob", e.StudentName)
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	s := newGDSession("ann")
	remote := newFakeRemote(s)
	remote.failWith(errors.New("connection reset"))
	store := draft.NewMemStore()
	v := openView(t, remote, store, s.ID, slowFlush())

	_, err := v.ApplyScore(1, "communication", 9)
	require.NoError(t, err)

	_, err = v.Save(context.Background())
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeCommitFailed))
	assert.True(t, srvcerror.IsKind(err, srvcerror.KindStore))

	d, ok, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9, d.Evaluations[0].Scores["communication"])
	assert.True(t, v.Snapshot().Dirty)
}

func TestSaveFailurePassesThroughRejections(t *testing.T) {
	s := newGDSession("ann")
	remote := newFakeRemote(s)
	denied := srvcerror.New("forbidden", "not yours").SetKind(srvcerror.KindAuthorization)
	remote.failWith(denied)
	v := openView(t, remote, draft.NewMemStore(), s.ID, slowFlush())

	_, err := v.Save(context.Background())
	assert.True(t, srvcerror.HasCode(err, "forbidden"))
}

func TestCloseWritesPendingDraftAndReopenRestoresIt(t *testing.T) {
	s := newGDSession("ann")
	remote := newFakeRemote(s)
	store := draft.NewMemStore()

	v, err := draft.Open(context.Background(), remote, store, s.ID, slowFlush())
	require.NoError(t, err)
	_, err = v.ApplyScore(1, "subjectKnowledge", 4)
	require.NoError(t, err)
	v.Close(context.Background())

	_, err = v.ApplyScore(1, "subjectKnowledge", 5)
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeViewClosed))

	reopened := openView(t, remote, store, s.ID, slowFlush())
	snap := reopened.Snapshot()
	assert.True(t, snap.Dirty)
	assert.Equal(t, 4, score(t, snap, 1, "subjectKnowledge"))
}

func TestCompleteLocksSession(t *testing.T) {
	s := newGDSession("ann")
	remote := newFakeRemote(s)
	store := draft.NewMemStore()
	v := openView(t, remote, store, s.ID, slowFlush())

	_, err := v.ApplyScore(1, "communication", 5)
	require.NoError(t, err)
	snap, err := v.Complete(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Session.Completed)
	assert.False(t, snap.Session.IsActive)

	_, err = v.ApplyScore(1, "communication", 6)
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeSessionCompleted))
	_, err = v.Save(context.Background())
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeSessionCompleted))

	stored, err := remote.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	_, ok, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddAndRemoveParticipants(t *testing.T) {
	s := newGDSession("ann", "bob")
	remote := newFakeRemote(s)
	v := openView(t, remote, draft.NewMemStore(), s.ID, slowFlush())
	ctx := context.Background()

	snap, added, err := v.AddParticipant(ctx, domain.Participant{Name: "cid"})
	require.NoError(t, err)
	assert.Equal(t, 3, added.ChestNumber)
	require.NotNil(t, snap.Active)
	assert.Equal(t, 3, snap.Active.Participant.ChestNumber)
	_, ok := snap.Session.Evaluation(3)
	assert.False(t, ok)
	_, ok = remote.stored(s.ID).Participant(3)
	assert.True(t, ok)

	snap, err = v.RemoveParticipant(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, snap.Active)
	assert.Equal(t, 1, snap.Active.Participant.ChestNumber)
	assert.Len(t, remote.stored(s.ID).Students, 2)

	_, added, err = v.AddParticipant(ctx, domain.Participant{Name: "dee"})
	require.NoError(t, err)
	assert.Equal(t, 4, added.ChestNumber)

	_, err = v.RemoveParticipant(ctx, 9)
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeParticipantNotFound))
}

func TestAddedAndRegisteredParticipantsKeepTheirScores(t *testing.T) {
	s := newGDSession("ann", "bob")
	remote := newFakeRemote(s)
	v := openView(t, remote, draft.NewMemStore(), s.ID, slowFlush())
	ctx := context.Background()

	_, cid, err := v.AddParticipant(ctx, domain.Participant{Name: "cid"})
	require.NoError(t, err)
	_, err = v.ApplyScore(cid.ChestNumber, "communication", 9)
	require.NoError(t, err)

	dee := remote.register(s.ID, "dee")
	assert.NotEqual(t, cid.ChestNumber, dee.ChestNumber)

	require.Eventually(t, func() bool {
		return len(v.Snapshot().Session.Students) == 4
	}, time.Second, 5*time.Millisecond)
	snap := v.Snapshot()
	p, ok := snap.Session.Participant(cid.ChestNumber)
	require.True(t, ok)
	assert.Equal(t, "cid", p.Name)
	assert.Equal(t, 9, score(t, snap, cid.ChestNumber, "communication"))

	_, err = v.Save(ctx)
	require.NoError(t, err)

	saved := remote.stored(s.ID)
	require.Len(t, saved.Students, 4)
	e, ok := saved.Evaluation(cid.ChestNumber)
	require.True(t, ok)
	assert.Equal(t, "cid", e.StudentName)
	assert.Equal(t, 9, e.Scores["communication"])
	_, ok = saved.Evaluation(dee.ChestNumber)
	assert.False(t, ok)
}

func TestRemoteRemovalDropsLocalEvaluation(t *testing.T) {
	s := newGDSession("ann", "bob")
	remote := newFakeRemote(s)
	v := openView(t, remote, draft.NewMemStore(), s.ID, slowFlush())

	_, err := v.ApplyScore(2, "communication", 4)
	require.NoError(t, err)

	gone, _ := domain.RemoveParticipant(remote.stored(s.ID), nil, 2)
	remote.put(gone)

	require.Eventually(t, func() bool {
		return len(v.Snapshot().Session.Students) == 1
	}, time.Second, 5*time.Millisecond)
	_, ok := v.Snapshot().Session.Evaluation(2)
	assert.False(t, ok)
}

func TestSaveThenReopenMatchesServer(t *testing.T) {
	s := newGDSession("ann", "bob")
	remote := newFakeRemote(s)
	store := draft.NewMemStore()
	ctx := context.Background()

	v, err := draft.Open(ctx, remote, store, s.ID, slowFlush())
	require.NoError(t, err)
	_, err = v.ApplyScore(1, "communication", 7)
	require.NoError(t, err)
	_, err = v.ApplyRemarks(2, "calm")
	require.NoError(t, err)
	saved, err := v.Save(ctx)
	require.NoError(t, err)
	v.Close(ctx)

	reopened := openView(t, remote, store, s.ID, slowFlush())

	snap := reopened.Snapshot()
	assert.False(t, snap.Dirty)
	assert.Equal(t, remote.stored(s.ID).Evaluations, snap.Session.Evaluations)
	require.Len(t, snap.Session.Evaluations, len(saved.Session.Evaluations))
	assert.Equal(t, 7, score(t, snap, 1, "communication"))
	e, ok := snap.Session.Evaluation(2)
	require.True(t, ok)
	assert.Equal(t, "calm", e.Remarks)
}

func TestSubscribeStreamsSnapshots(t *testing.T) {
	s := newGDSession("ann")
	v := openView(t, newFakeRemote(s), draft.NewMemStore(), s.ID, slowFlush())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := v.Subscribe(ctx)
	require.NoError(t, err)

	first := <-ch
	assert.False(t, first.Dirty)

	_, err = v.ApplyScore(1, "communication", 2)
	require.NoError(t, err)
	next := <-ch
	assert.True(t, next.Dirty)
	assert.Equal(t, 2, score(t, next, 1, "communication"))
}

func TestWorkspaceSwitchAwayPersistsDraft(t *testing.T) {
	a := newGDSession("ann")
	b := newGDSession("bob")
	remote := newFakeRemote(a, b)
	store := draft.NewMemStore()
	ws := draft.NewWorkspace(remote, store, slowFlush())
	defer ws.CloseAll(context.Background())
	signIn := uuid.NewString()

	va, err := ws.Open(context.Background(), signIn, a.ID)
	require.NoError(t, err)
	again, err := ws.Open(context.Background(), signIn, a.ID)
	require.NoError(t, err)
	assert.Same(t, va, again)

	_, err = va.ApplyScore(1, "leadership", 7)
	require.NoError(t, err)

	_, err = ws.Open(context.Background(), signIn, b.ID)
	require.NoError(t, err)
	assert.True(t, va.Closed())

	_, err = ws.Get(signIn, a.ID)
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeViewNotOpen))

	d, ok, err := store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, d.Evaluations[0].Scores["leadership"])
}

func TestWorkspaceKeepsOneViewPerSignIn(t *testing.T) {
	a := newGDSession("ann")
	remote := newFakeRemote(a)
	ws := draft.NewWorkspace(remote, draft.NewMemStore(), slowFlush())
	defer ws.CloseAll(context.Background())
	phone, laptop := uuid.NewString(), uuid.NewString()

	vp, err := ws.Open(context.Background(), phone, a.ID)
	require.NoError(t, err)
	vl, err := ws.Open(context.Background(), laptop, a.ID)
	require.NoError(t, err)
	assert.NotSame(t, vp, vl)

	ws.Close(context.Background(), phone)
	assert.True(t, vp.Closed())
	assert.False(t, vl.Closed())

	got, err := ws.Get(laptop, a.ID)
	require.NoError(t, err)
	assert.Same(t, vl, got)
	_, err = ws.Get(phone, a.ID)
	assert.True(t, srvcerror.HasCode(err, draft.ErrCodeViewNotOpen))
}

func ptr[T any](v T) *T { return &v }
