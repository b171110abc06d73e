package sessionsrvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/draft"
	"github.com/evaltrack/backend/session/sessionerror"
	"github.com/evaltrack/backend/session/sessionsrvc"
	"github.com/evaltrack/backend/session/sessionsrvc/sessioncmd"
	"github.com/evaltrack/backend/session/sessionsrvc/sessionquery"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/evaltrack/backend/trainer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asTrainer(id uuid.UUID) context.Context {
	return actor.WithActor(context.Background(), actor.Actor{UserID: id, Role: trainer.RoleUser})
}

func asAdmin() context.Context {
	return actor.WithActor(context.Background(), actor.Actor{UserID: uuid.New(), Role: trainer.RoleAdmin})
}

func newSrvc(t *testing.T) (*sessionsrvc.SessionSrvc, *sessionsrvc.InMemSessionRepo) {
	t.Helper()
	repo := sessionsrvc.NewInMemSessionRepo()
	return sessionsrvc.NewSessionSrvc(repo), repo
}

func createGD(t *testing.T, srvc *sessionsrvc.SessionSrvc, ctx context.Context, names ...string) uuid.UUID {
	t.Helper()
	students := []domain.Participant{}
	for _, n := range names {
		students = append(students, domain.Participant{Name: n})
	}
	id := uuid.New()
	err := srvc.CreateSession.Handle(ctx, sessioncmd.CreateSessionParams{
		UUID:      id,
		Type:      rubric.TypeGD,
		GroupName: "Group A",
		Topic:     "Remote work",
		Students:  students,
	})
	require.NoError(t, err)
	return id
}

func TestCreateSessionNumbersStudents(t *testing.T) {
	srvc, _ := newSrvc(t)
	owner := uuid.New()
	ctx := asTrainer(owner)

	id := createGD(t, srvc, ctx, "Ann", "Ben", "Cid")

	s, err := srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	assert.Equal(t, owner, s.TrainerID)
	assert.True(t, s.IsActive)
	assert.False(t, s.Completed)
	require.Len(t, s.Students, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{s.Students[0].ChestNumber, s.Students[1].ChestNumber, s.Students[2].ChestNumber})
	assert.Equal(t, 3, s.LastChestNumber)
	assert.Empty(t, s.Evaluations)
}

func TestCreateSessionValidation(t *testing.T) {
	srvc, _ := newSrvc(t)
	ctx := asTrainer(uuid.New())

	tests := []struct {
		name   string
		params sessioncmd.CreateSessionParams
		code   string
	}{
		{
			name:   "unknown type",
			params: sessioncmd.CreateSessionParams{UUID: uuid.New(), Type: "panel"},
			code:   srvcerror.ErrCodeInvalidRequest,
		},
		{
			name: "student without name",
			params: sessioncmd.CreateSessionParams{
				UUID: uuid.New(), Type: rubric.TypeGD,
				Students: []domain.Participant{{Email: "a@example.com"}},
			},
			code: srvcerror.ErrCodeInvalidRequest,
		},
		{
			name:   "interview without candidate",
			params: sessioncmd.CreateSessionParams{UUID: uuid.New(), Type: rubric.TypePI},
			code:   sessionerror.ErrCodeCandidateRequired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := srvc.CreateSession.Handle(ctx, tt.params)
			require.Error(t, err)
			assert.True(t, srvcerror.HasCode(err, tt.code), err.Error())
		})
	}

	err := srvc.CreateSession.Handle(context.Background(), sessioncmd.CreateSessionParams{UUID: uuid.New(), Type: rubric.TypeGD})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeUnauthenticated))
}

func TestOnlyOwnerAndAdminSeeSession(t *testing.T) {
	srvc, _ := newSrvc(t)
	owner := uuid.New()
	id := createGD(t, srvc, asTrainer(owner), "Ann")

	_, err := srvc.GetSession.Handle(asTrainer(uuid.New()), sessionquery.GetSessionParams{UUID: id})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeNotSessionOwner))

	_, err = srvc.GetSession.Handle(asAdmin(), sessionquery.GetSessionParams{UUID: id})
	assert.NoError(t, err)

	_, err = srvc.GetSession.Handle(asTrainer(owner), sessionquery.GetSessionParams{UUID: uuid.New()})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeSessionNotFound))
}

func TestListSessionsScopesTrainers(t *testing.T) {
	srvc, _ := newSrvc(t)
	a, b := uuid.New(), uuid.New()
	createGD(t, srvc, asTrainer(a), "Ann")
	createGD(t, srvc, asTrainer(a), "Ben")
	createGD(t, srvc, asTrainer(b), "Cid")

	list, err := srvc.ListSessions.Handle(asTrainer(a), domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = srvc.ListSessions.Handle(asTrainer(a), domain.Filter{TrainerID: &b})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeNotSessionOwner))

	all, err := srvc.ListSessions.Handle(asAdmin(), domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	completed := true
	done, err := srvc.ListSessions.Handle(asAdmin(), domain.Filter{Completed: &completed})
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestSaveEvaluationsIsPartialWrite(t *testing.T) {
	srvc, _ := newSrvc(t)
	ctx := asTrainer(uuid.New())
	id := createGD(t, srvc, ctx, "Ann", "Ben")

	s, err := srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)

	local := domain.ApplyScore(s, s.Students[0], "communication", 7)
	local.GroupName = "renamed locally"
	require.NoError(t, srvc.SaveEvaluations.Handle(ctx, sessioncmd.SaveEvaluationsParams{Session: local}))

	stored, err := srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	assert.Equal(t, "Group A", stored.GroupName)
	require.Len(t, stored.Evaluations, 1)
	assert.Equal(t, 7, stored.Evaluations[0].Scores["communication"])
}

func TestSaveEvaluationsKeepsServerParticipants(t *testing.T) {
	srvc, _ := newSrvc(t)
	ctx := asTrainer(uuid.New())
	id := createGD(t, srvc, ctx, "Ann", "Ben")

	local, err := srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	local = domain.ApplyScore(local, local.Students[0], "communication", 7)
	local = domain.ApplyScore(local, domain.Participant{ChestNumber: 9, Name: "Ghost"}, "communication", 5)

	// a registration lands after the local copy was read
	_, err = srvc.RegisterParticipant.Handle(context.Background(), sessioncmd.RegisterParticipantParams{
		SessionUUID: id, Participant: domain.Participant{Name: "Cid"},
	})
	require.NoError(t, err)

	require.NoError(t, srvc.SaveEvaluations.Handle(ctx, sessioncmd.SaveEvaluationsParams{Session: local}))

	stored, err := srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	require.Len(t, stored.Students, 3)
	assert.Equal(t, "Cid", stored.Students[2].Name)
	assert.Equal(t, 3, stored.LastChestNumber)
	require.Len(t, stored.Evaluations, 1)
	assert.Equal(t, 1, stored.Evaluations[0].StudentID)
	assert.Equal(t, "Ann", stored.Evaluations[0].StudentName)
}

func TestParticipantsAreNumberedOnTheServer(t *testing.T) {
	srvc, _ := newSrvc(t)
	ctx := asTrainer(uuid.New())
	id := createGD(t, srvc, ctx, "Ann", "Ben")

	cid, err := srvc.AddParticipant.Handle(ctx, sessioncmd.AddParticipantParams{
		SessionUUID: id, Participant: domain.Participant{Name: "Cid"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, cid.ChestNumber)

	dee, err := srvc.RegisterParticipant.Handle(context.Background(), sessioncmd.RegisterParticipantParams{
		SessionUUID: id, Participant: domain.Participant{Name: "Dee"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, dee.ChestNumber)

	require.NoError(t, srvc.RemoveParticipant.Handle(ctx, sessioncmd.RemoveParticipantParams{SessionUUID: id, ChestNumber: 4}))
	eve, err := srvc.AddParticipant.Handle(ctx, sessioncmd.AddParticipantParams{
		SessionUUID: id, Participant: domain.Participant{Name: "Eve"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, eve.ChestNumber)

	err = srvc.RemoveParticipant.Handle(ctx, sessioncmd.RemoveParticipantParams{SessionUUID: id, ChestNumber: 4})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeParticipantNotFound))

	_, err = srvc.AddParticipant.Handle(ctx, sessioncmd.AddParticipantParams{
		SessionUUID: id, Participant: domain.Participant{},
	})
	assert.True(t, srvcerror.HasCode(err, srvcerror.ErrCodeInvalidRequest))
}

func TestAdminReadsButDoesNotWriteOthersSessions(t *testing.T) {
	srvc, _ := newSrvc(t)
	owner := asTrainer(uuid.New())
	id := createGD(t, srvc, owner, "Ann")
	admin := asAdmin()

	s, err := srvc.GetSession.Handle(admin, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	local := domain.ApplyScore(s, s.Students[0], "communication", 4)
	topic := "Four day week"

	writes := map[string]error{
		"save":     srvc.SaveEvaluations.Handle(admin, sessioncmd.SaveEvaluationsParams{Session: local}),
		"complete": srvc.CompleteSession.Handle(admin, sessioncmd.CompleteSessionParams{Session: local}),
		"details":  srvc.UpdateDetails.Handle(admin, sessioncmd.UpdateDetailsParams{UUID: id, Topic: &topic}),
		"remove":   srvc.RemoveParticipant.Handle(admin, sessioncmd.RemoveParticipantParams{SessionUUID: id, ChestNumber: 1}),
		"delete":   srvc.DeleteSession.Handle(admin, sessioncmd.DeleteSessionParams{UUID: id}),
	}
	_, writes["add"] = srvc.AddParticipant.Handle(admin, sessioncmd.AddParticipantParams{
		SessionUUID: id, Participant: domain.Participant{Name: "Cid"},
	})
	_, writes["open view"] = sessionsrvc.NewRemote(srvc).GetSession(admin, id)
	for name, err := range writes {
		assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeNotSessionOwner), name)
	}

	stored, err := srvc.GetSession.Handle(owner, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	assert.Empty(t, stored.Evaluations)
	assert.False(t, stored.Completed)
	assert.Equal(t, "Remote work", stored.Topic)
	assert.Len(t, stored.Students, 1)
}

func TestCompleteSessionLocksIt(t *testing.T) {
	srvc, _ := newSrvc(t)
	ctx := asTrainer(uuid.New())
	id := createGD(t, srvc, ctx, "Ann")

	s, err := srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	require.NoError(t, srvc.CompleteSession.Handle(ctx, sessioncmd.CompleteSessionParams{Session: s}))

	stored, err := srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.False(t, stored.IsActive)
	assert.NotNil(t, stored.CompletedAt)

	err = srvc.SaveEvaluations.Handle(ctx, sessioncmd.SaveEvaluationsParams{Session: stored})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeSessionCompleted))
	err = srvc.CompleteSession.Handle(ctx, sessioncmd.CompleteSessionParams{Session: stored})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeSessionCompleted))
}

func TestRegisterParticipant(t *testing.T) {
	srvc, _ := newSrvc(t)
	ctx := asTrainer(uuid.New())
	id := createGD(t, srvc, ctx, "Ann")

	p, err := srvc.RegisterParticipant.Handle(context.Background(), sessioncmd.RegisterParticipantParams{
		SessionUUID: id,
		Participant: domain.Participant{Name: "Dee", Email: "dee@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, p.ChestNumber)

	_, err = srvc.RegisterParticipant.Handle(context.Background(), sessioncmd.RegisterParticipantParams{
		SessionUUID: id,
		Participant: domain.Participant{Name: "Eve", Email: "not-an-email"},
	})
	assert.True(t, srvcerror.HasCode(err, srvcerror.ErrCodeInvalidRequest))

	s, err := srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	require.NoError(t, srvc.CompleteSession.Handle(ctx, sessioncmd.CompleteSessionParams{Session: s}))

	_, err = srvc.RegisterParticipant.Handle(context.Background(), sessioncmd.RegisterParticipantParams{
		SessionUUID: id,
		Participant: domain.Participant{Name: "Fay"},
	})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeSessionClosed))
}

func TestDeleteSession(t *testing.T) {
	srvc, _ := newSrvc(t)
	owner := uuid.New()
	id := createGD(t, srvc, asTrainer(owner), "Ann")

	err := srvc.DeleteSession.Handle(asTrainer(uuid.New()), sessioncmd.DeleteSessionParams{UUID: id})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeNotSessionOwner))

	require.NoError(t, srvc.DeleteSession.Handle(asTrainer(owner), sessioncmd.DeleteSessionParams{UUID: id}))
	_, err = srvc.GetSession.Handle(asTrainer(owner), sessionquery.GetSessionParams{UUID: id})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeSessionNotFound))
}

func TestWatchSessionsFollowsWrites(t *testing.T) {
	srvc, _ := newSrvc(t)
	owner := uuid.New()
	ctx, cancel := context.WithCancel(asTrainer(owner))
	defer cancel()

	updates, err := srvc.WatchSessions.Handle(ctx, sessionquery.WatchSessionsParams{TrainerID: owner})
	require.NoError(t, err)
	assert.Empty(t, <-updates)

	createGD(t, srvc, asTrainer(owner), "Ann")
	select {
	case list := <-updates:
		assert.Len(t, list, 1)
	case <-time.After(time.Second):
		t.Fatal("no list update")
	}

	_, err = srvc.WatchSessions.Handle(asTrainer(uuid.New()), sessionquery.WatchSessionsParams{TrainerID: owner})
	assert.True(t, srvcerror.HasCode(err, sessionerror.ErrCodeNotSessionOwner))
}

func TestViewCommitsThroughRemote(t *testing.T) {
	srvc, _ := newSrvc(t)
	owner := uuid.New()
	ctx := asTrainer(owner)
	id := createGD(t, srvc, ctx, "Ann", "Ben")

	ws := draft.NewWorkspace(sessionsrvc.NewRemote(srvc), draft.NewMemStore(), draft.Options{FlushDelay: time.Hour})
	defer ws.CloseAll(ctx)

	v, err := ws.Open(ctx, owner.String(), id)
	require.NoError(t, err)

	_, err = v.ApplyScore(2, "leadership", 9)
	require.NoError(t, err)
	_, err = v.Save(ctx)
	require.NoError(t, err)

	stored, err := srvc.GetSession.Handle(ctx, sessionquery.GetSessionParams{UUID: id})
	require.NoError(t, err)
	e, ok := stored.Evaluation(2)
	require.True(t, ok)
	assert.Equal(t, 9, e.Scores["leadership"])
	assert.Equal(t, "Ben", e.StudentName)

	// a self-registration reaches the open view
	_, err = srvc.RegisterParticipant.Handle(context.Background(), sessioncmd.RegisterParticipantParams{
		SessionUUID: id, Participant: domain.Participant{Name: "Cid"},
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok := v.Snapshot().Session.Participant(3)
		return ok
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 9, func() int { e, _ := v.Snapshot().Session.Evaluation(2); return e.Scores["leadership"] }())
}
