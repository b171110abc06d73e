package sessionsrvc

import (
	"context"
	"sort"
	"sync"

	"github.com/evaltrack/backend/feed"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	"github.com/google/uuid"
)

type InMemSessionRepo struct {
	lock     sync.Mutex
	sessions map[uuid.UUID]domain.Session

	docs  *feed.Hub[uuid.UUID, domain.Session]
	lists *feed.Hub[uuid.UUID, []domain.Session]
}

func NewInMemSessionRepo() *InMemSessionRepo {
	return &InMemSessionRepo{
		sessions: make(map[uuid.UUID]domain.Session),
		docs:     feed.NewHub[uuid.UUID, domain.Session](),
		lists:    feed.NewHub[uuid.UUID, []domain.Session](),
	}
}

func (m *InMemSessionRepo) GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, sessionerror.ErrSessionNotFound(id)
	}
	return s.Clone(), nil
}

func (m *InMemSessionRepo) ListSessions(ctx context.Context, f domain.Filter) ([]domain.Session, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.listLocked(f), nil
}

func (m *InMemSessionRepo) listLocked(f domain.Filter) []domain.Session {
	res := []domain.Session{}
	for _, s := range m.sessions {
		if f.Match(s) {
			res = append(res, s.Clone())
		}
	}
	sortSessions(res)
	return res
}

// sortSessions orders newest first.
func sortSessions(list []domain.Session) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID.String() < list[j].ID.String()
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func (m *InMemSessionRepo) StoreSession(ctx context.Context, s domain.Session) error {
	m.lock.Lock()
	m.sessions[s.ID] = s.Clone()
	list := m.listLocked(domain.Filter{TrainerID: &s.TrainerID})
	m.lock.Unlock()

	m.docs.Publish(s.ID, s.Clone())
	m.lists.Publish(s.TrainerID, list)
	return nil
}

func (m *InMemSessionRepo) UpdateSession(
	ctx context.Context,
	id uuid.UUID,
	edit func(s domain.Session) (domain.Session, error),
) error {
	m.lock.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.lock.Unlock()
		return sessionerror.ErrSessionNotFound(id)
	}
	next, err := edit(s.Clone())
	if err != nil {
		m.lock.Unlock()
		return err
	}
	m.sessions[id] = next.Clone()
	list := m.listLocked(domain.Filter{TrainerID: &next.TrainerID})
	m.lock.Unlock()

	m.docs.Publish(id, next.Clone())
	m.lists.Publish(next.TrainerID, list)
	return nil
}

func (m *InMemSessionRepo) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.lock.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.lock.Unlock()
		return sessionerror.ErrSessionNotFound(id)
	}
	delete(m.sessions, id)
	list := m.listLocked(domain.Filter{TrainerID: &s.TrainerID})
	m.lock.Unlock()

	m.lists.Publish(s.TrainerID, list)
	return nil
}

func (m *InMemSessionRepo) WatchSession(ctx context.Context, id uuid.UUID) (<-chan domain.Session, error) {
	return m.docs.Subscribe(ctx, id, func(ctx context.Context) (domain.Session, error) {
		return m.GetSession(ctx, id)
	})
}

func (m *InMemSessionRepo) WatchSessions(ctx context.Context, trainerID uuid.UUID) (<-chan []domain.Session, error) {
	return m.lists.Subscribe(ctx, trainerID, func(ctx context.Context) ([]domain.Session, error) {
		return m.ListSessions(ctx, domain.Filter{TrainerID: &trainerID})
	})
}
