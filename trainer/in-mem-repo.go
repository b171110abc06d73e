package trainer

import (
	"context"
	"sort"
	"sync"

	"github.com/evaltrack/backend/feed"
	"github.com/google/uuid"
)

type InMemTrainerRepo struct {
	lock     sync.Mutex
	trainers map[uuid.UUID]Trainer
	hub      *feed.Hub[uuid.UUID, Record]
}

func NewInMemTrainerRepo() *InMemTrainerRepo {
	return &InMemTrainerRepo{
		trainers: make(map[uuid.UUID]Trainer),
		hub:      feed.NewHub[uuid.UUID, Record](),
	}
}

func (m *InMemTrainerRepo) GetTrainer(ctx context.Context, userID uuid.UUID) (Trainer, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	t, ok := m.trainers[userID]
	if !ok {
		return Trainer{}, ErrTrainerNotFound()
	}
	return t, nil
}

func (m *InMemTrainerRepo) ListTrainers(ctx context.Context) ([]Trainer, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := make([]Trainer, 0, len(m.trainers))
	for _, t := range m.trainers {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (m *InMemTrainerRepo) StoreTrainer(ctx context.Context, t Trainer) error {
	m.lock.Lock()
	m.trainers[t.UserID] = t
	m.lock.Unlock()

	m.hub.Publish(t.UserID, Record{Trainer: t, Found: true})
	return nil
}

func (m *InMemTrainerRepo) DeleteTrainer(ctx context.Context, userID uuid.UUID) error {
	m.lock.Lock()
	delete(m.trainers, userID)
	m.lock.Unlock()

	m.hub.Publish(userID, Record{Found: false})
	return nil
}

func (m *InMemTrainerRepo) WatchTrainer(ctx context.Context, userID uuid.UUID) (<-chan Record, error) {
	return m.hub.Subscribe(ctx, userID, func(ctx context.Context) (Record, error) {
		return Lookup(ctx, m, userID)
	})
}
