// Package identity is the sign-in provider: accounts, password checks, signed
// tokens and auth state notifications.
package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	BcryptPwd   string
	Disabled    bool
	CreatedAt   time.Time
}

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	StoreUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type InMemUserStore struct {
	lock  sync.Mutex
	users map[uuid.UUID]User
}

func NewInMemUserStore() *InMemUserStore {
	return &InMemUserStore{users: make(map[uuid.UUID]User)}
}

func (m *InMemUserStore) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound()
	}
	return u, nil
}

func (m *InMemUserStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	email = normalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound()
}

func (m *InMemUserStore) StoreUser(ctx context.Context, u User) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, other := range m.users {
		if other.ID != u.ID && other.Email == u.Email {
			return newErrEmailExists()
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *InMemUserStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.users, id)
	return nil
}
