// Package trainer holds the role records that map a signed-in identity to
// what it may do.
package trainer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	// RoleDead is a revoked account. Any session presenting it is ended.
	RoleDead Role = "dead"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleDead:
		return true
	}
	return false
}

type Trainer struct {
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Record is one observation of a watched role record. Found is false once the
// record is deleted.
type Record struct {
	Trainer Trainer
	Found   bool
}

// Lookup reads the record of userID, reporting a missing one as not Found.
func Lookup(ctx context.Context, repo Repo, userID uuid.UUID) (Record, error) {
	t, err := repo.GetTrainer(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return Record{Found: false}, nil
		}
		return Record{}, err
	}
	return Record{Trainer: t, Found: true}, nil
}

type Repo interface {
	GetTrainer(ctx context.Context, userID uuid.UUID) (Trainer, error)
	ListTrainers(ctx context.Context) ([]Trainer, error)
	StoreTrainer(ctx context.Context, t Trainer) error
	DeleteTrainer(ctx context.Context, userID uuid.UUID) error
	// WatchTrainer replays the current record and then every change to it.
	WatchTrainer(ctx context.Context, userID uuid.UUID) (<-chan Record, error)
}
