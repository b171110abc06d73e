// Package actor carries the authorized caller of a request.
package actor

import (
	"context"

	"github.com/evaltrack/backend/trainer"
	"github.com/google/uuid"
)

type Actor struct {
	UserID    uuid.UUID    `json:"userId"`
	Email     string       `json:"email"`
	Role      trainer.Role `json:"role"`
	SessionID string       `json:"-"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == trainer.RoleAdmin
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
