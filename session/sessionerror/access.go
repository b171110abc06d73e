package sessionerror

import (
	"context"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/session/domain"
)

// CheckRead lets the owning trainer and admins through.
func CheckRead(ctx context.Context, s domain.Session) error {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return ErrUnauthenticated()
	}
	if a.IsAdmin() || a.UserID == s.TrainerID {
		return nil
	}
	return ErrNotSessionOwner()
}

// CheckWrite lets only the owning trainer through. Admins read across
// trainers but never edit another trainer's session.
func CheckWrite(ctx context.Context, s domain.Session) error {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return ErrUnauthenticated()
	}
	if a.UserID == s.TrainerID {
		return nil
	}
	return ErrNotSessionOwner()
}
