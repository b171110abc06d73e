package sessionerror_test

import (
	"context"
	"testing"
	"time"

	"github.com/evaltrack/backend/actor"
	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/sessionerror"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/evaltrack/backend/trainer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestReadAndWriteAccess(t *testing.T) {
	owner := uuid.New()
	s := domain.NewSession(uuid.New(), rubric.TypeGD, owner, time.Now())
	as := func(id uuid.UUID, role trainer.Role) context.Context {
		return actor.WithActor(context.Background(), actor.Actor{UserID: id, Role: role})
	}

	tests := []struct {
		name      string
		ctx       context.Context
		readCode  string
		writeCode string
	}{
		{"owner", as(owner, trainer.RoleUser), "", ""},
		{"admin", as(uuid.New(), trainer.RoleAdmin), "", sessionerror.ErrCodeNotSessionOwner},
		{"other trainer", as(uuid.New(), trainer.RoleUser), sessionerror.ErrCodeNotSessionOwner, sessionerror.ErrCodeNotSessionOwner},
		{"anonymous", context.Background(), sessionerror.ErrCodeUnauthenticated, sessionerror.ErrCodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := func(err error, code string) {
				if code == "" {
					assert.NoError(t, err)
					return
				}
				assert.True(t, srvcerror.HasCode(err, code), err)
			}
			check(sessionerror.CheckRead(tt.ctx, s), tt.readCode)
			check(sessionerror.CheckWrite(tt.ctx, s), tt.writeCode)
		})
	}
}
