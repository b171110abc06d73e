package trainer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// IdentityFacade is the part of the identity provider the roster manages
// accounts through.
type IdentityFacade interface {
	CreateUser(ctx context.Context, email, displayName, password string) (uuid.UUID, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	SetDisabled(ctx context.Context, userID uuid.UUID, disabled bool) error
}

// Roster is the admin-facing management of trainers and their roles.
type Roster struct {
	repo     Repo
	identity IdentityFacade
	validate *validator.Validate
	now      func() time.Time
}

func NewRoster(repo Repo, identity IdentityFacade) *Roster {
	return &Roster{
		repo:     repo,
		identity: identity,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

type CreateTrainerParams struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     Role   `json:"role" validate:"required,oneof=user admin"`
}

// CreateTrainer creates the identity account and the role record.
func (r *Roster) CreateTrainer(ctx context.Context, p CreateTrainerParams) (Trainer, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Name = strings.TrimSpace(p.Name)
	if err := r.validate.Struct(p); err != nil {
		return Trainer{}, srvcerror.ErrValidation(err)
	}

	userID, err := r.identity.CreateUser(ctx, p.Email, p.Name, p.Password)
	if err != nil {
		return Trainer{}, err
	}
	if _, err := r.repo.GetTrainer(ctx, userID); err == nil {
		return Trainer{}, newErrTrainerExists()
	}

	t := Trainer{
		UserID:    userID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		CreatedAt: r.now(),
	}
	if err := r.repo.StoreTrainer(ctx, t); err != nil {
		return Trainer{}, fmt.Errorf("failed to store trainer: %w", err)
	}

	logger.FromContext(ctx).Info("trainer created", "trainer_id", userID, "role", t.Role)
	return t, nil
}

// SetRole changes the role of a trainer. Setting RoleDead revokes every live
// session of that trainer.
func (r *Roster) SetRole(ctx context.Context, userID uuid.UUID, role Role) (Trainer, error) {
	if !role.Valid() {
		return Trainer{}, newErrInvalidRole(role)
	}
	t, err := r.repo.GetTrainer(ctx, userID)
	if err != nil {
		return Trainer{}, err
	}
	t.Role = role
	if err := r.repo.StoreTrainer(ctx, t); err != nil {
		return Trainer{}, fmt.Errorf("failed to store trainer: %w", err)
	}

	logger.FromContext(ctx).Info("trainer role changed", "trainer_id", userID, "role", role)
	return t, nil
}

// DeleteTrainer removes the role record, which revokes live sessions, and
// then the identity account.
func (r *Roster) DeleteTrainer(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.repo.GetTrainer(ctx, userID); err != nil {
		return err
	}
	if err := r.repo.DeleteTrainer(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete trainer: %w", err)
	}
	if err := r.identity.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete identity of trainer: %w", err)
	}

	logger.FromContext(ctx).Info("trainer deleted", "trainer_id", userID)
	return nil
}

// SetDisabled blocks or unblocks sign-in of a trainer without touching the
// role record. Blocking also ends the live sign-ins of the account.
func (r *Roster) SetDisabled(ctx context.Context, userID uuid.UUID, disabled bool) error {
	if _, err := r.repo.GetTrainer(ctx, userID); err != nil {
		return err
	}
	if err := r.identity.SetDisabled(ctx, userID, disabled); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("trainer sign-in changed", "trainer_id", userID, "disabled", disabled)
	return nil
}

func (r *Roster) GetTrainer(ctx context.Context, userID uuid.UUID) (Trainer, error) {
	return r.repo.GetTrainer(ctx, userID)
}

func (r *Roster) ListTrainers(ctx context.Context) ([]Trainer, error) {
	return r.repo.ListTrainers(ctx)
}
