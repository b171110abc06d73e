package hierarchy

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

type Hierarchy struct {
	repo     Repo
	validate *validator.Validate
	now      func() time.Time
}

func NewHierarchy(repo Repo) *Hierarchy {
	return &Hierarchy{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

type CreateNodeParams struct {
	Kind     Kind       `json:"kind" validate:"required,oneof=project campus course specialization batch"`
	ParentID *uuid.UUID `json:"parentId"`
	Name     string     `json:"name" validate:"required,max=200"`
	Code     string     `json:"code" validate:"max=50"`
}

// CreateNode adds a node under a parent of the kind its own kind requires.
func (h *Hierarchy) CreateNode(ctx context.Context, p CreateNodeParams) (Node, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Code = strings.TrimSpace(p.Code)
	if err := h.validate.StructCtx(ctx, p); err != nil {
		return Node{}, srvcerror.ErrValidation(err)
	}

	want, needsParent := p.Kind.ParentKind()
	switch {
	case !needsParent && p.ParentID != nil:
		return Node{}, newErrInvalidParent(p.Kind, "")
	case needsParent && p.ParentID == nil:
		return Node{}, newErrInvalidParent(p.Kind, want)
	case needsParent:
		parent, err := h.repo.GetNode(ctx, *p.ParentID)
		if err != nil {
			return Node{}, err
		}
		if parent.Kind != want {
			return Node{}, newErrInvalidParent(p.Kind, want)
		}
	}

	n := Node{
		ID:        uuid.New(),
		Kind:      p.Kind,
		ParentID:  p.ParentID,
		Name:      p.Name,
		Code:      p.Code,
		CreatedAt: h.now(),
	}
	if err := h.repo.StoreNode(ctx, n); err != nil {
		return Node{}, fmt.Errorf("failed to store node: %w", err)
	}

	logger.FromContext(ctx).Info("hierarchy node created", "node_id", n.ID, "kind", n.Kind)
	return n, nil
}

type RenameNodeParams struct {
	ID   uuid.UUID `json:"-" validate:"required"`
	Name string    `json:"name" validate:"required,max=200"`
	Code *string   `json:"code" validate:"omitempty,max=50"`
}

func (h *Hierarchy) RenameNode(ctx context.Context, p RenameNodeParams) (Node, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := h.validate.StructCtx(ctx, p); err != nil {
		return Node{}, srvcerror.ErrValidation(err)
	}
	n, err := h.repo.GetNode(ctx, p.ID)
	if err != nil {
		return Node{}, err
	}
	n.Name = p.Name
	if p.Code != nil {
		n.Code = strings.TrimSpace(*p.Code)
	}
	if err := h.repo.StoreNode(ctx, n); err != nil {
		return Node{}, fmt.Errorf("failed to store node: %w", err)
	}
	return n, nil
}

func (h *Hierarchy) DeleteNode(ctx context.Context, id uuid.UUID) error {
	if _, err := h.repo.GetNode(ctx, id); err != nil {
		return err
	}
	if err := h.repo.DeleteNode(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("hierarchy node deleted", "node_id", id)
	return nil
}

func (h *Hierarchy) GetNode(ctx context.Context, id uuid.UUID) (Node, error) {
	return h.repo.GetNode(ctx, id)
}

func (h *Hierarchy) ListNodes(ctx context.Context, f Filter) ([]Node, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, srvcerror.ErrInvalidRequest(fmt.Sprintf("unknown node kind %q", f.Kind))
	}
	return h.repo.ListNodes(ctx, f)
}
