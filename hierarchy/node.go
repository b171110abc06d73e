// Package hierarchy manages the organisational tree sessions are filed
// under: projects, their campuses, courses and specializations, and the
// batches of a specialization.
package hierarchy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindProject        Kind = "project"
	KindCampus         Kind = "campus"
	KindCourse         Kind = "course"
	KindSpecialization Kind = "specialization"
	KindBatch          Kind = "batch"
)

// parentKind is the kind a node must hang under. Projects are roots.
var parentKind = map[Kind]Kind{
	KindCampus:         KindProject,
	KindCourse:         KindCampus,
	KindSpecialization: KindCourse,
	KindBatch:          KindSpecialization,
}

func (k Kind) Valid() bool {
	return k == KindProject || parentKind[k] != ""
}

// ParentKind returns the required parent kind, false for a root kind.
func (k Kind) ParentKind() (Kind, bool) {
	p, ok := parentKind[k]
	return p, ok
}

type Node struct {
	ID        uuid.UUID  `json:"id"`
	Kind      Kind       `json:"kind"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
	Name      string     `json:"name"`
	Code      string     `json:"code,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Filter lists nodes of one kind, optionally under one parent.
type Filter struct {
	Kind     Kind
	ParentID *uuid.UUID
}

func (f Filter) Match(n Node) bool {
	if f.Kind != "" && n.Kind != f.Kind {
		return false
	}
	if f.ParentID != nil && (n.ParentID == nil || *n.ParentID != *f.ParentID) {
		return false
	}
	return true
}

type Repo interface {
	GetNode(ctx context.Context, id uuid.UUID) (Node, error)
	ListNodes(ctx context.Context, f Filter) ([]Node, error)
	StoreNode(ctx context.Context, n Node) error
	// DeleteNode removes a node without children. A node that has children
	// is refused with ErrHasChildren.
	DeleteNode(ctx context.Context, id uuid.UUID) error
}
