package domain

import (
	"time"

	"github.com/google/uuid"
)

// Filter selects sessions by equality on their metadata. Nil fields match
// everything; From and To bound the creation time inclusively.
type Filter struct {
	TrainerID *uuid.UUID
	ProjectID *uuid.UUID
	BatchID   *uuid.UUID
	Type      SessionType
	Completed *bool
	From      *time.Time
	To        *time.Time
}

func (f Filter) Match(s Session) bool {
	if f.TrainerID != nil && s.TrainerID != *f.TrainerID {
		return false
	}
	if f.ProjectID != nil && (s.ProjectID == nil || *s.ProjectID != *f.ProjectID) {
		return false
	}
	if f.BatchID != nil && (s.BatchID == nil || *s.BatchID != *f.BatchID) {
		return false
	}
	if f.Type != "" && s.Type != f.Type {
		return false
	}
	if f.Completed != nil && s.Completed != *f.Completed {
		return false
	}
	if f.From != nil && s.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && s.CreatedAt.After(*f.To) {
		return false
	}
	return true
}
