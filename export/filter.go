// Package export turns evaluated sessions into spreadsheets and reads
// participant lists from them.
package export

import (
	"time"

	"github.com/evaltrack/backend/session/domain"
	"github.com/google/uuid"
)

// MaxSpan is the widest date range one export may cover.
const MaxSpan = 7 * 24 * time.Hour

// Filter selects the sessions of one project created between From and To,
// both given as calendar days.
type Filter struct {
	ProjectID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// Enabled reports whether f is complete and spans at most MaxSpan.
func Enabled(f Filter) bool {
	if f.ProjectID == nil || f.From == nil || f.To == nil {
		return false
	}
	span := f.To.Sub(*f.From)
	return span >= 0 && span <= MaxSpan
}

// sessionFilter widens To to the end of its day.
func (f Filter) sessionFilter() domain.Filter {
	to := f.To.Add(24*time.Hour - time.Nanosecond)
	return domain.Filter{
		ProjectID: f.ProjectID,
		From:      f.From,
		To:        &to,
	}
}
