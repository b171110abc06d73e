package domain

import (
	"time"

	"github.com/evaltrack/backend/rubric"
	"github.com/google/uuid"
)

type SessionType = rubric.SessionType

// Session is one group discussion or personal interview event owned by a
// single trainer.
type Session struct {
	ID        uuid.UUID   `json:"id"`
	Type      SessionType `json:"type"`
	TrainerID uuid.UUID   `json:"trainerId"`
	ProjectID *uuid.UUID  `json:"projectId,omitempty"`
	BatchID   *uuid.UUID  `json:"batchId,omitempty"`

	IsActive  bool `json:"isActive"`
	Completed bool `json:"completed"`

	GroupName string     `json:"groupName,omitempty"` // gd
	Topic     string     `json:"topic,omitempty"`     // gd
	Candidate *Candidate `json:"candidate,omitempty"` // pi

	Students    []Participant `json:"students"`
	Evaluations []Evaluation  `json:"evaluations"`

	// highest chest number ever issued in this session
	LastChestNumber int `json:"lastChestNumber"`

	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Participant struct {
	ChestNumber    int    `json:"chestNumber"`
	Name           string `json:"name" validate:"required,max=100"`
	Email          string `json:"email" validate:"omitempty,email"`
	Specialization string `json:"specialization" validate:"max=100"`
}

// Candidate is the interviewee of a personal interview session.
type Candidate struct {
	Name           string `json:"name" validate:"required,max=100"`
	Email          string `json:"email" validate:"omitempty,email"`
	Specialization string `json:"specialization" validate:"max=100"`
	Resume         string `json:"resume,omitempty"`
}

// CandidateChestNumber is the implicit student id of a PI candidate.
const CandidateChestNumber = 1

func (c Candidate) Participant() Participant {
	return Participant{
		ChestNumber:    CandidateChestNumber,
		Name:           c.Name,
		Email:          c.Email,
		Specialization: c.Specialization,
	}
}

// NewSession returns an active, incomplete session with no participants.
func NewSession(id uuid.UUID, t SessionType, trainerID uuid.UUID, createdAt time.Time) Session {
	return Session{
		ID:          id,
		Type:        t,
		TrainerID:   trainerID,
		IsActive:    true,
		Students:    []Participant{},
		Evaluations: []Evaluation{},
		CreatedAt:   createdAt,
	}
}

// Participants lists everyone who can be scored in s: the students of a GD
// session or the single candidate of a PI session.
func (s Session) Participants() []Participant {
	if s.Type == rubric.TypePI {
		if s.Candidate == nil {
			return nil
		}
		return []Participant{s.Candidate.Participant()}
	}
	return s.Students
}

func (s Session) Participant(chestNumber int) (Participant, bool) {
	for _, p := range s.Participants() {
		if p.ChestNumber == chestNumber {
			return p, true
		}
	}
	return Participant{}, false
}

func (s Session) Evaluation(studentID int) (Evaluation, bool) {
	idx := s.evaluationIndex(studentID)
	if idx < 0 {
		return Evaluation{}, false
	}
	return s.Evaluations[idx], true
}

func (s Session) evaluationIndex(studentID int) int {
	for i, e := range s.Evaluations {
		if e.StudentID == studentID {
			return i
		}
	}
	return -1
}

// Clone copies the slices of s so that the result can be modified without
// touching s. Evaluation maps are shared until written.
func (s Session) Clone() Session {
	next := s
	next.Students = append([]Participant{}, s.Students...)
	next.Evaluations = append([]Evaluation{}, s.Evaluations...)
	if s.Candidate != nil {
		c := *s.Candidate
		next.Candidate = &c
	}
	return next
}

// UpdateDetails replaces the descriptive metadata of s. Nil arguments keep
// the current value.
func UpdateDetails(s Session, groupName *string, topic *string, candidate *Candidate) Session {
	next := s.Clone()
	if groupName != nil {
		next.GroupName = *groupName
	}
	if topic != nil {
		next.Topic = *topic
	}
	if candidate != nil {
		c := *candidate
		next.Candidate = &c
	}
	return next
}

// Complete marks s as finished. A completed session is never reopened.
func Complete(s Session, now time.Time) Session {
	next := s.Clone()
	next.Completed = true
	next.IsActive = false
	next.CompletedAt = &now
	return next
}
