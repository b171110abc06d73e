package draft

import "github.com/evaltrack/backend/session/domain"

// Policy decides which copy of a session wins when local and server state
// meet.
type Policy interface {
	// OnLoad merges the server document with the local draft, if any, when a
	// view is opened.
	OnLoad(server domain.Session, local *Draft) domain.Session
	// OnRemote merges a live server update into the local state of an open
	// view.
	OnRemote(local domain.Session, remote domain.Session) domain.Session
}

// DraftWins is the default policy. A non-empty draft replaces the server's
// evaluations and students on load; every other field comes from the server.
// Live updates replace everything except evaluations, which stay local until
// an explicit save. Participants are allocated on the server, so local
// evaluations of participants the server no longer has are dropped.
type DraftWins struct{}

func (DraftWins) OnLoad(server domain.Session, local *Draft) domain.Session {
	merged := server.Clone()
	if local == nil || local.Empty() {
		return merged
	}
	merged.Evaluations = append([]domain.Evaluation{}, local.Evaluations...)
	merged.Students = append([]domain.Participant{}, local.Students...)
	if local.LastChestNumber > merged.LastChestNumber {
		merged.LastChestNumber = local.LastChestNumber
	}
	return merged
}

func (DraftWins) OnRemote(local domain.Session, remote domain.Session) domain.Session {
	merged := remote.Clone()
	merged.Evaluations = ofParticipants(merged, local.Evaluations)
	return merged
}

// ofParticipants keeps the evaluations whose chest number names a participant
// of s.
func ofParticipants(s domain.Session, evals []domain.Evaluation) []domain.Evaluation {
	kept := make([]domain.Evaluation, 0, len(evals))
	for _, e := range evals {
		if _, ok := s.Participant(e.StudentID); ok {
			kept = append(kept, e)
		}
	}
	return kept
}
