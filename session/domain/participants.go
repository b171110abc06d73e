package domain

// Active is the working copy of the participant currently being scored.
type Active struct {
	Participant Participant `json:"participant"`
	Scores      Scores      `json:"scores"`
	SubScores   Scores      `json:"subScores,omitempty"`
	Remarks     string      `json:"remarks"`
}

// Hydrate loads the evaluation of p from s, or zeros when p has none yet.
func Hydrate(s Session, p Participant) Active {
	if e, ok := s.Evaluation(p.ChestNumber); ok {
		e = e.clone()
		return Active{Participant: p, Scores: e.Scores, SubScores: e.SubScores, Remarks: e.Remarks}
	}
	zero := newEvaluation(s.Type, p)
	return Active{Participant: p, Scores: zero.Scores, SubScores: zero.SubScores}
}

// NextChestNumber is the number the next added participant receives. Numbers
// are never reused, even after the highest one was removed.
func NextChestNumber(s Session) int {
	highest := s.LastChestNumber
	for _, p := range s.Students {
		if p.ChestNumber > highest {
			highest = p.ChestNumber
		}
	}
	return highest + 1
}

// AddParticipant appends p with a freshly allocated chest number. No
// evaluation record is created until the first score or remark.
func AddParticipant(s Session, p Participant) (Session, Participant) {
	next := s.Clone()
	p.ChestNumber = NextChestNumber(s)
	next.Students = append(next.Students, p)
	next.LastChestNumber = p.ChestNumber
	return next, p
}

// RemoveParticipant deletes the participant with chestNumber and its
// evaluation. Remaining chest numbers are kept as they are. When the removed
// participant was active, the first remaining participant becomes active.
func RemoveParticipant(s Session, active *Active, chestNumber int) (Session, *Active) {
	next := s.Clone()

	students := next.Students[:0]
	removed := false
	for _, p := range next.Students {
		if p.ChestNumber == chestNumber {
			removed = true
			continue
		}
		students = append(students, p)
	}
	next.Students = students
	if !removed {
		return next, active
	}
	if chestNumber > next.LastChestNumber {
		next.LastChestNumber = chestNumber
	}

	evals := next.Evaluations[:0]
	for _, e := range next.Evaluations {
		if e.StudentID != chestNumber {
			evals = append(evals, e)
		}
	}
	next.Evaluations = evals

	if active == nil || active.Participant.ChestNumber != chestNumber {
		return next, active
	}
	if len(next.Students) == 0 {
		return next, nil
	}
	a := Hydrate(next, next.Students[0])
	return next, &a
}
