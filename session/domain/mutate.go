package domain

import "github.com/evaltrack/backend/rubric"

// ApplyScore sets the score of categoryID for p. An existing evaluation of p
// keeps its other categories and remarks, otherwise a zeroed one is created.
//
// value must already be clamped to [0, category max] by the caller.
func ApplyScore(s Session, p Participant, categoryID string, value int) Session {
	return upsertEvaluation(s, p, func(e *Evaluation) {
		e.Scores[categoryID] = value
	})
}

// ApplySubScore sets one weighted sub-field of a category and recomputes the
// category score as the sum of its sub-fields. Unknown ids leave s unchanged.
//
// value must already be clamped to [0, sub-field max] by the caller.
func ApplySubScore(s Session, p Participant, categoryID string, subFieldID string, value int) Session {
	cat, ok := rubric.Lookup(s.Type, categoryID)
	if !ok {
		return s.Clone()
	}
	if _, ok := cat.SubField(subFieldID); !ok {
		return s.Clone()
	}
	return upsertEvaluation(s, p, func(e *Evaluation) {
		if e.SubScores == nil {
			e.SubScores = Scores{}
		}
		e.SubScores[rubric.SubScoreKey(categoryID, subFieldID)] = value
		sum := 0
		for _, sf := range cat.SubFields {
			sum += e.SubScores[rubric.SubScoreKey(categoryID, sf.ID)]
		}
		e.Scores[categoryID] = sum
	})
}

// ApplyRemarks sets the remarks of p following the same insert-or-update rule
// as ApplyScore.
func ApplyRemarks(s Session, p Participant, text string) Session {
	return upsertEvaluation(s, p, func(e *Evaluation) {
		e.Remarks = text
	})
}

func upsertEvaluation(s Session, p Participant, update func(e *Evaluation)) Session {
	next := s.Clone()
	if idx := next.evaluationIndex(p.ChestNumber); idx >= 0 {
		e := next.Evaluations[idx].clone()
		update(&e)
		next.Evaluations[idx] = e
		return next
	}
	e := newEvaluation(s.Type, p)
	update(&e)
	next.Evaluations = append(next.Evaluations, e)
	return next
}
