// Package scoring derives category and total scores from evaluations.
package scoring

import (
	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
)

// CategoryScore returns the stored value of categoryID, 0 when absent.
func CategoryScore(e domain.Evaluation, categoryID string) int {
	if e.Scores == nil {
		return 0
	}
	return e.Scores[categoryID]
}

// TotalScore sums the categories of the rubric for t. It does not clamp:
// values are bounds-checked where they are written.
func TotalScore(e domain.Evaluation, t rubric.SessionType) int {
	total := 0
	for _, c := range rubric.ForType(t) {
		total += CategoryScore(e, c.ID)
	}
	return total
}

type ParticipantTotal struct {
	Participant domain.Participant `json:"participant"`
	Scores      domain.Scores      `json:"scores"`
	Total       int                `json:"total"`
	MaxTotal    int                `json:"maxTotal"`
	Remarks     string             `json:"remarks"`
	Evaluated   bool               `json:"evaluated"`
}

// Summarize lists every participant of s with their category scores and
// total, in participant order. Participants without an evaluation score 0.
func Summarize(s domain.Session) []ParticipantTotal {
	maxTotal := rubric.MaxTotal(s.Type)
	res := make([]ParticipantTotal, 0, len(s.Participants()))
	for _, p := range s.Participants() {
		row := ParticipantTotal{
			Participant: p,
			Scores:      domain.Scores{},
			MaxTotal:    maxTotal,
		}
		e, ok := s.Evaluation(p.ChestNumber)
		for _, c := range rubric.ForType(s.Type) {
			row.Scores[c.ID] = CategoryScore(e, c.ID)
		}
		if ok {
			row.Evaluated = true
			row.Total = TotalScore(e, s.Type)
			row.Remarks = e.Remarks
		}
		res = append(res, row)
	}
	return res
}
