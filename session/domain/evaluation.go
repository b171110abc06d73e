package domain

import "github.com/evaltrack/backend/rubric"

// Scores maps a category id (or a sub-field key for PI) to its value.
type Scores map[string]int

func (s Scores) Clone() Scores {
	res := make(Scores, len(s))
	for k, v := range s {
		res[k] = v
	}
	return res
}

// Evaluation is one participant's scores and remarks within a session.
type Evaluation struct {
	StudentID      int    `json:"studentId"`
	StudentName    string `json:"studentName"`
	StudentEmail   string `json:"studentEmail"`
	Specialization string `json:"specialization"`

	Scores    Scores `json:"scores"`
	SubScores Scores `json:"subScores,omitempty"`
	Remarks   string `json:"remarks"`
}

func (e Evaluation) clone() Evaluation {
	e.Scores = e.Scores.Clone()
	if e.SubScores != nil {
		e.SubScores = e.SubScores.Clone()
	}
	return e
}

// newEvaluation builds a zeroed record for p with every category of t at 0.
func newEvaluation(t SessionType, p Participant) Evaluation {
	e := Evaluation{
		StudentID:      p.ChestNumber,
		StudentName:    p.Name,
		StudentEmail:   p.Email,
		Specialization: p.Specialization,
		Scores:         Scores{},
	}
	for _, c := range rubric.ForType(t) {
		e.Scores[c.ID] = 0
		for _, sf := range c.SubFields {
			if e.SubScores == nil {
				e.SubScores = Scores{}
			}
			e.SubScores[rubric.SubScoreKey(c.ID, sf.ID)] = 0
		}
	}
	return e
}

// WithIdentity copies the denormalized identity fields of p onto e.
func (e Evaluation) WithIdentity(p Participant) Evaluation {
	e.StudentName = p.Name
	e.StudentEmail = p.Email
	e.Specialization = p.Specialization
	return e
}
