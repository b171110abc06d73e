package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
)

type storedEvaluation struct {
	StudentID      int             `json:"studentId"`
	StudentName    string          `json:"studentName"`
	StudentEmail   string          `json:"studentEmail"`
	Specialization string          `json:"specialization"`
	Scores         json.RawMessage `json:"scores"`
	SubScores      json.RawMessage `json:"subScores"`
	Remarks        string          `json:"remarks"`
}

// DecodeEvaluations reads a stored evaluations array of a session of type t.
// Scores go through NormalizeScores. nonFlat counts the records whose stored
// scores were not flat and were therefore read as zeros.
func DecodeEvaluations(raw []byte, t rubric.SessionType) (evals []domain.Evaluation, nonFlat int, err error) {
	if len(raw) == 0 {
		return []domain.Evaluation{}, 0, nil
	}
	var stored []storedEvaluation
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, 0, fmt.Errorf("failed to decode evaluations: %w", err)
	}

	evals = make([]domain.Evaluation, 0, len(stored))
	for _, s := range stored {
		if _, ok := DetectShape(s.Scores, t).(FlatScores); !ok {
			nonFlat++
		}
		e := domain.Evaluation{
			StudentID:      s.StudentID,
			StudentName:    s.StudentName,
			StudentEmail:   s.StudentEmail,
			Specialization: s.Specialization,
			Scores:         NormalizeScores(s.Scores, t),
			Remarks:        s.Remarks,
		}
		if t == rubric.TypePI {
			e.SubScores = decodeSubScores(s.SubScores, t)
		}
		evals = append(evals, e)
	}
	return evals, nonFlat, nil
}

// decodeSubScores keeps the known sub-field keys that hold numbers.
func decodeSubScores(raw json.RawMessage, t rubric.SessionType) domain.Scores {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		obj = nil
	}
	res := domain.Scores{}
	for _, c := range rubric.ForType(t) {
		for _, sf := range c.SubFields {
			key := rubric.SubScoreKey(c.ID, sf.ID)
			res[key] = 0
			if n, ok := asNumber(obj[key]); ok {
				res[key] = n
			}
		}
	}
	return res
}
