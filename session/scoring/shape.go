package scoring

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
)

// Shape is the result of checking a stored scores blob against the current
// flat schema. It is one of FlatScores, LegacyScores or UnknownScores.
type Shape interface {
	shape()
}

// FlatScores is the current shape: category id to number.
type FlatScores struct {
	Scores domain.Scores
}

// LegacyScores is an object that does not follow the flat shape, typically
// the older nested per-category records.
type LegacyScores struct {
	Raw map[string]json.RawMessage
}

// UnknownScores is anything that is not a JSON object.
type UnknownScores struct {
	Raw json.RawMessage
}

func (FlatScores) shape()    {}
func (LegacyScores) shape()  {}
func (UnknownScores) shape() {}

// DetectShape classifies raw for session type t. A blob is flat when at least
// one rubric category key holds a number and no rubric category key holds
// anything else.
func DetectShape(raw json.RawMessage, t rubric.SessionType) Shape {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return UnknownScores{Raw: raw}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return UnknownScores{Raw: raw}
	}

	flat := domain.Scores{}
	numeric := 0
	for _, id := range rubric.CategoryIDs(t) {
		v, ok := obj[id]
		if !ok {
			continue
		}
		n, ok := asNumber(v)
		if !ok {
			return LegacyScores{Raw: obj}
		}
		flat[id] = n
		numeric++
	}
	if numeric == 0 {
		return LegacyScores{Raw: obj}
	}
	return FlatScores{Scores: flat}
}

// NormalizeScores returns a flat record holding every rubric category of t.
// Flat input passes through with missing categories at 0. Legacy and unknown
// input is not converted: it yields an all-zero record.
func NormalizeScores(raw json.RawMessage, t rubric.SessionType) domain.Scores {
	res := domain.Scores{}
	for _, id := range rubric.CategoryIDs(t) {
		res[id] = 0
	}
	if flat, ok := DetectShape(raw, t).(FlatScores); ok {
		for id, v := range flat.Scores {
			res[id] = v
		}
	}
	return res
}

func asNumber(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}
