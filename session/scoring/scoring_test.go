package scoring_test

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/scoring"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryScoreDefaultsToZero(t *testing.T) {
	assert.Equal(t, 0, scoring.CategoryScore(domain.Evaluation{}, "communication"))
	e := domain.Evaluation{Scores: domain.Scores{"communication": 4}}
	assert.Equal(t, 4, scoring.CategoryScore(e, "communication"))
	assert.Equal(t, 0, scoring.CategoryScore(e, "leadership"))
}

func TestTotalScoreIgnoresKeysOutsideRubric(t *testing.T) {
	e := domain.Evaluation{Scores: domain.Scores{
		"communication": 4,
		"leadership":    6,
		"clarity":       3, // not a GD category
	}}
	assert.Equal(t, 10, scoring.TotalScore(e, rubric.TypeGD))
}

// scores written through the clamped path keep the total within the rubric ceiling
func TestTotalScoreWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, typ := range []rubric.SessionType{rubric.TypeGD, rubric.TypePI} {
		s := domain.NewSession(uuid.New(), typ, uuid.New(), time.Now())
		s.Candidate = &domain.Candidate{Name: "c"}
		s, _ = domain.AddParticipant(s, domain.Participant{Name: "p"})
		p := s.Participants()[0]

		for i := 0; i < 500; i++ {
			cats := rubric.ForType(typ)
			c := cats[rng.Intn(len(cats))]
			v := c.Clamp(rng.Intn(40) - 15)
			s = domain.ApplyScore(s, p, c.ID, v)

			e, ok := s.Evaluation(p.ChestNumber)
			require.True(t, ok)
			total := scoring.TotalScore(e, typ)
			require.GreaterOrEqual(t, total, 0)
			require.LessOrEqual(t, total, rubric.MaxTotal(typ))
		}
	}
}

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"flat", `{"communication": 5, "leadership": 3}`, "flat"},
		{"flat with fraction", `{"communication": 5.4}`, "flat"},
		{"nested legacy", `{"communication": {"score": 5}}`, "legacy"},
		{"no known keys", `{"foo": 1}`, "legacy"},
		{"known key as string", `{"communication": "5"}`, "legacy"},
		{"mixed", `{"communication": 5, "leadership": {"score": 2}}`, "legacy"},
		{"null", `null`, "unknown"},
		{"array", `[1,2,3]`, "unknown"},
		{"empty", ``, "unknown"},
		{"garbage", `{not json`, "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			switch scoring.DetectShape(json.RawMessage(tc.raw), rubric.TypeGD).(type) {
			case scoring.FlatScores:
				got = "flat"
			case scoring.LegacyScores:
				got = "legacy"
			case scoring.UnknownScores:
				got = "unknown"
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeFlatFillsMissing(t *testing.T) {
	got := scoring.NormalizeScores(json.RawMessage(`{"communication": 7, "extra": 9}`), rubric.TypeGD)
	assert.Equal(t, domain.Scores{
		"communication":    7,
		"subjectKnowledge": 0,
		"leadership":       0,
		"listening":        0,
		"bodyLanguage":     0,
	}, got)
}

func TestNormalizeLegacyIsZeroed(t *testing.T) {
	legacy := `{"communication": {"fluency": 3, "clarity": 4}, "leadership": {"initiative": 2}}`
	got := scoring.NormalizeScores(json.RawMessage(legacy), rubric.TypeGD)
	require.Len(t, got, 5)
	for id, v := range got {
		assert.Zero(t, v, id)
	}
}

func TestSummarize(t *testing.T) {
	s := domain.NewSession(uuid.New(), rubric.TypeGD, uuid.New(), time.Now())
	s, anna := domain.AddParticipant(s, domain.Participant{Name: "anna"})
	s, _ = domain.AddParticipant(s, domain.Participant{Name: "bob"})
	s = domain.ApplyScore(s, anna, "communication", 9)
	s = domain.ApplyScore(s, anna, "listening", 8)
	s = domain.ApplyRemarks(s, anna, "good")

	rows := scoring.Summarize(s)
	require.Len(t, rows, 2)
	assert.Equal(t, 17, rows[0].Total)
	assert.Equal(t, 50, rows[0].MaxTotal)
	assert.True(t, rows[0].Evaluated)
	assert.Equal(t, "good", rows[0].Remarks)
	assert.Equal(t, 0, rows[1].Total)
	assert.False(t, rows[1].Evaluated)
	assert.Len(t, rows[1].Scores, 5)
}

func TestDecodeEvaluationsNormalizesStoredScores(t *testing.T) {
	raw := []byte(`[
		{"studentId": 1, "studentName": "ann", "scores": {"communication": 7, "listening": 4.6}, "remarks": "ok"},
		{"studentId": 2, "studentName": "bob", "scores": {"communication": {"score": 8}}},
		{"studentId": 3, "studentName": "cid", "scores": null}
	]`)

	evals, nonFlat, err := scoring.DecodeEvaluations(raw, rubric.TypeGD)
	require.NoError(t, err)
	require.Len(t, evals, 3)
	assert.Equal(t, 2, nonFlat)

	assert.Equal(t, 7, evals[0].Scores["communication"])
	assert.Equal(t, 5, evals[0].Scores["listening"])
	assert.Equal(t, 0, evals[0].Scores["leadership"])
	assert.Equal(t, "ok", evals[0].Remarks)
	assert.Equal(t, 12, scoring.TotalScore(evals[0], rubric.TypeGD))

	for _, e := range evals[1:] {
		assert.Len(t, e.Scores, 5)
		assert.Equal(t, 0, scoring.TotalScore(e, rubric.TypeGD))
	}
}

func TestDecodeEvaluationsReadsPISubScores(t *testing.T) {
	raw := []byte(`[{"studentId": 1, "scores": {"communication": 6}, "subScores": {"communication.clarity": 4, "communication.fluency": "x"}}]`)

	evals, _, err := scoring.DecodeEvaluations(raw, rubric.TypePI)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, 4, evals[0].SubScores["communication.clarity"])
	assert.Equal(t, 0, evals[0].SubScores["communication.fluency"])
}

func TestDecodeEvaluationsEmpty(t *testing.T) {
	evals, nonFlat, err := scoring.DecodeEvaluations(nil, rubric.TypeGD)
	require.NoError(t, err)
	assert.Empty(t, evals)
	assert.Zero(t, nonFlat)
}
