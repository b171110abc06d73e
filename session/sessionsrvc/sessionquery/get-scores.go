package sessionquery

import (
	"context"

	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/scoring"
	decorator "github.com/evaltrack/backend/srvccqs"
)

type Scores struct {
	SessionType rubric.SessionType         `json:"sessionType"`
	Categories  []rubric.Category          `json:"categories"`
	MaxTotal    int                        `json:"maxTotal"`
	Totals      []scoring.ParticipantTotal `json:"totals"`
}

type GetScoresQuery decorator.QueryHandler[GetSessionParams, Scores]

// NewGetScoresQuery builds the per-participant score summary on top of an
// access-checked session read.
func NewGetScoresQuery(getSession GetSessionQuery) GetScoresQuery {
	return decorator.QueryFunc[GetSessionParams, Scores](func(ctx context.Context, p GetSessionParams) (Scores, error) {
		s, err := getSession.Handle(ctx, p)
		if err != nil {
			return Scores{}, err
		}
		return summarize(s), nil
	})
}

func summarize(s domain.Session) Scores {
	return Scores{
		SessionType: s.Type,
		Categories:  rubric.ForType(s.Type),
		MaxTotal:    rubric.MaxTotal(s.Type),
		Totals:      scoring.Summarize(s),
	}
}
