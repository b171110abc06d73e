package export

import (
	"time"

	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/scoring"
	"github.com/google/uuid"
)

// Row is one evaluation of one participant.
type Row struct {
	SessionID   uuid.UUID
	SessionType rubric.SessionType
	Date        time.Time
	Trainer     string
	GroupName   string
	Topic       string

	ChestNumber    int
	Name           string
	Email          string
	Specialization string

	Scores   domain.Scores
	Total    int
	MaxTotal int
	Remarks  string
}

// Rows lists every evaluation of sessions, session by session in the given
// order. trainerNames resolves trainer ids, unknown ids are left blank.
func Rows(sessions []domain.Session, trainerNames map[uuid.UUID]string) []Row {
	res := []Row{}
	for _, s := range sessions {
		for _, e := range s.Evaluations {
			row := Row{
				SessionID:      s.ID,
				SessionType:    s.Type,
				Date:           s.CreatedAt,
				Trainer:        trainerNames[s.TrainerID],
				GroupName:      s.GroupName,
				Topic:          s.Topic,
				ChestNumber:    e.StudentID,
				Name:           e.StudentName,
				Email:          e.StudentEmail,
				Specialization: e.Specialization,
				Scores:         domain.Scores{},
				Total:          scoring.TotalScore(e, s.Type),
				MaxTotal:       rubric.MaxTotal(s.Type),
				Remarks:        e.Remarks,
			}
			// the participant list is fresher than the copy on the evaluation
			if p, ok := s.Participant(e.StudentID); ok {
				row.Name, row.Email, row.Specialization = p.Name, p.Email, p.Specialization
			}
			for _, c := range rubric.ForType(s.Type) {
				row.Scores[c.ID] = scoring.CategoryScore(e, c.ID)
			}
			res = append(res, row)
		}
	}
	return res
}
