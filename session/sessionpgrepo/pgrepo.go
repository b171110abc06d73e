package sessionpgrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/evaltrack/backend/feed"
	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/pgnotify"
	"github.com/evaltrack/backend/rubric"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/session/scoring"
	"github.com/evaltrack/backend/session/sessionerror"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgSessionRepo struct {
	pool  *pgxpool.Pool
	docs  *feed.Hub[uuid.UUID, domain.Session]
	lists *feed.Hub[uuid.UUID, []domain.Session]
}

func NewPgSessionRepo(pool *pgxpool.Pool) *PgSessionRepo {
	return &PgSessionRepo{
		pool:  pool,
		docs:  feed.NewHub[uuid.UUID, domain.Session](),
		lists: feed.NewHub[uuid.UUID, []domain.Session](),
	}
}

const selectSession = `
	SELECT id, type, trainer_id, project_id, batch_id, is_active, completed,
		group_name, topic, candidate, students, evaluations, last_chest_number,
		completed_at, created_at
	FROM sessions`

func scanSession(ctx context.Context, row pgx.Row) (domain.Session, error) {
	var (
		s           domain.Session
		sessionType string
		candidate   []byte
		students    []byte
		evaluations []byte
	)
	err := row.Scan(
		&s.ID, &sessionType, &s.TrainerID, &s.ProjectID, &s.BatchID, &s.IsActive, &s.Completed,
		&s.GroupName, &s.Topic, &candidate, &students, &evaluations, &s.LastChestNumber,
		&s.CompletedAt, &s.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, err
	}
	s.Type = rubric.SessionType(sessionType)

	if len(candidate) > 0 && string(candidate) != "null" {
		var c domain.Candidate
		if err := json.Unmarshal(candidate, &c); err != nil {
			return domain.Session{}, fmt.Errorf("failed to decode candidate: %w", err)
		}
		s.Candidate = &c
	}
	s.Students = []domain.Participant{}
	if len(students) > 0 {
		if err := json.Unmarshal(students, &s.Students); err != nil {
			return domain.Session{}, fmt.Errorf("failed to decode students: %w", err)
		}
		if s.Students == nil {
			s.Students = []domain.Participant{}
		}
	}

	evals, nonFlat, err := scoring.DecodeEvaluations(evaluations, s.Type)
	if err != nil {
		return domain.Session{}, err
	}
	if nonFlat > 0 {
		logger.FromContext(ctx).Debug("session has non-flat stored scores",
			"session_id", s.ID, "records", nonFlat)
	}
	s.Evaluations = evals
	return s, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getSession(ctx context.Context, q rowQuerier, id uuid.UUID, lock bool) (domain.Session, error) {
	sql := selectSession + ` WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	s, err := scanSession(ctx, q.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, sessionerror.ErrSessionNotFound(id)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *PgSessionRepo) GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	return getSession(ctx, r.pool, id, false)
}

func (r *PgSessionRepo) ListSessions(ctx context.Context, f domain.Filter) ([]domain.Session, error) {
	where, args := filterClause(f)
	rows, err := r.pool.Query(ctx, selectSession+where+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	res := []domain.Session{}
	for rows.Next() {
		s, err := scanSession(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return res, nil
}

func filterClause(f domain.Filter) (string, []any) {
	conds := []string{}
	args := []any{}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.TrainerID != nil {
		add("trainer_id = $%d", *f.TrainerID)
	}
	if f.ProjectID != nil {
		add("project_id = $%d", *f.ProjectID)
	}
	if f.BatchID != nil {
		add("batch_id = $%d", *f.BatchID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.Completed != nil {
		add("completed = $%d", *f.Completed)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PgSessionRepo) StoreSession(ctx context.Context, s domain.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := upsertSession(ctx, tx, s); err != nil {
		return err
	}
	if err := notify(ctx, tx, s.ID, s.TrainerID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateSession runs edit on the row locked for update, so concurrent
// read-modify-write cycles on one session serialize.
func (r *PgSessionRepo) UpdateSession(
	ctx context.Context,
	id uuid.UUID,
	edit func(s domain.Session) (domain.Session, error),
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	s, err := getSession(ctx, tx, id, true)
	if err != nil {
		return err
	}
	next, err := edit(s)
	if err != nil {
		return err
	}
	if err := upsertSession(ctx, tx, next); err != nil {
		return err
	}
	if err := notify(ctx, tx, next.ID, next.TrainerID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func upsertSession(ctx context.Context, tx pgx.Tx, s domain.Session) error {
	candidate, err := json.Marshal(s.Candidate)
	if err != nil {
		return fmt.Errorf("failed to encode candidate: %w", err)
	}
	students := s.Students
	if students == nil {
		students = []domain.Participant{}
	}
	studentsJson, err := json.Marshal(students)
	if err != nil {
		return fmt.Errorf("failed to encode students: %w", err)
	}
	evals := s.Evaluations
	if evals == nil {
		evals = []domain.Evaluation{}
	}
	evalsJson, err := json.Marshal(evals)
	if err != nil {
		return fmt.Errorf("failed to encode evaluations: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (
			id, type, trainer_id, project_id, batch_id, is_active, completed,
			group_name, topic, candidate, students, evaluations, last_chest_number,
			completed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			batch_id = EXCLUDED.batch_id,
			is_active = EXCLUDED.is_active,
			completed = EXCLUDED.completed,
			group_name = EXCLUDED.group_name,
			topic = EXCLUDED.topic,
			candidate = EXCLUDED.candidate,
			students = EXCLUDED.students,
			evaluations = EXCLUDED.evaluations,
			last_chest_number = EXCLUDED.last_chest_number,
			completed_at = EXCLUDED.completed_at
	`, s.ID, string(s.Type), s.TrainerID, s.ProjectID, s.BatchID, s.IsActive, s.Completed,
		s.GroupName, s.Topic, candidate, studentsJson, evalsJson, s.LastChestNumber,
		s.CompletedAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

func (r *PgSessionRepo) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var trainerID uuid.UUID
	err = tx.QueryRow(ctx, `DELETE FROM sessions WHERE id = $1 RETURNING trainer_id`, id).Scan(&trainerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return sessionerror.ErrSessionNotFound(id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := notify(ctx, tx, id, trainerID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// notify payload: "<session id> <trainer id>"
func notify(ctx context.Context, tx pgx.Tx, id uuid.UUID, trainerID uuid.UUID) error {
	return pgnotify.Notify(ctx, tx, pgnotify.ChannelSessionChanged, id.String()+" "+trainerID.String())
}

func (r *PgSessionRepo) WatchSession(ctx context.Context, id uuid.UUID) (<-chan domain.Session, error) {
	return r.docs.Subscribe(ctx, id, func(ctx context.Context) (domain.Session, error) {
		return r.GetSession(ctx, id)
	})
}

func (r *PgSessionRepo) WatchSessions(ctx context.Context, trainerID uuid.UUID) (<-chan []domain.Session, error) {
	return r.lists.Subscribe(ctx, trainerID, func(ctx context.Context) ([]domain.Session, error) {
		return r.ListSessions(ctx, domain.Filter{TrainerID: &trainerID})
	})
}

// Listen feeds session_changed notifications to watchers until ctx is done.
func (r *PgSessionRepo) Listen(ctx context.Context) error {
	return pgnotify.Listen(ctx, r.pool, r.handleNotification, pgnotify.ChannelSessionChanged)
}

func (r *PgSessionRepo) handleNotification(ctx context.Context, n *pgconn.Notification) {
	log := logger.FromContext(ctx)
	id, trainerID, err := parsePayload(n.Payload)
	if err != nil {
		log.Warn("malformed session notification", "payload", n.Payload, "error", err)
		return
	}

	if r.docs.Subscribers(id) > 0 {
		s, err := r.GetSession(ctx, id)
		switch {
		case err == nil:
			r.docs.Publish(id, s)
		case srvcerror.HasCode(err, sessionerror.ErrCodeSessionNotFound):
			// deleted, only the list changes
		default:
			log.Error("failed to refetch session", "session_id", id, "error", err)
		}
	}

	if r.lists.Subscribers(trainerID) > 0 {
		list, err := r.ListSessions(ctx, domain.Filter{TrainerID: &trainerID})
		if err != nil {
			log.Error("failed to refetch session list", "trainer_id", trainerID, "error", err)
			return
		}
		r.lists.Publish(trainerID, list)
	}
}

func parsePayload(payload string) (uuid.UUID, uuid.UUID, error) {
	idStr, trainerStr, ok := strings.Cut(payload, " ")
	if !ok {
		return uuid.Nil, uuid.Nil, fmt.Errorf("expected two ids, got %q", payload)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	trainerID, err := uuid.Parse(trainerStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, trainerID, nil
}

// ShapeReport counts stored evaluation records by the shape of their scores.
type ShapeReport struct {
	Sessions int `json:"sessions"`
	Records  int `json:"records"`
	NonFlat  int `json:"nonFlat"`
	// Affected lists sessions holding at least one non-flat record.
	Affected []uuid.UUID `json:"affected"`
}

// ScanScoreShapes reads every stored evaluations array and counts the records
// whose scores are not in the flat shape and therefore read as zeros.
func (r *PgSessionRepo) ScanScoreShapes(ctx context.Context) (ShapeReport, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, type, evaluations FROM sessions ORDER BY created_at`)
	if err != nil {
		return ShapeReport{}, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	report := ShapeReport{Affected: []uuid.UUID{}}
	for rows.Next() {
		var (
			id          uuid.UUID
			sessionType string
			evaluations []byte
		)
		if err := rows.Scan(&id, &sessionType, &evaluations); err != nil {
			return ShapeReport{}, fmt.Errorf("failed to scan session: %w", err)
		}
		evals, nonFlat, err := scoring.DecodeEvaluations(evaluations, rubric.SessionType(sessionType))
		if err != nil {
			return ShapeReport{}, fmt.Errorf("session %s: %w", id, err)
		}
		report.Sessions++
		report.Records += len(evals)
		report.NonFlat += nonFlat
		if nonFlat > 0 {
			report.Affected = append(report.Affected, id)
		}
	}
	if err := rows.Err(); err != nil {
		return ShapeReport{}, fmt.Errorf("failed to read sessions: %w", err)
	}
	return report, nil
}
