package export

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/session/domain"
	"github.com/evaltrack/backend/trainer"
	"github.com/google/uuid"
)

// Uploader stores a finished export and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, content []byte) (string, error)
}

type Result struct {
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
	// URL is set when the export was uploaded
	URL     string `json:"url,omitempty"`
	Content []byte `json:"-"`
}

type Exporter struct {
	// ListSessions is expected to scope the result to what the caller may see.
	ListSessions func(ctx context.Context, f domain.Filter) ([]domain.Session, error)
	// LookupTrainer is only asked for the trainers of the exported sessions.
	LookupTrainer func(ctx context.Context, userID uuid.UUID) (trainer.Record, error)
	// Uploader is optional
	Uploader Uploader
}

func (e Exporter) Export(ctx context.Context, f Filter) (Result, error) {
	if !Enabled(f) {
		return Result{}, newErrExportDisabled()
	}

	sessions, err := e.ListSessions(ctx, f.sessionFilter())
	if err != nil {
		return Result{}, err
	}
	names, err := e.trainerNames(ctx, sessions)
	if err != nil {
		return Result{}, err
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	rows := Rows(sessions, names)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		return Result{}, err
	}

	res := Result{
		Filename: filename(f),
		Rows:     len(rows),
		Content:  buf.Bytes(),
	}
	if e.Uploader != nil {
		key := fmt.Sprintf("exports/%s/%s", f.ProjectID, res.Filename)
		url, err := e.Uploader.Upload(ctx, key, ContentTypeXLSX, res.Content)
		if err != nil {
			return Result{}, fmt.Errorf("failed to upload export: %w", err)
		}
		res.URL = url
	}

	logger.FromContext(ctx).Info("evaluations exported",
		"project_id", f.ProjectID, "sessions", len(sessions), "rows", len(rows), "uploaded", res.URL != "")
	return res, nil
}

// trainerNames resolves the names of the trainers owning sessions. A deleted
// trainer is left without a name.
func (e Exporter) trainerNames(ctx context.Context, sessions []domain.Session) (map[uuid.UUID]string, error) {
	names := map[uuid.UUID]string{}
	for _, s := range sessions {
		if _, ok := names[s.TrainerID]; ok {
			continue
		}
		rec, err := e.LookupTrainer(ctx, s.TrainerID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up trainer: %w", err)
		}
		names[s.TrainerID] = rec.Trainer.Name
	}
	return names, nil
}

func filename(f Filter) string {
	return fmt.Sprintf("evaluations_%s_%s.xlsx", f.From.Format(time.DateOnly), f.To.Format(time.DateOnly))
}
