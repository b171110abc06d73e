package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/trainer"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExportFilter(t *testing.T) {
	pid := uuid.New()

	f, err := parseExportFilter(pid.String(), "2024-03-01", "2024-03-08")
	require.NoError(t, err)
	assert.Equal(t, pid, *f.ProjectID)

	_, err = parseExportFilter(pid.String(), "2024-03-01", "2024-03-09")
	assert.Error(t, err)
	_, err = parseExportFilter(pid.String(), "2024-03-08", "2024-03-01")
	assert.Error(t, err)
	_, err = parseExportFilter("nope", "2024-03-01", "2024-03-02")
	assert.Error(t, err)
	_, err = parseExportFilter(pid.String(), "03/01/2024", "2024-03-02")
	assert.Error(t, err)
}

func TestSlogWritesThroughZerolog(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := withSlog(context.Background())
	l := logger.FromContext(ctx).With("trainer_id", "t1")
	l.Debug("hidden")
	l.WithGroup("req").Info("trainer created", "role", "admin")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"trainer created"`)
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"trainer_id":"t1"`)
	assert.NotContains(t, out, `"req.trainer_id"`)
	assert.Contains(t, out, `"req.role":"admin"`)
}

func TestTrainerTable(t *testing.T) {
	out := trainerTable([]trainer.Trainer{{
		UserID:    uuid.MustParse("7b0c7f5e-8a44-4c1e-9d3e-2f1a6b7c8d90"),
		Name:      "Ann Lee",
		Email:     "ann@example.com",
		Role:      trainer.RoleAdmin,
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}}).String()

	for _, want := range []string{"NAME", "Ann Lee", "ann@example.com", "admin", "2024-03-01"} {
		assert.Contains(t, out, want)
	}
}
