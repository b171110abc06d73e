package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/evaltrack/backend/export"
	"github.com/evaltrack/backend/s3bucket"
	"github.com/evaltrack/backend/session/sessionpgrepo"
	"github.com/evaltrack/backend/trainer"
	"github.com/evaltrack/backend/trainer/trainerpgrepo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		projectID string
		from      string
		to        string
		out       string
		bucket    string
		region    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the evaluations of a project and week to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := parseExportFilter(projectID, from, to)
			if err != nil {
				return err
			}

			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			exporter := export.Exporter{
				ListSessions: sessionpgrepo.NewPgSessionRepo(pool).ListSessions,
			}
			trainers := trainerpgrepo.NewPgTrainerRepo(pool)
			exporter.LookupTrainer = func(ctx context.Context, userID uuid.UUID) (trainer.Record, error) {
				return trainer.Lookup(ctx, trainers, userID)
			}
			if bucket != "" {
				b, err := s3bucket.NewS3Bucket(ctx, region, bucket)
				if err != nil {
					return err
				}
				exporter.Uploader = b
			}

			res, err := exporter.Export(ctx, f)
			if err != nil {
				return err
			}
			if res.URL != "" {
				log.Info().Int("rows", res.Rows).Str("url", res.URL).Msg("Export uploaded")
				fmt.Println(res.URL)
				return nil
			}

			path := out
			if path == "" {
				path = res.Filename
			}
			if err := os.WriteFile(path, res.Content, 0644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			abs, _ := filepath.Abs(path)
			log.Info().Int("rows", res.Rows).Str("path", abs).Msg("Export written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project id (required)")
	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD, at most 7 days after --from (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, defaults to the generated name")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Upload to this S3 bucket instead of writing a file")
	cmd.Flags().StringVar(&region, "region", "eu-central-1", "Region of --bucket")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func parseExportFilter(projectID, from, to string) (export.Filter, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return export.Filter{}, fmt.Errorf("invalid project id: %w", err)
	}
	fromDay, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return export.Filter{}, fmt.Errorf("invalid --from: %w", err)
	}
	toDay, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return export.Filter{}, fmt.Errorf("invalid --to: %w", err)
	}
	f := export.Filter{ProjectID: &pid, From: &fromDay, To: &toDay}
	if !export.Enabled(f) {
		return export.Filter{}, fmt.Errorf("range %s..%s is longer than 7 days or reversed", from, to)
	}
	return f, nil
}
