package main

import (
	"encoding/json"
	"os"

	"github.com/evaltrack/backend/session/sessionpgrepo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newScoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Inspect stored evaluation scores",
	}

	var asJSON bool
	scan := &cobra.Command{
		Use:   "scan",
		Short: "Count evaluation records whose stored scores are not flat",
		Long: "Records in an older nested shape are read as all zeros. " +
			"This lists the sessions holding such records so they can be fixed by hand.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			report, err := sessionpgrepo.NewPgSessionRepo(pool).ScanScoreShapes(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			log.Info().
				Int("sessions", report.Sessions).
				Int("records", report.Records).
				Int("nonFlat", report.NonFlat).
				Msg("Scan finished")
			for _, id := range report.Affected {
				log.Warn().Str("sessionId", id.String()).Msg("Session has non-flat scores")
			}
			return nil
		},
	}
	scan.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	cmd.AddCommand(scan)
	return cmd
}
