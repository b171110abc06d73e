package main

import (
	"context"
	"fmt"
	"os"

	"github.com/evaltrack/backend/conf"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	var (
		logLevel string
		logFile  string
	)

	var rootCmd = &cobra.Command{
		Use:   "evaltrack-admin",
		Short: "Admin CLI tool for evaltrack",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional, the variables may come from the shell
			_ = godotenv.Load()
			return InitializeLogger(logLevel, logFile != "", logFile)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level [debug, info, warn, error]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTrainerCmd())
	rootCmd.AddCommand(newScoresCmd())
	rootCmd.AddCommand(newExportCmd())

	ctx := withSlog(context.Background())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	connStr, err := conf.GetPgConnStrFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Error().Err(err).Msg("Error creating pg pool")
		return nil, fmt.Errorf("error creating pg pool: %w", err)
	}
	return pool, nil
}
