package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/evaltrack/backend/identity"
	"github.com/evaltrack/backend/identity/identitypgrepo"
	"github.com/evaltrack/backend/trainer"
	"github.com/evaltrack/backend/trainer/trainerpgrepo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newTrainerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trainer",
		Short: "Manage trainers and their roles",
	}

	var p trainer.CreateTrainerParams
	var role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a trainer account with a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			p.Role = trainer.Role(role)
			// the provider only creates accounts here, it never signs tokens
			provider := identity.NewProvider(identitypgrepo.NewPgUserStore(pool), nil, identity.Options{})
			roster := trainer.NewRoster(trainerpgrepo.NewPgTrainerRepo(pool), provider)
			t, err := roster.CreateTrainer(ctx, p)
			if err != nil {
				return err
			}
			log.Info().Str("userId", t.UserID.String()).Str("role", string(t.Role)).Msg("Trainer created")
			fmt.Println(t.UserID)
			return nil
		},
	}
	add.Flags().StringVar(&p.Email, "email", "", "Sign-in email (required)")
	add.Flags().StringVar(&p.Name, "name", "", "Display name (required)")
	add.Flags().StringVar(&p.Password, "password", "", "Initial password (required)")
	add.Flags().StringVar(&role, "role", string(trainer.RoleUser), "Role [user, admin]")
	add.MarkFlagRequired("email")
	add.MarkFlagRequired("name")
	add.MarkFlagRequired("password")

	setRole := &cobra.Command{
		Use:   "role <user-id> <user|admin|dead>",
		Short: "Change the role of a trainer; dead revokes access",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			roster := trainer.NewRoster(trainerpgrepo.NewPgTrainerRepo(pool), nil)
			t, err := roster.SetRole(ctx, userID, trainer.Role(args[1]))
			if err != nil {
				return err
			}
			log.Info().Str("userId", t.UserID.String()).Str("role", string(t.Role)).Msg("Role changed")
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List trainers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			trainers, err := trainerpgrepo.NewPgTrainerRepo(pool).ListTrainers(ctx)
			if err != nil {
				return err
			}
			fmt.Println(trainerTable(trainers))
			return nil
		},
	}

	cmd.AddCommand(add, setRole, newSignInCmd("disable", true), newSignInCmd("enable", false), list)
	return cmd
}

// newSignInCmd blocks or unblocks sign-in of a trainer. Blocking here does not
// reach sign-ins held by a running server; those end on the next role change.
func newSignInCmd(use string, disabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: fmt.Sprintf("%s sign-in of a trainer", strings.ToUpper(use[:1])+use[1:]),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			provider := identity.NewProvider(identitypgrepo.NewPgUserStore(pool), nil, identity.Options{})
			roster := trainer.NewRoster(trainerpgrepo.NewPgTrainerRepo(pool), provider)
			if err := roster.SetDisabled(ctx, userID, disabled); err != nil {
				return err
			}
			log.Info().Str("userId", userID.String()).Bool("disabled", disabled).Msg("Sign-in changed")
			return nil
		},
	}
}

func trainerTable(trainers []trainer.Trainer) *table.Table {
	rows := make([][]string, 0, len(trainers))
	for _, t := range trainers {
		rows = append(rows, []string{
			t.UserID.String(), t.Name, t.Email, string(t.Role), t.CreatedAt.Format(time.DateOnly),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "EMAIL", "ROLE", "CREATED").
		Rows(rows...)
}
