package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quiz-grading-service/internal/config"
	pgstore "quiz-grading-service/internal/infra/postgres"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	db := pgstore.Open(cfg.Postgres.URL)
	defer db.Close()
	return pgstore.Migrate(ctx, db)
}
