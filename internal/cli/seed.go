package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/postgres"
	"trivia-quiz-service/internal/logging"
	"trivia-quiz-service/internal/seed"
)

// NewSeedCmd loads the bundled question bank into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the bundled questions that are not stored yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(serviceName, cfg.Log.Level, nil)
			if err := runMigrations(cmd.Context(), cfg, logger); err != nil {
				return err
			}
			inserted, total, err := seedQuestions(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			logger.WithField("inserted", inserted).WithField("bundled", total).Info("question bank seeded")
			return nil
		},
	}
}

func seedQuestions(ctx context.Context, dsn string) (int, int, error) {
	questions, err := seed.Questions()
	if err != nil {
		return 0, 0, err
	}
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return 0, 0, fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	inserted, err := postgres.NewQuestionStore(pool).InsertMissing(ctx, questions)
	return inserted, len(questions), err
}
