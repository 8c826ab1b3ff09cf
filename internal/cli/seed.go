package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// NewSeedCmd loads quizzes from a YAML file into the configured store.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quizzes from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("file")

			b, err := openBackends(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			if !b.durable {
				slog.Warn("seeding an in-memory store, data is lost when the command exits")
			}
			authoring := app.NewAuthoringService(b.quizzes, b.cache, b.attempts)
			return seedQuizzes(cmd.Context(), authoring, path)
		},
	}
	cmd.Flags().String("file", "quizzes.yaml", "YAML file with a top-level quizzes list")
	return cmd
}

func readSeedFile(path string) ([]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return file.Quizzes, nil
}

// seedQuizzes creates every quiz in the file. Quizzes whose id already
// exists are skipped so the command can be rerun.
func seedQuizzes(ctx context.Context, authoring *app.AuthoringService, path string) error {
	quizzes, err := readSeedFile(path)
	if err != nil {
		return err
	}
	created := 0
	for _, quiz := range quizzes {
		if quiz.ID != "" {
			if _, err := authoring.GetQuiz(ctx, quiz.ID); err == nil {
				slog.Info("quiz already present, skipping", "quiz_id", quiz.ID)
				continue
			}
		}
		if _, err := authoring.CreateQuiz(ctx, quiz.AuthorID, quiz); err != nil {
			return fmt.Errorf("seed quiz %q: %w", quiz.Title, err)
		}
		created++
	}
	slog.Info("seeded quizzes", "path", path, "created", created, "total", len(quizzes))
	return nil
}
