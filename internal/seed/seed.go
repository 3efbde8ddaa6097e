// Package seed ships the default question bank.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
)

//go:embed questions.json
var questionsJSON []byte

// namespace keeps seeded ids stable across runs so re-seeding is idempotent.
var namespace = uuid.MustParse("5b0c0f8e-8d7e-4c1a-9a55-2f6b1c3d9e10")

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Questions decodes the embedded bank and assigns deterministic ids.
func Questions() ([]domain.Question, error) {
	var questions []domain.Question
	if err := json.Unmarshal(questionsJSON, &questions); err != nil {
		return nil, fmt.Errorf("decode seed questions: %w", err)
	}
	for i := range questions {
		q := &questions[i]
		q.ID = uuid.NewSHA1(namespace, []byte(q.Text)).String()
		q.CreatedAt = epoch.Add(time.Duration(i) * time.Second)
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("seed question %d: %w", i, err)
		}
	}
	return questions, nil
}
