package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"trivia-quiz-service/internal/domain"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	ID                string                   `bun:"id,pk"`
	UserID            string                   `bun:"user_id,notnull"`
	DisplayName       string                   `bun:"display_name"`
	QuestionIDs       []string                 `bun:"question_ids,array"`
	UserAnswers       []int                    `bun:"user_answers,array"`
	Score             int                      `bun:"score"`
	Percentage        float64                  `bun:"percentage"`
	CategoryBreakdown domain.CategoryBreakdown `bun:"category_breakdown,type:jsonb"`
	CreatedAt         time.Time                `bun:"created_at"`
}

// AttemptStore persists quiz attempts with bun.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) Save(ctx context.Context, attempt domain.Attempt) (string, error) {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	row := toRow(attempt)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert attempt: %w", err)
	}
	return attempt.ID, nil
}

func (s *AttemptStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Attempt, error) {
	var rows []attemptRow
	q := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts by user: %w", err)
	}
	return fromRows(rows), nil
}

func (s *AttemptStore) ListSince(ctx context.Context, since time.Time) ([]domain.Attempt, error) {
	var rows []attemptRow
	q := s.db.NewSelect().Model(&rows).Order("created_at ASC")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts since: %w", err)
	}
	return fromRows(rows), nil
}

func toRow(a domain.Attempt) attemptRow {
	answers := make([]int, len(a.UserAnswers))
	for i, ans := range a.UserAnswers {
		answers[i] = int(ans)
	}
	return attemptRow{
		ID:                a.ID,
		UserID:            a.UserID,
		DisplayName:       a.DisplayName,
		QuestionIDs:       a.QuestionIDs,
		UserAnswers:       answers,
		Score:             a.Score,
		Percentage:        a.Percentage,
		CategoryBreakdown: a.CategoryBreakdown,
		CreatedAt:         a.CreatedAt,
	}
}

func fromRows(rows []attemptRow) []domain.Attempt {
	out := make([]domain.Attempt, len(rows))
	for i, r := range rows {
		answers := make([]domain.Answer, len(r.UserAnswers))
		for j, ans := range r.UserAnswers {
			answers[j] = domain.Answer(ans)
		}
		out[i] = domain.Attempt{
			ID:                r.ID,
			UserID:            r.UserID,
			DisplayName:       r.DisplayName,
			QuestionIDs:       r.QuestionIDs,
			UserAnswers:       answers,
			Score:             r.Score,
			Percentage:        r.Percentage,
			CategoryBreakdown: r.CategoryBreakdown,
			CreatedAt:         r.CreatedAt,
		}
	}
	return out
}
