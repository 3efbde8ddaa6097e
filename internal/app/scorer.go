package app

import (
	"time"

	"trivia-quiz-service/internal/domain"
)

// Scorer grades submitted sessions against canonical question data.
type Scorer struct {
	SessionSize       int
	PointsPerQuestion int
}

func (s Scorer) MaxScore() int {
	return s.SessionSize * s.PointsPerQuestion
}

// CheckShape rejects submissions with the wrong length, duplicate or empty ids,
// or answers outside the option range.
func (s Scorer) CheckShape(questionIDs []string, answers []domain.Answer) error {
	if len(questionIDs) != s.SessionSize {
		return domain.InvalidSubmission("expected %d question ids, got %d", s.SessionSize, len(questionIDs))
	}
	if len(answers) != s.SessionSize {
		return domain.InvalidSubmission("expected %d answers, got %d", s.SessionSize, len(answers))
	}
	seen := make(map[string]struct{}, len(questionIDs))
	for i, id := range questionIDs {
		if id == "" {
			return domain.InvalidSubmission("empty question id at position %d", i)
		}
		if _, dup := seen[id]; dup {
			return domain.InvalidSubmission("duplicate question id %q", id)
		}
		seen[id] = struct{}{}
	}
	for i, a := range answers {
		if !a.Valid() {
			return domain.InvalidSubmission("answer %d at position %d is out of range", a, i)
		}
	}
	return nil
}

func checkOrders(orders []domain.OptionOrder, size int) error {
	if len(orders) != size {
		return domain.InvalidSubmission("expected %d option orders, got %d", size, len(orders))
	}
	for i, order := range orders {
		if len(order) != domain.OptionCount {
			return domain.InvalidSubmission("option order %d has %d entries", i, len(order))
		}
		var seen [domain.OptionCount]bool
		for _, canonical := range order {
			if canonical < 0 || canonical >= domain.OptionCount || seen[canonical] {
				return domain.InvalidSubmission("option order %d is not a permutation", i)
			}
			seen[canonical] = true
		}
	}
	return nil
}

// Score grades answers position by position. When orders is nil the answers are taken
// as canonical indexes; otherwise each answer is a shown position translated through
// orders[i] first. fetched may be in any order but must cover every question id.
func (s Scorer) Score(questionIDs []string, answers []domain.Answer, orders []domain.OptionOrder, fetched []domain.Question) (domain.AttemptResult, error) {
	if err := s.CheckShape(questionIDs, answers); err != nil {
		return domain.AttemptResult{}, err
	}
	if orders != nil {
		if err := checkOrders(orders, s.SessionSize); err != nil {
			return domain.AttemptResult{}, err
		}
	}

	byID := make(map[string]domain.Question, len(fetched))
	for _, q := range fetched {
		byID[q.ID] = q
	}

	result := domain.AttemptResult{
		MaxScore:          s.MaxScore(),
		TotalQuestions:    s.SessionSize,
		CategoryBreakdown: domain.NewCategoryBreakdown(),
		Details:           make([]domain.QuestionResult, 0, len(questionIDs)),
	}

	for i, id := range questionIDs {
		q, ok := byID[id]
		if !ok {
			return domain.AttemptResult{}, domain.ErrStaleSession
		}
		if q.Validate() != nil {
			// edited into an unusable shape since the session was built
			return domain.AttemptResult{}, domain.ErrStaleSession
		}

		answer := answers[i]
		if orders != nil && answer != domain.Unanswered {
			answer = domain.Answer(orders[i][answer])
		}
		correct := answer != domain.Unanswered && int(answer) == q.CorrectOptionIndex

		stats := result.CategoryBreakdown[q.Category]
		stats.Total++
		if correct {
			stats.Correct++
			result.CorrectCount++
		}
		result.CategoryBreakdown[q.Category] = stats

		result.Details = append(result.Details, domain.QuestionResult{
			QuestionID:    q.ID,
			Text:          q.Text,
			Options:       q.Options,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectOptionIndex,
			IsCorrect:     correct,
			Category:      q.Category,
			Explanation:   q.Explanation,
			ImageURL:      q.ImageURL,
		})
	}

	result.WrongCount = s.SessionSize - result.CorrectCount
	result.Score = result.CorrectCount * s.PointsPerQuestion
	if maxScore := s.MaxScore(); maxScore > 0 {
		result.Percentage = float64(result.Score) / float64(maxScore) * 100
	}
	return result, nil
}

// NewAttempt builds the persistable record for a scored result.
func NewAttempt(identity domain.Identity, questionIDs []string, result domain.AttemptResult, createdAt time.Time) domain.Attempt {
	answers := make([]domain.Answer, len(result.Details))
	for i, d := range result.Details {
		answers[i] = d.UserAnswer
	}
	return domain.Attempt{
		UserID:            identity.UserID,
		DisplayName:       identity.DisplayName,
		QuestionIDs:       append([]string(nil), questionIDs...),
		UserAnswers:       answers,
		Score:             result.Score,
		Percentage:        result.Percentage,
		CategoryBreakdown: result.CategoryBreakdown,
		CreatedAt:         createdAt,
	}
}
