package app

import (
	"fmt"
	"math/rand"

	"trivia-quiz-service/internal/domain"
)

// SessionQuestion is a selected question with its display-only option shuffle.
type SessionQuestion struct {
	Question domain.Question
	// Options holds the shuffled display order.
	Options []string
	// Order maps shown positions back to canonical indexes.
	Order domain.OptionOrder
	// ShownCorrectIndex is where the canonical correct option landed after the shuffle.
	ShownCorrectIndex int
}

// ClientView strips correctness information and the explanation.
func (q SessionQuestion) ClientView() domain.ClientQuestion {
	return domain.ClientQuestion{
		ID:         q.Question.ID,
		Text:       q.Question.Text,
		Options:    q.Options,
		Category:   q.Question.Category,
		Difficulty: q.Question.Difficulty,
		ImageURL:   q.Question.ImageURL,
	}
}

// Session is one freshly built set of questions. It is never persisted.
type Session struct {
	Questions []SessionQuestion
	// Excluded counts pool entries dropped as malformed or duplicated.
	Excluded int
}

func (s Session) ClientQuestions() []domain.ClientQuestion {
	out := make([]domain.ClientQuestion, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = q.ClientView()
	}
	return out
}

// QuestionIDs returns ids in the same order as ClientQuestions.
func (s Session) QuestionIDs() []string {
	out := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = q.Question.ID
	}
	return out
}

func (s Session) Orders() []domain.OptionOrder {
	out := make([]domain.OptionOrder, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = q.Order
	}
	return out
}

// BuildSession selects size distinct questions from pool and shuffles the options of each.
// Malformed questions are excluded before the size check.
func BuildSession(pool []domain.Question, size int, rnd *rand.Rand) (Session, error) {
	if size <= 0 {
		return Session{}, fmt.Errorf("session size must be positive, got %d", size)
	}

	usable := usableQuestions(pool)
	if len(usable) < size {
		return Session{}, &domain.InsufficientContentError{Available: len(usable), Required: size}
	}

	picks := sampleIndexes(len(usable), size, rnd)
	questions := make([]SessionQuestion, len(picks))
	for i, idx := range picks {
		questions[i] = shuffleOptions(usable[idx], rnd)
	}
	return Session{Questions: questions, Excluded: len(pool) - len(usable)}, nil
}

// shuffleOptions remaps the correct answer by canonical index, never by option text.
func shuffleOptions(q domain.Question, rnd *rand.Rand) SessionQuestion {
	order := permutation(len(q.Options), rnd)
	options := make([]string, len(order))
	shownCorrect := -1
	for shown, canonical := range order {
		options[shown] = q.Options[canonical]
		if canonical == q.CorrectOptionIndex {
			shownCorrect = shown
		}
	}
	return SessionQuestion{
		Question:          q,
		Options:           options,
		Order:             domain.OptionOrder(order),
		ShownCorrectIndex: shownCorrect,
	}
}

func usableQuestions(pool []domain.Question) []domain.Question {
	usable := make([]domain.Question, 0, len(pool))
	seen := make(map[string]struct{}, len(pool))
	for _, q := range pool {
		if q.ID == "" || q.Validate() != nil {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		usable = append(usable, q)
	}
	return usable
}
