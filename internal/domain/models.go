package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OptionCount is the fixed number of options every question carries.
const OptionCount = 4

// Category is the closed set of question categories.
type Category string

const (
	CategoryHistory   Category = "History"
	CategoryGeography Category = "Geography"
	CategoryPolitics  Category = "Politics"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryHistory, CategoryGeography, CategoryPolitics}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryHistory, CategoryGeography, CategoryPolitics:
		return true
	}
	return false
}

// Difficulty is informational only; it is never scored differently.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question models an MCQ question stored in canonical option order.
type Question struct {
	ID                 string     `json:"id"`
	Text               string     `json:"text"`
	Options            []string   `json:"options"`
	CorrectOptionIndex int        `json:"correctOptionIndex"`
	Category           Category   `json:"category"`
	Difficulty         Difficulty `json:"difficulty"`
	Explanation        string     `json:"explanation"`
	ImageURL           string     `json:"imageUrl,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// Validate reports whether the question has the shape needed to run a quiz.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrMalformedQuestion)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: %d options, want %d", ErrMalformedQuestion, len(q.Options), OptionCount)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: empty option", ErrMalformedQuestion)
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("%w: duplicate option %q", ErrMalformedQuestion, opt)
		}
		seen[opt] = struct{}{}
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct option index %d out of range", ErrMalformedQuestion, q.CorrectOptionIndex)
	}
	if !q.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrMalformedQuestion, q.Category)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrMalformedQuestion, q.Difficulty)
	}
	return nil
}

// ClientQuestion is the answer-free view sent to quiz takers.
type ClientQuestion struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Options    []string   `json:"options"`
	Category   Category   `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	ImageURL   string     `json:"imageUrl,omitempty"`
}

// OptionOrder maps a shown option position to its canonical index: order[shown] = canonical.
type OptionOrder []int

// Answer is a selected option position, or Unanswered.
type Answer int

// Unanswered never matches a correct option index.
const Unanswered Answer = -1

// Valid reports whether a is Unanswered or an index into a question's options.
func (a Answer) Valid() bool {
	return a == Unanswered || (a >= 0 && int(a) < OptionCount)
}

// UnmarshalJSON accepts null as Unanswered.
func (a *Answer) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Unanswered
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Answer(v)
	return nil
}

// Identity is the caller as supplied by the identity provider.
type Identity struct {
	UserID      string
	DisplayName string
	IsAdmin     bool
}

// Submission models a completed session sent back by the client.
type Submission struct {
	QuestionIDs    []string
	Answers        []Answer
	SessionToken   string
	IdempotencyKey string
}

// CategoryStats counts correct answers out of the questions seen in one category.
type CategoryStats struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// CategoryBreakdown always carries an entry for every category.
type CategoryBreakdown map[Category]CategoryStats

// NewCategoryBreakdown returns a breakdown with zeroed counters for every category.
func NewCategoryBreakdown() CategoryBreakdown {
	b := make(CategoryBreakdown, len(Categories()))
	for _, c := range Categories() {
		b[c] = CategoryStats{}
	}
	return b
}

// QuestionResult is the post-submission review of one question, options in canonical order.
type QuestionResult struct {
	QuestionID    string   `json:"questionId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	UserAnswer    Answer   `json:"userAnswer"`
	CorrectAnswer int      `json:"correctAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
	Category      Category `json:"category"`
	Explanation   string   `json:"explanation"`
	ImageURL      string   `json:"imageUrl,omitempty"`
}

// AttemptResult summarizes a scored session.
type AttemptResult struct {
	AttemptID         string            `json:"attemptId,omitempty"`
	Score             int               `json:"score"`
	MaxScore          int               `json:"maxScore"`
	Percentage        float64           `json:"percentage"`
	CorrectCount      int               `json:"correctCount"`
	WrongCount        int               `json:"wrongCount"`
	TotalQuestions    int               `json:"totalQuestions"`
	CategoryBreakdown CategoryBreakdown `json:"categoryBreakdown"`
	Details           []QuestionResult  `json:"detailedResults"`
}

// Attempt is the persisted, immutable record of one scored session.
// UserAnswers are canonical option indexes (or Unanswered).
type Attempt struct {
	ID                string            `json:"id"`
	UserID            string            `json:"userId"`
	DisplayName       string            `json:"displayName"`
	QuestionIDs       []string          `json:"questionIds"`
	UserAnswers       []Answer          `json:"userAnswers"`
	Score             int               `json:"score"`
	Percentage        float64           `json:"percentage"`
	CategoryBreakdown CategoryBreakdown `json:"categoryBreakdown"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// AttemptSummary is the history view of an attempt.
type AttemptSummary struct {
	ID                string            `json:"id"`
	Score             int               `json:"score"`
	Percentage        float64           `json:"percentage"`
	CategoryBreakdown CategoryBreakdown `json:"categoryBreakdown"`
	Date              time.Time         `json:"date"`
}

// UserStats aggregates all attempts of one user.
type UserStats struct {
	TotalAttempts    int              `json:"totalAttempts"`
	AverageScore     int              `json:"averageScore"`
	BestScore        int              `json:"bestScore"`
	CategoryAccuracy map[Category]int `json:"categoryAccuracy"`
}

// Period selects the window a leaderboard is computed over.
type Period string

const (
	PeriodWeek  Period = "7d"
	PeriodMonth Period = "30d"
	PeriodAll   Period = "all"
)

// ParsePeriod defaults an empty value to PeriodAll.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case "":
		return PeriodAll, nil
	case PeriodWeek, PeriodMonth, PeriodAll:
		return Period(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
}

// Since returns the earliest attempt time included in the period, zero for PeriodAll.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour)
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour)
	}
	return time.Time{}
}

// LeaderboardEntry is a ranked best attempt of one user.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Score       int       `json:"score"`
	Percentage  float64   `json:"percentage"`
	Date        time.Time `json:"date"`
}

// Leaderboard captures the ordered scoreboard for a period.
type Leaderboard struct {
	Period     Period             `json:"period"`
	Entries    []LeaderboardEntry `json:"leaderboard"`
	TotalUsers int                `json:"totalUsers"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// QuestionFilter narrows admin question listings.
type QuestionFilter struct {
	Category   Category
	Difficulty Difficulty
	Search     string
	Page       int
	Limit      int
}

// QuestionPage is one page of an admin listing.
type QuestionPage struct {
	Questions []Question `json:"questions"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
	Total     int        `json:"total"`
	Pages     int        `json:"pages"`
}
