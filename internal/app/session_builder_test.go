package app

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"trivia-quiz-service/internal/domain"
)

func TestBuildSessionSelectsDistinctQuestions(t *testing.T) {
	pool := makePool(60, domain.CategoryHistory)
	inPool := make(map[string]struct{}, len(pool))
	for _, q := range pool {
		inPool[q.ID] = struct{}{}
	}

	for seed := int64(0); seed < 50; seed++ {
		session, err := BuildSession(pool, 25, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("seed %d: build: %v", seed, err)
		}
		ids := session.QuestionIDs()
		if len(ids) != 25 {
			t.Fatalf("seed %d: expected 25 ids, got %d", seed, len(ids))
		}
		seen := make(map[string]struct{}, len(ids))
		for i, id := range ids {
			if _, ok := inPool[id]; !ok {
				t.Fatalf("seed %d: id %s not in pool", seed, id)
			}
			if _, dup := seen[id]; dup {
				t.Fatalf("seed %d: id %s repeated", seed, id)
			}
			seen[id] = struct{}{}
			if session.ClientQuestions()[i].ID != id {
				t.Fatalf("seed %d: client question %d out of order", seed, i)
			}
		}
	}
}

func TestBuildSessionInsufficientPool(t *testing.T) {
	session, err := BuildSession(makePool(24, domain.CategoryHistory), 25, rand.New(rand.NewSource(1)))
	var ice *domain.InsufficientContentError
	if !errors.As(err, &ice) {
		t.Fatalf("expected insufficient content, got %v", err)
	}
	if ice.Available != 24 || ice.Required != 25 {
		t.Fatalf("expected available=24 required=25, got %+v", ice)
	}
	if len(session.QuestionIDs()) != 0 {
		t.Fatalf("expected no ids on failure")
	}
}

func TestBuildSessionExcludesMalformed(t *testing.T) {
	pool := makePool(25, domain.CategoryGeography)
	pool[3].Options = pool[3].Options[:3]
	pool[7].CorrectOptionIndex = 9

	_, err := BuildSession(pool, 25, rand.New(rand.NewSource(1)))
	var ice *domain.InsufficientContentError
	if !errors.As(err, &ice) || ice.Available != 23 {
		t.Fatalf("expected 23 usable questions, got %v", err)
	}

	session, err := BuildSession(pool, 20, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if session.Excluded != 2 {
		t.Fatalf("expected 2 excluded, got %d", session.Excluded)
	}
	for _, id := range session.QuestionIDs() {
		if id == pool[3].ID || id == pool[7].ID {
			t.Fatalf("malformed question %s selected", id)
		}
	}
}

func TestBuildSessionHidesAnswers(t *testing.T) {
	session, err := BuildSession(makePool(25, domain.CategoryPolitics), 25, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i, cq := range session.ClientQuestions() {
		sq := session.Questions[i]
		if len(cq.Options) != domain.OptionCount {
			t.Fatalf("expected %d options, got %d", domain.OptionCount, len(cq.Options))
		}
		if cq.Text != sq.Question.Text || cq.Category != sq.Question.Category {
			t.Fatalf("client view lost question data")
		}
	}
}

func TestShuffleOptionsPreservesCorrectness(t *testing.T) {
	q := makePool(1, domain.CategoryHistory)[0]
	seenOrders := make(map[string]struct{})

	for seed := int64(0); seed < 5000 && len(seenOrders) < 24; seed++ {
		sq := shuffleOptions(q, rand.New(rand.NewSource(seed)))
		if sq.Options[sq.ShownCorrectIndex] != q.Options[q.CorrectOptionIndex] {
			t.Fatalf("seed %d: shown correct option %q, want %q", seed, sq.Options[sq.ShownCorrectIndex], q.Options[q.CorrectOptionIndex])
		}
		for shown, canonical := range sq.Order {
			if sq.Options[shown] != q.Options[canonical] {
				t.Fatalf("seed %d: order does not map shown %d to canonical %d", seed, shown, canonical)
			}
		}
		seenOrders[fmt.Sprint(sq.Order)] = struct{}{}
	}
	if len(seenOrders) != 24 {
		t.Fatalf("expected all 24 option orders to occur, saw %d", len(seenOrders))
	}
}

func TestShuffleOptionsUsesIndexNotText(t *testing.T) {
	// duplicate text is malformed for sessions, but the remap itself must still follow the index
	q := domain.Question{ID: "dup", Options: []string{"Same", "Same", "Other", "Another"}, CorrectOptionIndex: 1}
	for seed := int64(0); seed < 100; seed++ {
		sq := shuffleOptions(q, rand.New(rand.NewSource(seed)))
		if sq.Order[sq.ShownCorrectIndex] != 1 {
			t.Fatalf("seed %d: remapped correct index points at canonical %d", seed, sq.Order[sq.ShownCorrectIndex])
		}
	}
}

func TestSampleIndexesCoversPool(t *testing.T) {
	hits := make([]int, 10)
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		for _, idx := range sampleIndexes(10, 3, rnd) {
			hits[idx]++
		}
	}
	for idx, n := range hits {
		// expected 600 each
		if n < 450 || n > 750 {
			t.Fatalf("index %d picked %d times, selection looks biased", idx, n)
		}
	}
}

func makePool(n int, category domain.Category) []domain.Question {
	pool := make([]domain.Question, n)
	for i := range pool {
		pool[i] = domain.Question{
			ID:                 fmt.Sprintf("q%02d", i),
			Text:               fmt.Sprintf("Question %d?", i),
			Options:            []string{fmt.Sprintf("A%d", i), fmt.Sprintf("B%d", i), fmt.Sprintf("C%d", i), fmt.Sprintf("D%d", i)},
			CorrectOptionIndex: i % domain.OptionCount,
			Category:           category,
			Difficulty:         domain.DifficultyMedium,
			Explanation:        fmt.Sprintf("Because %d.", i),
		}
	}
	return pool
}
