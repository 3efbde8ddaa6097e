package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backing := &countingRepository{QuestionStore: memory.NewQuestionStore(sampleQuestions())}
	cache := NewQuestionCache(newClient(mr), backing, time.Minute)

	pool, err := cache.FindAll(context.Background())
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(pool) != 2 || backing.findAll != 1 {
		t.Fatalf("expected 2 questions from one load, got %d (loads=%d)", len(pool), backing.findAll)
	}
	if !mr.Exists("quiz:questions") {
		t.Fatalf("expected redis hash to be set")
	}
	if mr.TTL("quiz:questions") < time.Minute {
		t.Fatalf("expected ttl with jitter, got %v", mr.TTL("quiz:questions"))
	}

	// Second call should hit cache, backing not incremented.
	pool, _ = cache.FindAll(context.Background())
	if backing.findAll != 1 {
		t.Fatalf("expected cache hit, loads=%d", backing.findAll)
	}
	if pool[0].ID != "q2" || pool[0].Options[2] != "Canberra" {
		t.Fatalf("expected newest question first with options intact, got %+v", pool[0])
	}
}

func TestQuestionCacheFindByIDsFallsBack(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backing := &countingRepository{QuestionStore: memory.NewQuestionStore(sampleQuestions())}
	cache := NewQuestionCache(newClient(mr), backing, time.Minute)
	ctx := context.Background()

	got, err := cache.FindByIDs(ctx, []string{"q1", "q2", "gone"})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(got) != 2 || backing.findByIDs != 1 {
		t.Fatalf("expected 2 questions from backing, got %d (calls=%d)", len(got), backing.findByIDs)
	}

	if _, err := cache.FindAll(ctx); err != nil {
		t.Fatalf("find all: %v", err)
	}
	got, err = cache.FindByIDs(ctx, []string{"q1", "q2"})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(got) != 2 || backing.findByIDs != 1 {
		t.Fatalf("expected cached lookup, calls=%d", backing.findByIDs)
	}
	if got[0].CorrectOptionIndex != 2 || got[0].Category != domain.CategoryHistory {
		t.Fatalf("cached question lost fields: %+v", got[0])
	}
}

func TestQuestionCacheInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backing := &countingRepository{QuestionStore: memory.NewQuestionStore(sampleQuestions())}
	cache := NewQuestionCache(newClient(mr), backing, time.Minute)
	ctx := context.Background()

	_, _ = cache.FindAll(ctx)
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:questions") {
		t.Fatalf("expected redis hash to be removed")
	}
	_, _ = cache.FindAll(ctx)
	if backing.findAll != 2 {
		t.Fatalf("expected reload after invalidate, loads=%d", backing.findAll)
	}
}

type countingRepository struct {
	*memory.QuestionStore
	findAll   int
	findByIDs int
}

func (r *countingRepository) FindAll(ctx context.Context) ([]domain.Question, error) {
	r.findAll++
	return r.QuestionStore.FindAll(ctx)
}

func (r *countingRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	r.findByIDs++
	return r.QuestionStore.FindByIDs(ctx, ids)
}

func sampleQuestions() []domain.Question {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Question{
		{
			ID:                 "q1",
			Text:               "In which year did World War II end?",
			Options:            []string{"1943", "1944", "1945", "1946"},
			CorrectOptionIndex: 2,
			Category:           domain.CategoryHistory,
			Difficulty:         domain.DifficultyEasy,
			CreatedAt:          created,
		},
		{
			ID:                 "q2",
			Text:               "What is the capital of Australia?",
			Options:            []string{"Sydney", "Melbourne", "Canberra", "Perth"},
			CorrectOptionIndex: 2,
			Category:           domain.CategoryGeography,
			Difficulty:         domain.DifficultyMedium,
			CreatedAt:          created.Add(time.Hour),
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
