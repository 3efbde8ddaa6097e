package app_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

type fixture struct {
	service   *app.QuizService
	questions *memory.QuestionStore
	attempts  *memory.AttemptStore
	byID      map[string]domain.Question
}

func newFixture(t *testing.T, poolSize int, opts ...app.Option) fixture {
	t.Helper()
	pool := make([]domain.Question, poolSize)
	byID := make(map[string]domain.Question, poolSize)
	categories := domain.Categories()
	for i := range pool {
		pool[i] = domain.Question{
			ID:                 fmt.Sprintf("q%02d", i),
			Text:               fmt.Sprintf("Question %d?", i),
			Options:            []string{fmt.Sprintf("A%d", i), fmt.Sprintf("B%d", i), fmt.Sprintf("C%d", i), fmt.Sprintf("D%d", i)},
			CorrectOptionIndex: i % domain.OptionCount,
			Category:           categories[i%len(categories)],
			Difficulty:         domain.DifficultyEasy,
			CreatedAt:          time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		}
		byID[pool[i].ID] = pool[i]
	}

	questions := memory.NewQuestionStore(pool)
	attempts := memory.NewAttemptStore()
	sealer := app.NewSessionSealer([]byte("test-secret"), time.Hour)
	base := []app.Option{app.WithRand(func() *rand.Rand { return rand.New(rand.NewSource(11)) })}
	service := app.NewQuizService(questions, attempts, sealer, app.DefaultSettings(), append(base, opts...)...)
	return fixture{service: service, questions: questions, attempts: attempts, byID: byID}
}

// correctAnswers picks the shown position of each question's correct option.
func (f fixture) correctAnswers(t *testing.T, started app.StartedSession) []domain.Answer {
	t.Helper()
	answers := make([]domain.Answer, len(started.Questions))
	for i, cq := range started.Questions {
		q := f.byID[cq.ID]
		want := q.Options[q.CorrectOptionIndex]
		answers[i] = domain.Unanswered
		for pos, opt := range cq.Options {
			if opt == want {
				answers[i] = domain.Answer(pos)
			}
		}
		if answers[i] == domain.Unanswered {
			t.Fatalf("correct option missing from shown options of %s", cq.ID)
		}
	}
	return answers
}

var alice = domain.Identity{UserID: "u1", DisplayName: "Alice"}

func TestStartAndSubmitPerfectSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 40)

	started, err := f.service.StartSession(ctx, alice)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(started.Questions) != 25 || len(started.QuestionIDs) != 25 {
		t.Fatalf("expected 25 questions, got %d", len(started.Questions))
	}
	if started.SessionToken == "" || started.ExpiresAt == nil {
		t.Fatalf("expected session token with expiry")
	}

	result, err := f.service.SubmitSession(ctx, alice, domain.Submission{
		QuestionIDs:  started.QuestionIDs,
		Answers:      f.correctAnswers(t, started),
		SessionToken: started.SessionToken,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Score != 100 || result.Percentage != 100 || result.CorrectCount != 25 {
		t.Fatalf("expected perfect score, got %+v", result)
	}
	if result.AttemptID == "" {
		t.Fatalf("expected attempt id")
	}
	if f.attempts.Len() != 1 {
		t.Fatalf("expected 1 stored attempt, got %d", f.attempts.Len())
	}

	stored, _ := f.attempts.ListByUser(ctx, alice.UserID, 0)
	for i, a := range stored[0].UserAnswers {
		q := f.byID[stored[0].QuestionIDs[i]]
		if int(a) != q.CorrectOptionIndex {
			t.Fatalf("stored answer %d is not canonical", i)
		}
	}
}

func TestStartSessionInsufficientPool(t *testing.T) {
	f := newFixture(t, 24)
	_, err := f.service.StartSession(context.Background(), alice)
	var ice *domain.InsufficientContentError
	if !errors.As(err, &ice) || ice.Available != 24 {
		t.Fatalf("expected insufficient content with 24 available, got %v", err)
	}
}

func TestSubmitRejectsWithoutPersisting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 30)
	started, err := f.service.StartSession(ctx, alice)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	answers := f.correctAnswers(t, started)

	cases := []struct {
		name     string
		identity domain.Identity
		sub      domain.Submission
		want     error
	}{
		{"short answers", alice, domain.Submission{QuestionIDs: started.QuestionIDs, Answers: answers[:24], SessionToken: started.SessionToken}, domain.ErrInvalidSubmission},
		{"missing token", alice, domain.Submission{QuestionIDs: started.QuestionIDs, Answers: answers}, domain.ErrInvalidSubmission},
		{"other user", domain.Identity{UserID: "u2"}, domain.Submission{QuestionIDs: started.QuestionIDs, Answers: answers, SessionToken: started.SessionToken}, domain.ErrInvalidSubmission},
	}
	for _, tc := range cases {
		if _, err := f.service.SubmitSession(ctx, tc.identity, tc.sub); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if err := f.questions.Delete(ctx, started.QuestionIDs[4]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = f.service.SubmitSession(ctx, alice, domain.Submission{QuestionIDs: started.QuestionIDs, Answers: answers, SessionToken: started.SessionToken})
	if !errors.Is(err, domain.ErrStaleSession) {
		t.Fatalf("expected stale session, got %v", err)
	}

	if f.attempts.Len() != 0 {
		t.Fatalf("rejected submissions must not be stored, got %d", f.attempts.Len())
	}
}

type failingAttemptStore struct{}

func (failingAttemptStore) Save(context.Context, domain.Attempt) (string, error) {
	return "", errors.New("connection refused")
}

func TestSubmitReturnsResultWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 30)
	service := app.NewQuizService(f.questions, failingAttemptStore{}, app.NewSessionSealer([]byte("test-secret"), 0), app.DefaultSettings())

	started, err := service.StartSession(ctx, alice)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	result, err := service.SubmitSession(ctx, alice, domain.Submission{
		QuestionIDs:  started.QuestionIDs,
		Answers:      f.correctAnswers(t, started),
		SessionToken: started.SessionToken,
	})
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if result.Score != 100 || len(result.Details) != 25 {
		t.Fatalf("expected computed result despite storage failure, got %+v", result)
	}
	if result.AttemptID != "" {
		t.Fatalf("unsaved attempt must not carry an id")
	}
}

type recordingListener struct {
	attempts []domain.Attempt
}

func (l *recordingListener) AttemptRecorded(_ context.Context, a domain.Attempt) error {
	l.attempts = append(l.attempts, a)
	return nil
}

type countingRecorder struct {
	started  int
	outcomes map[string]int
}

func (r *countingRecorder) SessionStarted() { r.started++ }
func (r *countingRecorder) SubmissionScored(outcome string) {
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[outcome]++
}

func TestSubmitIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	listener := &recordingListener{}
	recorder := &countingRecorder{}
	f := newFixture(t, 30,
		app.WithSubmissionGuard(memory.NewSubmissionGuard(time.Hour)),
		app.WithListeners(listener),
		app.WithRecorder(recorder),
	)

	started, err := f.service.StartSession(ctx, alice)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	sub := domain.Submission{
		QuestionIDs:    started.QuestionIDs,
		Answers:        f.correctAnswers(t, started),
		SessionToken:   started.SessionToken,
		IdempotencyKey: "retry-1",
	}
	if _, err := f.service.SubmitSession(ctx, alice, sub); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := f.service.SubmitSession(ctx, alice, sub); !errors.Is(err, domain.ErrDuplicateSubmission) {
		t.Fatalf("expected duplicate submission, got %v", err)
	}

	sub.IdempotencyKey = ""
	if _, err := f.service.SubmitSession(ctx, alice, sub); err != nil {
		t.Fatalf("submit without key should be recorded: %v", err)
	}

	if f.attempts.Len() != 2 {
		t.Fatalf("expected 2 stored attempts, got %d", f.attempts.Len())
	}
	if len(listener.attempts) != 2 || listener.attempts[0].ID == "" {
		t.Fatalf("expected listener to see 2 saved attempts, got %+v", listener.attempts)
	}
	if recorder.started != 1 || recorder.outcomes[app.OutcomeScored] != 2 || recorder.outcomes[app.OutcomeDuplicate] != 1 {
		t.Fatalf("unexpected recorder counts: %+v", recorder)
	}
}

func TestIdempotencyKeyIsScopedToCaller(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 30, app.WithSubmissionGuard(memory.NewSubmissionGuard(time.Hour)))
	bob := domain.Identity{UserID: "u2", DisplayName: "Bob"}

	for _, who := range []domain.Identity{alice, bob} {
		started, err := f.service.StartSession(ctx, who)
		if err != nil {
			t.Fatalf("%s start failed: %v", who.UserID, err)
		}
		_, err = f.service.SubmitSession(ctx, who, domain.Submission{
			QuestionIDs:    started.QuestionIDs,
			Answers:        f.correctAnswers(t, started),
			SessionToken:   started.SessionToken,
			IdempotencyKey: "1",
		})
		if err != nil {
			t.Fatalf("%s submit with shared key failed: %v", who.UserID, err)
		}
	}
	if f.attempts.Len() != 2 {
		t.Fatalf("expected one attempt per user, got %d", f.attempts.Len())
	}
}
