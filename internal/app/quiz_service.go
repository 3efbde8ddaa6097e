package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/domain"
)

// QuestionRepository loads quiz content (from cache/backing store).
type QuestionRepository interface {
	FindAll(ctx context.Context) ([]domain.Question, error)
	// FindByIDs may return fewer questions than requested.
	FindByIDs(ctx context.Context, ids []string) ([]domain.Question, error)
}

// AttemptStore persists scored attempts and returns the new attempt id.
type AttemptStore interface {
	Save(ctx context.Context, attempt domain.Attempt) (string, error)
}

// SubmissionGuard claims idempotency keys so a replayed submission is recorded once.
type SubmissionGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// AttemptListener is notified after an attempt has been persisted.
type AttemptListener interface {
	AttemptRecorded(ctx context.Context, attempt domain.Attempt) error
}

// Recorder receives quiz outcome counters.
type Recorder interface {
	SessionStarted()
	SubmissionScored(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted()         {}
func (nopRecorder) SubmissionScored(string) {}

// Submission outcomes reported to the Recorder.
const (
	OutcomeScored    = "scored"
	OutcomeInvalid   = "invalid"
	OutcomeStale     = "stale"
	OutcomeDuplicate = "duplicate"
	OutcomeStorage   = "storage_error"
	OutcomeError     = "error"
)

// Settings are the quiz rules.
type Settings struct {
	SessionSize       int
	PointsPerQuestion int
}

// DefaultSettings is the reference deployment: 25 questions worth 4 points each.
func DefaultSettings() Settings {
	return Settings{SessionSize: 25, PointsPerQuestion: 4}
}

// StartedSession is returned to the client when a quiz begins.
type StartedSession struct {
	Questions    []domain.ClientQuestion `json:"questions"`
	QuestionIDs  []string                `json:"questionIds"`
	SessionToken string                  `json:"sessionToken"`
	ExpiresAt    *time.Time              `json:"expiresAt,omitempty"`
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	questions QuestionRepository
	attempts  AttemptStore
	sealer    *SessionSealer
	scorer    Scorer

	guard     SubmissionGuard
	listeners []AttemptListener
	recorder  Recorder
	logger    logrus.FieldLogger
	newRand   func() *rand.Rand
	now       func() time.Time
}

type Option func(*QuizService)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *QuizService) { s.logger = logger }
}

// WithRand injects the random source factory; one generator is created per session.
func WithRand(newRand func() *rand.Rand) Option {
	return func(s *QuizService) { s.newRand = newRand }
}

func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

func WithSubmissionGuard(guard SubmissionGuard) Option {
	return func(s *QuizService) { s.guard = guard }
}

func WithListeners(listeners ...AttemptListener) Option {
	return func(s *QuizService) { s.listeners = append(s.listeners, listeners...) }
}

func WithRecorder(recorder Recorder) Option {
	return func(s *QuizService) { s.recorder = recorder }
}

func NewQuizService(questions QuestionRepository, attempts AttemptStore, sealer *SessionSealer, settings Settings, opts ...Option) *QuizService {
	s := &QuizService{
		questions: questions,
		attempts:  attempts,
		sealer:    sealer,
		scorer:    Scorer{SessionSize: settings.SessionSize, PointsPerQuestion: settings.PointsPerQuestion},
		recorder:  nopRecorder{},
		logger:    logrus.StandardLogger(),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession draws a fresh randomized session for the caller.
func (s *QuizService) StartSession(ctx context.Context, identity domain.Identity) (StartedSession, error) {
	pool, err := s.questions.FindAll(ctx)
	if err != nil {
		return StartedSession{}, fmt.Errorf("load question pool: %w", err)
	}

	session, err := BuildSession(pool, s.scorer.SessionSize, s.newRand())
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":   identity.UserID,
			"pool_size": len(pool),
		}).WithError(err).Warn("cannot build quiz session")
		return StartedSession{}, err
	}
	if session.Excluded > 0 {
		s.logger.WithField("excluded", session.Excluded).Warn("malformed questions excluded from pool")
	}

	token, expires, err := s.sealer.Seal(identity.UserID, session)
	if err != nil {
		return StartedSession{}, err
	}

	s.recorder.SessionStarted()
	started := StartedSession{
		Questions:    session.ClientQuestions(),
		QuestionIDs:  session.QuestionIDs(),
		SessionToken: token,
	}
	if !expires.IsZero() {
		started.ExpiresAt = &expires
	}
	return started, nil
}

// SubmitSession scores a submission against re-fetched canonical questions and records the attempt.
// When persistence fails the computed result is still returned together with a *domain.StorageError.
func (s *QuizService) SubmitSession(ctx context.Context, identity domain.Identity, submission domain.Submission) (domain.AttemptResult, error) {
	result, err := s.submit(ctx, identity, submission)
	s.recorder.SubmissionScored(outcomeOf(err))
	return result, err
}

func (s *QuizService) submit(ctx context.Context, identity domain.Identity, submission domain.Submission) (domain.AttemptResult, error) {
	if err := s.scorer.CheckShape(submission.QuestionIDs, submission.Answers); err != nil {
		return domain.AttemptResult{}, err
	}
	claims, err := s.sealer.Open(submission.SessionToken)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	if err := matchClaims(claims, identity.UserID, submission.QuestionIDs); err != nil {
		return domain.AttemptResult{}, err
	}

	fetched, err := s.questions.FindByIDs(ctx, submission.QuestionIDs)
	if err != nil {
		return domain.AttemptResult{}, fmt.Errorf("fetch questions: %w", err)
	}
	if len(fetched) < len(submission.QuestionIDs) {
		s.logger.WithFields(logrus.Fields{
			"user_id":   identity.UserID,
			"requested": len(submission.QuestionIDs),
			"found":     len(fetched),
		}).Info("rejecting stale quiz session")
		return domain.AttemptResult{}, domain.ErrStaleSession
	}

	result, err := s.scorer.Score(submission.QuestionIDs, submission.Answers, claims.Orders, fetched)
	if err != nil {
		return domain.AttemptResult{}, err
	}

	guardKey := ""
	if submission.IdempotencyKey != "" && s.guard != nil {
		guardKey = idempotencyKey(identity.UserID, submission.IdempotencyKey)
		claimed, err := s.guard.Claim(ctx, guardKey)
		if err != nil {
			return domain.AttemptResult{}, fmt.Errorf("claim idempotency key: %w", err)
		}
		if !claimed {
			return domain.AttemptResult{}, domain.ErrDuplicateSubmission
		}
	}

	attempt := NewAttempt(identity, submission.QuestionIDs, result, s.now())
	id, err := s.attempts.Save(ctx, attempt)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": identity.UserID,
			"score":   result.Score,
		}).WithError(err).Error("attempt not persisted; stats and leaderboard will not include it")
		if guardKey != "" {
			if rerr := s.guard.Release(ctx, guardKey); rerr != nil {
				s.logger.WithError(rerr).Warn("release idempotency key")
			}
		}
		return result, &domain.StorageError{Err: err}
	}
	attempt.ID = id
	result.AttemptID = id

	s.logger.WithFields(logrus.Fields{
		"user_id":    identity.UserID,
		"attempt_id": id,
		"score":      result.Score,
		"correct":    result.CorrectCount,
	}).Info("quiz attempt recorded")

	for _, l := range s.listeners {
		if err := l.AttemptRecorded(ctx, attempt); err != nil {
			s.logger.WithField("attempt_id", id).WithError(err).Warn("attempt listener failed")
		}
	}
	return result, nil
}

// idempotencyKey scopes a client-supplied key to its caller.
func idempotencyKey(userID, key string) string {
	return userID + ":" + key
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeScored
	case errors.Is(err, domain.ErrInvalidSubmission):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrStaleSession):
		return OutcomeStale
	case errors.Is(err, domain.ErrDuplicateSubmission):
		return OutcomeDuplicate
	case errors.Is(err, domain.ErrStorage):
		return OutcomeStorage
	}
	return OutcomeError
}
