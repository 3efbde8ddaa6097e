package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/domain"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// QuestionStore is the writable question bank behind the admin surface.
type QuestionStore interface {
	QuestionRepository
	// List returns one page of matching questions, newest first, plus the total match count.
	List(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, int, error)
	Get(ctx context.Context, id string) (domain.Question, error)
	Create(ctx context.Context, q domain.Question) error
	Update(ctx context.Context, q domain.Question) error
	Delete(ctx context.Context, id string) error
}

// CacheInvalidator drops cached question data after the bank changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// AdminService manages the question bank.
type AdminService struct {
	store  QuestionStore
	caches []CacheInvalidator
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewAdminService(store QuestionStore, logger logrus.FieldLogger, caches ...CacheInvalidator) *AdminService {
	return &AdminService{store: store, caches: caches, logger: logger, now: time.Now}
}

func (s *AdminService) List(ctx context.Context, filter domain.QuestionFilter) (domain.QuestionPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)

	questions, total, err := s.store.List(ctx, filter)
	if err != nil {
		return domain.QuestionPage{}, fmt.Errorf("list questions: %w", err)
	}
	return domain.QuestionPage{
		Questions: questions,
		Page:      filter.Page,
		Limit:     filter.Limit,
		Total:     total,
		Pages:     (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

func (s *AdminService) Get(ctx context.Context, id string) (domain.Question, error) {
	return s.store.Get(ctx, id)
}

func (s *AdminService) Create(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	q.ID = uuid.NewString()
	q.CreatedAt = s.now().UTC()
	if err := s.store.Create(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	s.invalidate(ctx)
	s.logger.WithField("question_id", q.ID).Info("question created")
	return q, nil
}

// Update replaces every editable field of an existing question.
func (s *AdminService) Update(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	existing, err := s.store.Get(ctx, q.ID)
	if err != nil {
		return domain.Question{}, err
	}
	q.CreatedAt = existing.CreatedAt
	if err := s.store.Update(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	s.invalidate(ctx)
	s.logger.WithField("question_id", q.ID).Info("question updated")
	return q, nil
}

func (s *AdminService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.WithField("question_id", id).Info("question deleted")
	return nil
}

// ImportResult reports how many of the submitted questions were stored.
type ImportResult struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

// Import stores every well-formed question and skips the rest.
func (s *AdminService) Import(ctx context.Context, questions []domain.Question) (ImportResult, error) {
	result := ImportResult{Total: len(questions)}
	now := s.now().UTC()
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			continue
		}
		q.ID = uuid.NewString()
		q.CreatedAt = now
		if err := s.store.Create(ctx, q); err != nil {
			if result.Imported > 0 {
				s.invalidate(ctx)
			}
			return result, fmt.Errorf("import question: %w", err)
		}
		result.Imported++
	}
	if result.Imported > 0 {
		s.invalidate(ctx)
	}
	s.logger.WithFields(logrus.Fields{"imported": result.Imported, "total": result.Total}).Info("questions imported")
	return result, nil
}

// Export returns the whole bank, newest first.
func (s *AdminService) Export(ctx context.Context) ([]domain.Question, error) {
	questions, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export questions: %w", err)
	}
	return questions, nil
}

func (s *AdminService) invalidate(ctx context.Context) {
	for _, c := range s.caches {
		if err := c.Invalidate(ctx); err != nil {
			s.logger.WithError(err).Warn("question cache invalidation failed")
		}
	}
}
