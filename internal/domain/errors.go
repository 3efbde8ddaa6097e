package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientContent is matched by *InsufficientContentError.
	ErrInsufficientContent = errors.New("not enough questions to build a session")
	// ErrInvalidSubmission rejects malformed submissions before any scoring happens.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrStaleSession indicates a referenced question vanished or the session expired.
	ErrStaleSession = errors.New("quiz session is stale, start a new one")
	// ErrStorage is matched by *StorageError.
	ErrStorage = errors.New("attempt storage failed")
	// ErrDuplicateSubmission is returned when an idempotency key was already used.
	ErrDuplicateSubmission = errors.New("submission already recorded")
	// ErrMalformedQuestion marks questions that cannot be used in a session.
	ErrMalformedQuestion = errors.New("malformed question")
	// ErrQuestionNotFound indicates a question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidPeriod indicates an unsupported leaderboard period.
	ErrInvalidPeriod = errors.New("invalid leaderboard period")
)

// InsufficientContentError carries how many usable questions were available.
type InsufficientContentError struct {
	Available int
	Required  int
}

func (e *InsufficientContentError) Error() string {
	return fmt.Sprintf("not enough questions: need %d, only %d available", e.Required, e.Available)
}

func (e *InsufficientContentError) Is(target error) bool {
	return target == ErrInsufficientContent
}

// StorageError wraps an attempt persistence failure that happened after scoring succeeded.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", ErrStorage, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// InvalidSubmission wraps ErrInvalidSubmission with a reason.
func InvalidSubmission(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSubmission, fmt.Sprintf(format, args...))
}
