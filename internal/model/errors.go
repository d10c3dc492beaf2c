package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidField is matched by every *FieldError.
	ErrInvalidField = errors.New("invalid field")
	// ErrNotFound is returned both for missing tasks and tasks owned by someone else.
	ErrNotFound = errors.New("task not found")
	// ErrConflict is matched by every *ConflictError.
	ErrConflict = errors.New("task overlaps with existing task")
	// ErrPersistence is matched by every *PersistenceError.
	ErrPersistence = errors.New("persistence failure")
)

// FieldError reports a single field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidField
}

// ConflictError identifies the existing task that blocks a write.
type ConflictError struct {
	BlockingTaskID string
	BlockingTitle  string
	BlockingStart  time.Time
	BlockingEnd    time.Time
}

// NewConflictError describes the blocking task.
func NewConflictError(blocking Task) *ConflictError {
	return &ConflictError{
		BlockingTaskID: blocking.ID,
		BlockingTitle:  blocking.Title,
		BlockingStart:  blocking.StartTime,
		BlockingEnd:    blocking.EndTime,
	}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlaps with task %s (%q %s-%s)", e.BlockingTaskID, e.BlockingTitle,
		e.BlockingStart.Format(time.RFC3339), e.BlockingEnd.Format(time.RFC3339))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
