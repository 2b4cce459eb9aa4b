package service

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories surfaced by every service. Handlers translate them into HTTP statuses
// with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("persistence failure")
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = fmt.Errorf("submission %w", ErrNotFound)
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = fmt.Errorf("assignment %w", ErrNotFound)
	// ErrAssessmentTypeNotFound indicates the assessment type does not exist.
	ErrAssessmentTypeNotFound = fmt.Errorf("assessment type %w", ErrNotFound)
	// ErrStudentNotFound indicates the student does not exist.
	ErrStudentNotFound = fmt.Errorf("student %w", ErrNotFound)
	// ErrFinalGradeNotFound indicates no grade entries exist for the requested key.
	ErrFinalGradeNotFound = fmt.Errorf("final grade %w", ErrNotFound)

	// ErrAssessmentTypeInUse guards deletion of referenced assessment types.
	ErrAssessmentTypeInUse = fmt.Errorf("%w: assessment type is used by grade entries", ErrConflict)
	// ErrAssessmentTypeNameTaken indicates another assessment type already uses the name.
	ErrAssessmentTypeNameTaken = fmt.Errorf("%w: assessment type name already exists", ErrConflict)
	// ErrSubmissionAlreadyGraded blocks resubmitting graded work.
	ErrSubmissionAlreadyGraded = fmt.Errorf("%w: submission already graded", ErrConflict)
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports rejected input. No state was mutated.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Message)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(message string, fields ...FieldError) *ValidationError {
	if message == "" {
		message = ErrValidation.Error()
	}
	return &ValidationError{Message: message, Fields: fields}
}

// PersistenceError wraps a failed write sequence. The transaction was rolled back.
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

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
