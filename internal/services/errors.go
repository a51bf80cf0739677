package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrVacancyNotFound  = errors.New("vacancy not found")
	ErrNotifierDisabled = errors.New("telegram bot token or chat id is not configured")
)

// ValidationError is the only failure that stops a submission before any
// side effect happens.
type ValidationError struct {
	Required []string
	Missing  []string
}

func (e *ValidationError) Error() string {
	return "Missing required fields: " + strings.Join(e.Required, ", ")
}

// StoreError wraps a persistence transport failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ResolutionFailure collects why every lookup strategy missed. It is
// reported on the resolved vacancy, never returned as a hard error.
type ResolutionFailure struct {
	VacancyID string
	Attempts  []error
}

func (e *ResolutionFailure) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("vacancy %q not resolved", e.VacancyID)
	}
	return fmt.Sprintf("vacancy %q not resolved: %v", e.VacancyID, errors.Join(e.Attempts...))
}

func (e *ResolutionFailure) Unwrap() []error { return e.Attempts }

// NotificationError is a failed sendMessage call: a transport error or a
// non-2xx answer.
type NotificationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *NotificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("telegram sendMessage: %v", e.Err)
	}
	return fmt.Sprintf("telegram sendMessage: status %d: %s", e.StatusCode, e.Body)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// OrchestrationError means the submission pipeline itself broke.
type OrchestrationError struct {
	Stage string
	Err   error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("submission %s: %v", e.Stage, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }
