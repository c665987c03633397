package tasks

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy for the task lifecycle. Every failure is scoped to the
// single operation in progress; nothing here is fatal to the application.
var (
	// ErrValidation marks payloads rejected locally before any network call.
	ErrValidation = errors.New("validation error")
	// ErrSubmission marks a non-success response to an initiate request.
	ErrSubmission = errors.New("submission rejected")
	// ErrDemoLimit marks the backend's demo search quota response.
	ErrDemoLimit = errors.New("demo search limit reached")
	// ErrTransient marks a network or parse failure during polling. The poll
	// loop continues past these.
	ErrTransient = errors.New("transient poll failure")
	// ErrTerminalFailure marks a backend-reported failed status.
	ErrTerminalFailure = errors.New("task failed")
	// ErrFetch marks a results retrieval failure outside the poll loop.
	ErrFetch = errors.New("fetch error")
	// ErrNotFound marks an unknown task id.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes task context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, kind Kind, operation, message string, err error) error {
	detail := buildDetail(kind, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(kind Kind, operation, message string) string {
	parts := make([]string, 0, 3)
	if kind != "" {
		parts = append(parts, string(kind))
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "task failure"
	}
	return strings.Join(parts, ": ")
}

// Retryable reports whether an error should leave the poll loop running.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
