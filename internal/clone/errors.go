package clone

import (
	"errors"
	"fmt"
)

// ErrMissingURL is returned when no source URL was given.
var ErrMissingURL = errors.New("source URL is required")

// ErrUnsupportedScheme is returned when the source URL is not http(s).
var ErrUnsupportedScheme = errors.New("source URL must start with http:// or https://")

// NavigationError is returned when the source page cannot be loaded. It aborts the run.
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Cause)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}

// StepError wraps a fatal failure in a named run step.
type StepError struct {
	Step    string
	Message string
	Cause   error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Step, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
