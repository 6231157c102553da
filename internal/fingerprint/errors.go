package fingerprint

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is returned when the page script produced no output.
var ErrEmptyResult = errors.New("fingerprint script returned no result")

// ShapeError is returned when raw fingerprint data does not have the expected shape.
type ShapeError struct {
	Message string
	Cause   error
}

func (e *ShapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed fingerprint: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed fingerprint: %s", e.Message)
}

func (e *ShapeError) Unwrap() error {
	return e.Cause
}

// EvaluationError is returned when the page refused to run the fingerprint script.
type EvaluationError struct {
	URL   string
	Cause error
}

func (e *EvaluationError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("failed to evaluate fingerprint script on %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("failed to evaluate fingerprint script: %v", e.Cause)
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}
