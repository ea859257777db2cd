package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the requested quiz is not in the store.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrGenerationInFlight is returned when a generation request is started
	// while another one is still pending for the same shell.
	ErrGenerationInFlight = errors.New("a quiz generation request is already in progress")
	// ErrAttemptNotFound indicates an unknown or expired attempt id.
	ErrAttemptNotFound = errors.New("attempt not found")
)

// ValidationError reports bad operator input. It is recovered locally and
// never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// TransportError wraps a network or service failure. Retryable by the caller;
// the generation client never retries on its own.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("generation service unreachable: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError reports a response that does not match the expected shape.
// Not retryable without an upstream fix.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "malformed generation response: " + e.Reason }

// InsufficientMaterialError signals that the remote judged the lecture text
// too thin to produce quality questions. Distinct from a generic failure so
// the operator is guided to supply richer material.
type InsufficientMaterialError struct{}

func (e *InsufficientMaterialError) Error() string {
	return "the lecture material provided is insufficient to generate quality questions for the requested parameters"
}
