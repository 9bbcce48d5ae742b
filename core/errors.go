package core

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes framework errors so callers can branch on the class
// of failure without string matching.
type ErrorKind string

const (
	// KindConfig marks contract violations detected before any execution
	// work begins: invalid roles, duplicate names, disallowed tools, or
	// structural mutation of a pool while an execution is in flight.
	KindConfig ErrorKind = "config_error"

	// KindLLM marks completion capability failures (provider error, rate
	// limit, provider-side timeout).
	KindLLM ErrorKind = "llm_error"

	// KindTool marks tool invocation failures.
	KindTool ErrorKind = "tool_error"

	// KindAgentTimeout marks an agent exceeding its configured timeout.
	KindAgentTimeout ErrorKind = "agent_timeout"

	// KindCoordinatorFailure marks a failed coordinator step in hierarchical
	// execution. This is the only pool-fatal error kind.
	KindCoordinatorFailure ErrorKind = "coordinator_failure"

	// KindEvaluationFailure marks a failed criterion judging step. It is
	// always recovered locally with a zero score and never aborts a report.
	KindEvaluationFailure ErrorKind = "evaluation_failure"
)

// Error is the structured error returned by every public SwarmForge
// operation. It carries a kind for programmatic handling, a human-readable
// message and an optional wrapped cause.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a structured error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a structured error wrapping an underlying cause.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err if it is (or wraps) an *Error, otherwise
// the empty string.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool { return KindOf(err) == kind }
