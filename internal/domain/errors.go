package domain

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is the distinguished outcome for a single-identifier lookup
// with no match. It is not a generic empty result: list/search with zero
// matches succeed with an empty sequence instead.
var ErrTaskNotFound = errors.New("task not found")

// ValidationReason identifies why a request was rejected before any external
// process was spawned.
type ValidationReason string

const (
	MissingField        ValidationReason = "missing_field"
	MissingProjectScope ValidationReason = "missing_project_scope"
	EmptyField          ValidationReason = "empty_field"
	InvalidField        ValidationReason = "invalid_field"
)

// ValidationError reports a caller-correctable request defect.
type ValidationError struct {
	Field  string
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case MissingProjectScope:
		return fmt.Sprintf("%s: project scope is required; set project or pass all_projects=true where supported", e.Field)
	case EmptyField:
		return fmt.Sprintf("%s: must not be empty or whitespace-only", e.Field)
	case InvalidField:
		return fmt.Sprintf("%s: %s", e.Field, e.Detail)
	default:
		return fmt.Sprintf("%s: required field is missing", e.Field)
	}
}

// InfrastructureCause classifies environment-level failures.
type InfrastructureCause string

const (
	ExecutableNotFound InfrastructureCause = "executable_not_found"
	Timeout            InfrastructureCause = "timeout"
	ProcessSpawnFailed InfrastructureCause = "process_spawn_failed"
)

// InfrastructureError means the external program could not be run at all.
// It is fatal to the request, never to the server process.
type InfrastructureError struct {
	Cause InfrastructureCause
	Err   error
}

func (e *InfrastructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Cause, e.Err)
	}
	return string(e.Cause)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// CommandError means taskwarrior rejected the command: bad syntax, bad
// filter, bad identifier. The external diagnostic text is passed through
// verbatim for the caller to interpret.
type CommandError struct {
	Stderr   string
	ExitCode int
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("task command failed: %s", e.Stderr)
	}
	return fmt.Sprintf("task exited with status %d", e.ExitCode)
}

// InterpreterError means taskwarrior exited zero but emitted output this
// server could not parse as the expected structured form. That is a contract
// violation by the external program; the raw excerpt is kept for diagnosis.
type InterpreterError struct {
	Excerpt string
	Err     error
}

func (e *InterpreterError) Error() string {
	if e.Excerpt != "" {
		return fmt.Sprintf("malformed task output: %q", e.Excerpt)
	}
	return "malformed task output"
}

func (e *InterpreterError) Unwrap() error { return e.Err }
