package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input or plan
	ErrCatConflict   ErrorCategory = "conflict"   // Write-once violation in the context store
	ErrCatDependency ErrorCategory = "dependency" // Missing dependency result at invocation time
	ErrCatExecution  ErrorCategory = "execution"  // Agent runtime failure
	ErrCatTimeout    ErrorCategory = "timeout"    // Agent invocation timed out
	ErrCatCollect    ErrorCategory = "collect"    // Data collection failure
	ErrCatState      ErrorCategory = "state"      // State persistence failure
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Fatal    bool // Fatal errors abort the run with no partial artifact
	Cause    error
	Details  map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Predefined error codes
const (
	CodeConflictWriteOnce     = "CONFLICT_WRITE_ONCE"
	CodeCycleDetected         = "CYCLE_DETECTED"
	CodeUnknownDependency     = "UNKNOWN_DEPENDENCY"
	CodeDependencyUnsatisfied = "DEPENDENCY_UNSATISFIED"
	CodeAgentFailed           = "AGENT_FAILED"
	CodeAgentTimeout          = "AGENT_TIMEOUT"
	CodeCollectFailed         = "COLLECT_FAILED"
	CodeDuplicateAgent        = "DUPLICATE_AGENT"
	CodeInvalidConfig         = "INVALID_CONFIG"
	CodeKeyNotFound           = "KEY_NOT_FOUND"
	CodeRunNotFound           = "RUN_NOT_FOUND"
	CodeStateCorrupted        = "STATE_CORRUPTED"
)

// ErrConflict creates a write-once violation error.
// These are always a scheduler or agent-contract bug and fatal to the run.
func ErrConflict(domain, key, writer string) *DomainError {
	return &DomainError{
		Category: ErrCatConflict,
		Code:     CodeConflictWriteOnce,
		Message:  fmt.Sprintf("key %q in domain %q already written", key, domain),
		Fatal:    true,
		Details: map[string]interface{}{
			"domain": domain,
			"key":    key,
			"writer": writer,
		},
	}
}

// ErrCycle creates a cyclic-dependency plan error.
func ErrCycle(remaining []string) *DomainError {
	return &DomainError{
		Category: ErrCatValidation,
		Code:     CodeCycleDetected,
		Message:  "agent dependency graph contains a cycle",
		Fatal:    true,
		Details:  map[string]interface{}{"unplaced": remaining},
	}
}

// ErrUnknownDependency creates an error for a dependency on an unregistered agent.
func ErrUnknownDependency(agent, dep string) *DomainError {
	return &DomainError{
		Category: ErrCatValidation,
		Code:     CodeUnknownDependency,
		Message:  fmt.Sprintf("agent %q depends on unknown agent %q", agent, dep),
		Fatal:    true,
	}
}

// ErrDependencyUnsatisfied creates an error for an agent skipped because a
// dependency produced no result. The run continues for unaffected branches.
func ErrDependencyUnsatisfied(agent string, missing []string) *DomainError {
	return &DomainError{
		Category: ErrCatDependency,
		Code:     CodeDependencyUnsatisfied,
		Message:  fmt.Sprintf("agent %q skipped: missing results from %v", agent, missing),
		Details:  map[string]interface{}{"missing": missing},
	}
}

// ErrAgentExecution creates an agent execution error, local to one agent.
func ErrAgentExecution(agent, message string) *DomainError {
	return &DomainError{
		Category: ErrCatExecution,
		Code:     CodeAgentFailed,
		Message:  fmt.Sprintf("agent %q: %s", agent, message),
		Details:  map[string]interface{}{"agent": agent},
	}
}

// ErrAgentTimeout creates a timeout error for a single agent invocation.
// Timeouts are treated like any other execution failure, not a fatal run error.
func ErrAgentTimeout(agent string) *DomainError {
	return &DomainError{
		Category: ErrCatTimeout,
		Code:     CodeAgentTimeout,
		Message:  fmt.Sprintf("agent %q timed out", agent),
		Details:  map[string]interface{}{"agent": agent},
	}
}

// ErrCollect creates a data-collection error. Fatal: no analysis is
// meaningful without collected pages.
func ErrCollect(message string) *DomainError {
	return &DomainError{
		Category: ErrCatCollect,
		Code:     CodeCollectFailed,
		Message:  message,
		Fatal:    true,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatValidation,
		Code:     code,
		Message:  message,
		Fatal:    true,
	}
}

// ErrState creates a state persistence error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatState,
		Code:     code,
		Message:  message,
	}
}

// ErrNotFound creates a not-found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     CodeKeyNotFound,
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// IsFatal checks whether an error must abort the run with no partial artifact.
func IsFatal(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Fatal
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}
