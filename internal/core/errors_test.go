package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrConflict(t *testing.T) {
	err := ErrConflict("pages", "https://example.com/", "website")

	if err.Category != ErrCatConflict {
		t.Errorf("Category = %s, want %s", err.Category, ErrCatConflict)
	}
	if err.Code != CodeConflictWriteOnce {
		t.Errorf("Code = %s, want %s", err.Code, CodeConflictWriteOnce)
	}
	if !err.Fatal {
		t.Error("conflict errors must be fatal")
	}
	if err.Details["writer"] != "website" {
		t.Errorf("Details[writer] = %v, want website", err.Details["writer"])
	}
}

func TestErrDependencyUnsatisfiedNotFatal(t *testing.T) {
	err := ErrDependencyUnsatisfied("seo", []string{"website"})
	if err.Fatal {
		t.Error("dependency-unsatisfied skips are not fatal to the run")
	}
	if err.Category != ErrCatDependency {
		t.Errorf("Category = %s, want %s", err.Category, ErrCatDependency)
	}
}

func TestDomainErrorIs(t *testing.T) {
	err := ErrCycle([]string{"a", "b"})
	wrapped := fmt.Errorf("building plan: %w", err)

	if !errors.Is(wrapped, &DomainError{Category: ErrCatValidation, Code: CodeCycleDetected}) {
		t.Error("errors.Is should match on category+code through wrapping")
	}
	if errors.Is(wrapped, &DomainError{Category: ErrCatValidation, Code: CodeUnknownDependency}) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrAgentExecution("seo", "analyzer unavailable").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"conflict", ErrConflict("pages", "k", "w"), true},
		{"cycle", ErrCycle(nil), true},
		{"unknown dep", ErrUnknownDependency("a", "b"), true},
		{"collect", ErrCollect("network down"), true},
		{"agent failed", ErrAgentExecution("seo", "boom"), false},
		{"timeout", ErrAgentTimeout("seo"), false},
		{"skip", ErrDependencyUnsatisfied("x", nil), false},
		{"plain error", errors.New("whatever"), false},
		{"wrapped fatal", fmt.Errorf("outer: %w", ErrCollect("down")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCategory(t *testing.T) {
	if got := GetCategory(ErrAgentTimeout("seo")); got != ErrCatTimeout {
		t.Errorf("GetCategory() = %s, want %s", got, ErrCatTimeout)
	}
	if got := GetCategory(errors.New("plain")); got != ErrCatInternal {
		t.Errorf("GetCategory(plain) = %s, want %s", got, ErrCatInternal)
	}
	if !IsCategory(ErrAgentExecution("a", "b"), ErrCatExecution) {
		t.Error("IsCategory should match execution errors")
	}
}
