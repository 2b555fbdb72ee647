package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sitescope/sitescope/internal/core"
)

func fastRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	var calls int
	err := fastRetry().Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return markTransient(errors.New("upstream hiccup"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecuteStopsOnPermanentFailure(t *testing.T) {
	var calls int
	permanent := errors.New("bad request")
	err := fastRetry().Execute(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("Execute() error = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 for a permanent failure", calls)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	var calls int
	err := fastRetry().Execute(context.Background(), func(context.Context) error {
		calls++
		return markTransient(errors.New("still down"))
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := fastRetry().Execute(ctx, func(context.Context) error {
		t.Fatal("fn should not run with a canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestDelayIsBoundedByMaxDelay(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		MaxDelay:    2 * time.Second,
		Multiplier:  10.0,
	}
	for attempt := 1; attempt <= 10; attempt++ {
		if d := p.delay(attempt); d > 2*time.Second {
			t.Errorf("delay(%d) = %v, exceeds max", attempt, d)
		}
	}
}

func TestAnalyzeRecoversAfterTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "upstream overloaded", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"findings\":\"recovered analysis\"}"}}]}`)
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"}, nil).
		WithRetryPolicy(fastRetry())
	res, err := a.Analyze(context.Background(), core.AnalysisRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.Findings != "recovered analysis" {
		t.Errorf("Findings = %q", res.Findings)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("endpoint calls = %d, want 2", n)
	}
}

func TestAnalyzeDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"}, nil).
		WithRetryPolicy(fastRetry())
	if _, err := a.Analyze(context.Background(), core.AnalysisRequest{Prompt: "p"}); err == nil {
		t.Fatal("expected error for 401 response")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("endpoint calls = %d, want 1", n)
	}
}
