package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/duespark/dunning-service/internal/domain"
)

func newTestDispatcher() (*Dispatcher, *[]time.Duration) {
	var sleeps []time.Duration
	d := &Dispatcher{sleep: func(delay time.Duration) {
		sleeps = append(sleeps, delay)
	}}
	return d, &sleeps
}

func TestDispatch_SucceedsFirstAttempt(t *testing.T) {
	d, sleeps := newTestDispatcher()

	outcome := d.Dispatch(func() (domain.SendReceipt, error) {
		return domain.SendReceipt{MessageID: "msg-1", Cost: 0.02}, nil
	}, RetryPolicy{InitialDelay: time.Second})

	if !outcome.Success || outcome.Attempts != 1 {
		t.Fatalf("expected success in 1 attempt, got %+v", outcome)
	}
	if outcome.MessageID != "msg-1" || outcome.Cost != 0.02 {
		t.Fatalf("receipt not propagated: %+v", outcome)
	}
	if len(*sleeps) != 0 {
		t.Fatalf("expected no backoff sleeps, got %v", *sleeps)
	}
}

func TestDispatch_RetryableExhaustsBudget(t *testing.T) {
	d, sleeps := newTestDispatcher()
	calls := 0

	outcome := d.Dispatch(func() (domain.SendReceipt, error) {
		calls++
		return domain.SendReceipt{}, errors.New("connection refused")
	}, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second})

	if outcome.Success {
		t.Fatal("expected failure")
	}
	if calls != 4 || outcome.Attempts != 4 {
		t.Fatalf("expected exactly 4 attempts, got calls=%d attempts=%d", calls, outcome.Attempts)
	}
	if !outcome.Retryable {
		t.Fatal("expected outcome marked retryable")
	}
	if len(*sleeps) != 3 {
		t.Fatalf("expected 3 backoff sleeps, got %v", *sleeps)
	}
}

func TestDispatch_BackoffDoublesExactly(t *testing.T) {
	d, sleeps := newTestDispatcher()

	d.Dispatch(func() (domain.SendReceipt, error) {
		return domain.SendReceipt{}, errors.New("request timed out")
	}, RetryPolicy{MaxRetries: 3, InitialDelay: 500 * time.Millisecond})

	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), *sleeps)
	}
	for k, delay := range *sleeps {
		if delay != want[k] {
			t.Fatalf("delay before re-attempt %d = %v, want %v", k, delay, want[k])
		}
	}
}

func TestDispatch_FatalErrorShortCircuits(t *testing.T) {
	d, sleeps := newTestDispatcher()
	calls := 0

	outcome := d.Dispatch(func() (domain.SendReceipt, error) {
		calls++
		return domain.SendReceipt{}, errors.New("invalid recipient address")
	}, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second})

	if calls != 1 || outcome.Attempts != 1 {
		t.Fatalf("expected exactly 1 attempt for fatal error, got %d", calls)
	}
	if outcome.Retryable {
		t.Fatal("expected outcome marked non-retryable")
	}
	if len(*sleeps) != 0 {
		t.Fatalf("expected no sleeps for fatal error, got %v", *sleeps)
	}
}

func TestDispatch_SkipRetryStopsAfterFirstFailure(t *testing.T) {
	d, _ := newTestDispatcher()
	calls := 0

	outcome := d.Dispatch(func() (domain.SendReceipt, error) {
		calls++
		return domain.SendReceipt{}, errors.New("connection reset by peer")
	}, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second, SkipRetry: true})

	if calls != 1 {
		t.Fatalf("expected 1 attempt with SkipRetry, got %d", calls)
	}
	if !outcome.Retryable {
		t.Fatal("SkipRetry must not change the error classification")
	}
}

func TestDispatch_SucceedsAfterTransientFailures(t *testing.T) {
	d, _ := newTestDispatcher()
	calls := 0

	outcome := d.Dispatch(func() (domain.SendReceipt, error) {
		calls++
		if calls <= 2 {
			return domain.SendReceipt{}, errors.New("ETIMEDOUT")
		}
		return domain.SendReceipt{MessageID: "msg-9"}, nil
	}, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second})

	if !outcome.Success || outcome.Attempts != 3 {
		t.Fatalf("expected success on attempt 3, got %+v", outcome)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "timeout", err: errors.New("context deadline exceeded: timeout"), want: true},
		{name: "node style ETIMEDOUT", err: errors.New("ETIMEDOUT"), want: true},
		{name: "dns failure", err: errors.New("lookup api.example.com: no such host"), want: true},
		{name: "connection reset", err: errors.New("read: connection reset by peer"), want: true},
		{name: "rate limited", err: errors.New("provider rate limit exceeded"), want: true},
		{name: "http 429", err: &domain.TransportError{StatusCode: 429}, want: true},
		{name: "http 500", err: &domain.TransportError{StatusCode: 500}, want: true},
		{name: "http 502", err: &domain.TransportError{StatusCode: 502}, want: true},
		{name: "http 503", err: &domain.TransportError{StatusCode: 503}, want: true},
		{name: "http 504", err: &domain.TransportError{StatusCode: 504}, want: true},
		{name: "http 400", err: &domain.TransportError{StatusCode: 400}, want: false},
		{name: "http 401", err: &domain.TransportError{StatusCode: 401}, want: false},
		{name: "http 404", err: &domain.TransportError{StatusCode: 404}, want: false},
		{name: "bad address", err: errors.New("invalid recipient address"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryable_WrappedTransportError(t *testing.T) {
	wrapped := fmt.Errorf("send failed: %w", &domain.TransportError{StatusCode: 503})
	if !IsRetryable(wrapped) {
		t.Fatal("expected wrapped 503 transport error to be retryable")
	}
}
