/**
 * @description
 * Channel-agnostic delivery with bounded, exponentially backed-off retries.
 * The dispatcher owns only the retry loop; recording outcomes is the
 * caller's responsibility.
 */
package app

import (
	"errors"
	"strings"
	"time"

	"github.com/duespark/dunning-service/internal/domain"
)

// SendFunc performs one provider call. It returns a receipt on success or a
// classified error on failure.
type SendFunc func() (domain.SendReceipt, error)

// RetryPolicy controls the dispatch retry loop.
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the first, so up to
	// MaxRetries+1 total attempts. Zero selects the default of 3.
	MaxRetries int
	// InitialDelay is the sleep before the first re-attempt; each further
	// re-attempt doubles it. Zero selects the default of 1s.
	InitialDelay time.Duration
	// SkipRetry makes the dispatcher return after the first failure
	// regardless of classification.
	SkipRetry bool
}

const backoffMultiplier = 2

// DeliveryOutcome is the terminal result of one dispatch.
type DeliveryOutcome struct {
	Success   bool
	Attempts  int
	MessageID string
	Cost      float64
	Err       error
	Retryable bool
}

// Dispatcher runs send callbacks with retry. The sleep function is
// injectable so tests can observe backoff without waiting.
type Dispatcher struct {
	sleep func(time.Duration)
}

// NewDispatcher creates a Dispatcher that sleeps for real.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{sleep: time.Sleep}
}

// Dispatch attempts send until it succeeds, fails fatally, or exhausts the
// retry budget. The loop is linear with an explicit attempt counter; once
// started it runs to completion. Sleeping between attempts suspends only
// this dispatch, never its caller's other work.
func (d *Dispatcher) Dispatch(send SendFunc, policy RetryPolicy) DeliveryOutcome {
	maxRetries := policy.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	delay := policy.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}

	for attempt := 0; ; attempt++ {
		receipt, err := send()
		if err == nil {
			return DeliveryOutcome{
				Success:   true,
				Attempts:  attempt + 1,
				MessageID: receipt.MessageID,
				Cost:      receipt.Cost,
			}
		}

		retryable := IsRetryable(err)
		if policy.SkipRetry || !retryable || attempt == maxRetries {
			return DeliveryOutcome{
				Success:   false,
				Attempts:  attempt + 1,
				Err:       err,
				Retryable: retryable,
			}
		}

		// Delay before re-attempt k is InitialDelay * 2^k.
		d.sleep(delay)
		delay *= backoffMultiplier
	}
}

// Transient error signatures matched against lowercased error text.
var transientSignatures = []string{
	"connection refused",
	"econnrefused",
	"timeout",
	"timed out",
	"etimedout",
	"no such host",
	"enotfound",
	"connection reset",
	"econnreset",
	"rate limit",
	"too many requests",
}

// Status codes that indicate a transient provider-side condition.
var transientStatusCodes = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// IsRetryable classifies a delivery error. Transport errors are classified
// by status code; everything else by matching the fixed set of transient
// signatures in the error text. Unmatched errors are fatal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *domain.TransportError
	if errors.As(err, &te) {
		return transientStatusCodes[te.StatusCode]
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
