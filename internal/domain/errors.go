/**
 * @description
 * Error types shared between channel transports and the dispatch engine.
 */
package domain

import "fmt"

// TransportError is a delivery failure carrying the provider's HTTP status
// code, so the dispatcher can classify it as retryable or fatal.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transport error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("transport error: status %d: %s", e.StatusCode, e.Message)
}
