/**
 * @description
 * HTTP client for the SMS delivery provider. Implements the orchestrator's
 * Transport interface for the SMS channel.
 */
package smsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/duespark/dunning-service/internal/domain"
)

// Client sends reminder SMS messages through the provider's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new SMS provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type sendResponse struct {
	MessageID string  `json:"message_id"`
	Cost      float64 `json:"cost"`
}

// Send delivers one SMS. Provider rejections surface as TransportError so
// the dispatcher can tell transient failures from fatal ones.
func (c *Client) Send(ctx context.Context, address, message string) (domain.SendReceipt, error) {
	if c.baseURL == "" {
		return domain.SendReceipt{}, fmt.Errorf("SMS provider base URL is not configured")
	}

	payload := sendRequest{To: address, Text: message}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.SendReceipt{}, fmt.Errorf("failed to marshal SMS payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return domain.SendReceipt{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SendReceipt{}, fmt.Errorf("failed to execute request to SMS provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.SendReceipt{}, &domain.TransportError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(detail)),
		}
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.SendReceipt{}, fmt.Errorf("failed to decode SMS provider response: %w", err)
	}

	return domain.SendReceipt{MessageID: result.MessageID, Cost: result.Cost}, nil
}
