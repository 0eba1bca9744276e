// Package processor implements the HTTP client for the external bank-debit
// processor.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/rentably/rent-collection/internal"
	processortypes "github.com/rentably/rent-collection/internal/core/datamodel/processor"
)

// ErrNotFound is returned when the processor has no record of the
// requested resource (distinct from transport failures).
var ErrNotFound = fmt.Errorf("processor: not found")

// RejectionError is a synchronous decline at submission time. The reason
// is the processor's verbatim message; it is recorded on the payment row
// for landlord visibility.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("processor rejected charge: %s", e.Reason)
}

type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

func NewClient(cfg internal.ProcessorConfig, logger *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// CreateCustomer registers (or re-registers, idempotently on the external
// identity) a customer at the processor.
func (c *Client) CreateCustomer(ctx context.Context, req *processortypes.CreateCustomerRequest) (*processortypes.Customer, error) {
	var customer processortypes.Customer
	if err := c.post(ctx, "/v1/customers", "", req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateVerificationIntent starts instrument verification for a customer
// and returns the client secret the browser flow needs.
func (c *Client) CreateVerificationIntent(ctx context.Context, req *processortypes.CreateVerificationIntentRequest) (*processortypes.VerificationIntent, error) {
	var intent processortypes.VerificationIntent
	if err := c.post(ctx, "/v1/verification_intents", "", req, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// GetInstrument fetches instrument details after client-side verification.
func (c *Client) GetInstrument(ctx context.Context, instrumentRef string) (*processortypes.Instrument, error) {
	var instrument processortypes.Instrument
	if err := c.get(ctx, "/v1/instruments/"+url.PathEscape(instrumentRef), &instrument); err != nil {
		return nil, err
	}
	return &instrument, nil
}

// Charge submits a debit. The idempotency key guarantees a retried
// submission is not charged twice by the processor.
func (c *Client) Charge(ctx context.Context, req *processortypes.ChargeRequest, idempotencyKey string) (*processortypes.Charge, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid charge request: %w", err)
	}
	if idempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key is required")
	}

	var charge processortypes.Charge
	if err := c.post(ctx, "/v1/charges", idempotencyKey, req, &charge); err != nil {
		return nil, err
	}

	if charge.Status == processortypes.ChargeStatusFailed {
		return &charge, &RejectionError{Reason: charge.FailureReason}
	}
	return &charge, nil
}

// GetChargeByIdempotencyKey resolves ambiguous submissions during the
// reconciliation sweep. ErrNotFound means the charge never reached the
// processor.
func (c *Client) GetChargeByIdempotencyKey(ctx context.Context, idempotencyKey string) (*processortypes.Charge, error) {
	var charge processortypes.Charge
	if err := c.get(ctx, "/v1/charges?idempotency_key="+url.QueryEscape(idempotencyKey), &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

// DetachInstrument removes an instrument at the processor. Best effort:
// callers log and proceed on failure.
func (c *Client) DetachInstrument(ctx context.Context, instrumentRef string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/instruments/"+url.PathEscape(instrumentRef), nil)
	if err != nil {
		return fmt.Errorf("request creation error: %w", err)
	}
	c.setHeaders(req, "")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("processor API error: status %d, response: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, payload, out interface{}) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("request creation error: %w", err)
	}
	c.setHeaders(req, idempotencyKey)

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("request creation error: %w", err)
	}
	c.setHeaders(req, "")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	c.logger.Debug("sending processor request", "method", req.Method, "url", req.URL.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("response read error: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		c.logger.Error("processor API returned error",
			"status", resp.StatusCode,
			"response", string(respBody),
			"url", req.URL.String())
		return fmt.Errorf("processor API error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("response unmarshal error: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, idempotencyKey string) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
}
