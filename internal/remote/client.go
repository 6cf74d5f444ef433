package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"vendra.org/internal/transition"
)

// Envelope is the response wrapper every backend call returns. A status code
// outside the 2xx range, or a null payload on a mutating call, is a failure
// regardless of the HTTP layer outcome.
type Envelope struct {
	StatusCode int             `json:"status_code"`
	Payload    json.RawMessage `json:"payload"`
	Message    string          `json:"message,omitempty"`
}

// Client is a thin HTTP client for the commerce backend.
type Client struct {
	base  string
	http  *http.Client
	token string
}

// Option configures Client behavior.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken attaches a bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a client with sensible defaults.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Orders returns the order-facing backend adapter.
func (c *Client) Orders() *Orders { return &Orders{c: c} }

// Accounts returns the account-facing backend adapter.
func (c *Client) Accounts() *Accounts { return &Accounts{c: c} }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", transition.ErrTransport, err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", transition.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", transition.ErrTransport, err)
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode envelope: %v", transition.ErrTransport, err)
	}
	if env.StatusCode == 0 {
		env.StatusCode = resp.StatusCode
	}
	// The server mirrors the HTTP status into the envelope, so creations
	// arrive as 201; any 2xx is success.
	if env.StatusCode < 200 || env.StatusCode > 299 {
		return classifyEnvelope(env)
	}
	mutating := method != http.MethodGet
	if mutating && len(env.Payload) == 0 {
		return fmt.Errorf("%w: empty payload on mutating call", transition.ErrTransport)
	}
	if out != nil && len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, out); err != nil {
			return fmt.Errorf("%w: decode payload: %v", transition.ErrTransport, err)
		}
	}
	return nil
}

// classifyEnvelope maps backend failure codes into the transition taxonomy.
func classifyEnvelope(env Envelope) error {
	msg := env.Message
	if msg == "" {
		msg = http.StatusText(env.StatusCode)
	}
	switch env.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", transition.ErrDenied, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", transition.ErrStaleState, msg)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", transition.ErrIllegal, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", transition.ErrValidation, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", transition.ErrBusy, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", transition.ErrTransport, env.StatusCode, msg)
	}
}
