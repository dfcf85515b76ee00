package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upshift-tools/upshift/pkg/auth"
	"github.com/upshift-tools/upshift/pkg/util"
)

// Version is stamped at build time and reported in the User-Agent
var Version = "dev"

const (
	maxReadRetries   = 3
	retryBackoffBase = 250 * time.Millisecond
)

// Client talks to the service API. All calls carry the session's bearer
// token, presigned uploads and downloads go out unauthenticated.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenSource
}

// New creates a client for the given API endpoint
func New(baseURL string, tokens auth.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		tokens:  tokens,
	}
}

// NewWithHTTPClient creates a client with a caller-supplied http.Client
func NewWithHTTPClient(baseURL string, tokens auth.TokenSource, hc *http.Client) *Client {
	c := New(baseURL, tokens)
	if hc != nil {
		c.http = hc
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) patch(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, in, out)
}

// do performs one authenticated JSON request. Reads are retried on 429
// and 5xx responses, mutating calls never are.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	log := util.GetLogger()

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = maxReadRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := retryBackoffBase << (attempt - 1)
			log.V(1).Info("Retrying request", "method", method, "path", path, "attempt", attempt+1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		retry, err := c.doOnce(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return lastErr
}

// doOnce performs a single request and reports whether it may be retried
func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, out interface{}) (bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "upshift/"+Version)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport errors on reads are as retryable as a 5xx
		return true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return retryable(resp.StatusCode), c.decodeError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return false, nil
}

// decodeError turns a non-2xx response into an *APIError. A 401 also
// wraps ErrNotSignedIn so callers can tell the user to log in again.
func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(data) > 0 {
		// Leave the zero envelope in place when the body is not JSON
		json.Unmarshal(data, apiErr)
	}
	if apiErr.RequestID == "" {
		apiErr.RequestID = resp.Header.Get("X-Request-Id")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%v: %w", apiErr, auth.ErrNotSignedIn)
	}
	return apiErr
}

// GetUser returns the identity behind the current session
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/v1/user", &user); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
