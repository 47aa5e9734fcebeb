// Package api speaks the upstream finance API: paginated resource lists
// fetched with an opaque credential header bundle, transient failures
// retried with exponential backoff.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Resource paths on the upstream API.
const (
	PathTransactions = "/transactions"
	PathCategories   = "/categories"
	PathAccounts     = "/accounts"
)

const (
	defaultMaxAttempts = 4
	defaultBackoff     = 500 * time.Millisecond
	defaultCredWait    = 30 * time.Second
)

// page is the envelope every API response uses.
type page struct {
	Resources  []json.RawMessage `json:"resources"`
	Pagination *pagination       `json:"pagination"`
}

type pagination struct {
	NextURI string `json:"next_uri"`
}

// Client fetches paginated resource lists. Pages of one resource are fetched
// sequentially, page N+1's URI comes from page N; different resources are
// independent and may be fetched concurrently.
type Client struct {
	// HTTPClient, MaxAttempts, Backoff and CredentialWait may be
	// overridden before first use.
	HTTPClient  *http.Client
	MaxAttempts int
	Backoff     time.Duration
	// CredentialWait bounds how long a fetch blocks waiting for the
	// credential bundle to become available.
	CredentialWait time.Duration

	base   string
	creds  *Credentials
	logger *log.Logger
}

// NewClient builds a client for the API at baseURL, replaying the credential
// bundle on every request.
func NewClient(baseURL string, creds *Credentials, logger *log.Logger) *Client {
	return &Client{
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
		MaxAttempts:    defaultMaxAttempts,
		Backoff:        defaultBackoff,
		CredentialWait: defaultCredWait,
		base:           baseURL,
		creds:          creds,
		logger:         logger,
	}
}

// FetchAll follows the pagination chain starting at path and returns the
// concatenated resource list. It blocks until the credential bundle is
// available, at most CredentialWait.
func (c *Client) FetchAll(ctx context.Context, path string) ([]json.RawMessage, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.CredentialWait)
	headers, err := c.creds.Wait(waitCtx)
	cancel()
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID, "path", path)

	next := c.base + path
	var resources []json.RawMessage
	for pageNum := 1; next != ""; pageNum++ {
		pg, err := c.fetchPage(ctx, next, headers)
		if err != nil {
			return nil, err
		}
		resources = append(resources, pg.Resources...)
		logger.Debug("fetched page", "page", pageNum, "resources", len(pg.Resources))

		next = ""
		if pg.Pagination != nil && pg.Pagination.NextURI != "" {
			next, err = c.resolve(pg.Pagination.NextURI)
			if err != nil {
				return nil, err
			}
		}
	}
	logger.Info("fetch complete", "total", len(resources))
	return resources, nil
}

// fetchPage requests one page, retrying transient failures with exponential
// backoff up to MaxAttempts.
func (c *Client) fetchPage(ctx context.Context, rawURL string, headers map[string]string) (*page, error) {
	backoff := c.Backoff
	var lastErr error
	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		pg, err := c.doRequest(ctx, rawURL, headers)
		if err == nil {
			return pg, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() || attempt == c.MaxAttempts {
			return nil, err
		}
		c.logger.Warn("transient api failure, retrying", "url", rawURL, "attempt", attempt, "error", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, &APIError{URL: rawURL, Err: ctx.Err()}
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &APIError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, &APIError{Status: resp.StatusCode, URL: rawURL}
	}

	var pg page
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	if pg.Resources == nil && pg.Pagination == nil {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrMalformedResponse)
	}
	return &pg, nil
}

// resolve turns a next_uri, which may be relative, into an absolute URL.
func (c *Client) resolve(nextURI string) (string, error) {
	next, err := url.Parse(nextURI)
	if err != nil {
		return "", fmt.Errorf("parse next_uri %q: %w", nextURI, err)
	}
	if next.IsAbs() {
		return nextURI, nil
	}
	base, err := url.Parse(c.base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	return base.ResolveReference(next).String(), nil
}

// Decode unmarshals each raw resource into T, dropping undecodable items
// with a warning. Structural validation happens later in pkg/validate.
func Decode[T any](raws []json.RawMessage, logger *log.Logger) []T {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warn("dropping undecodable resource", "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}
