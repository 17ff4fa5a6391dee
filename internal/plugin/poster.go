package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Poster posts a JSON payload to a URL. Extracted as an interface so
// webhook-style plugins and tags can share one HTTP implementation, and
// tests can substitute a fake.
type Poster interface {
	// PostJSON sends payload as a JSON body. A nil payload posts "null".
	// Any non-200 status is a failure.
	PostJSON(ctx context.Context, url string, payload any) error
}

// HTTPPoster is the production Poster.
type HTTPPoster struct {
	client *http.Client
}

// defaultPostTimeout bounds a webhook call. Hooks run on the polling
// loop's goroutine, so an unbounded post would stall all event handling.
const defaultPostTimeout = 10 * time.Second

// NewHTTPPoster creates a poster with a bounded-timeout client.
func NewHTTPPoster() *HTTPPoster {
	return &HTTPPoster{
		client: &http.Client{Timeout: defaultPostTimeout},
	}
}

// PostJSON sends payload to url and fails on any non-200 response.
func (p *HTTPPoster) PostJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	if resp.StatusCode != http.StatusOK {
		// Include a bounded slice of the body for diagnosis.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // Best effort
		return fmt.Errorf("%w: %s returned %d: %s", ErrOperation, url, resp.StatusCode, snippet)
	}
	return nil
}
