// Package liveness probes URLs and classifies them as reachable or not,
// at the time of the check only.
package liveness

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// Status is the outcome of one probe.
type Status struct {
	URL        string
	Reachable  bool
	StatusCode int
	FinalURL   string
}

// Checker issues bounded HTTP probes. A HEAD request is tried first; if
// the request itself fails (network error, not a bad status) it retries
// once with GET for origins that reject HEAD.
type Checker struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewChecker creates a checker with the given per-probe timeout.
func NewChecker(timeout time.Duration, userAgent string) *Checker {
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	return &Checker{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// A chain this deep never resolved; failing the probe
				// classifies it unreachable instead of passing the
				// last 3xx as a live response.
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Check probes a URL. Redirects are followed and the final resolved URL
// is reported; any error, timeout, or final status >= 400 means
// unreachable. Check never hangs: every probe is bounded by the timeout.
func (c *Checker) Check(ctx context.Context, rawURL string) Status {
	status := Status{URL: rawURL, FinalURL: rawURL}

	code, finalURL, err := c.probe(ctx, http.MethodHead, rawURL)
	if err != nil {
		// HEAD didn't complete at all; some origins only answer GET.
		code, finalURL, err = c.probe(ctx, http.MethodGet, rawURL)
		if err != nil {
			return status
		}
	}

	status.StatusCode = code
	if finalURL != "" {
		status.FinalURL = finalURL
	}
	status.Reachable = code < 400
	return status
}

func (c *Checker) probe(ctx context.Context, method, rawURL string) (code int, finalURL string, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, "", err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused; bodies here are throwaway.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, resp.Request.URL.String(), nil
}
