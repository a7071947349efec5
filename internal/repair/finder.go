// Package repair tries to find working substitutes for dead URLs. It is
// deliberately shallow: a fixed, ordered list of mechanical rewrites
// plus one archive lookup, first hit wins.
package repair

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inkwell-news/inkwell/internal/liveness"
)

// URLChecker is the slice of the liveness checker the finder needs.
type URLChecker interface {
	Check(ctx context.Context, rawURL string) liveness.Status
}

// Result is the outcome of a replacement search.
type Result struct {
	Original    string   `json:"original"`
	Replacement string   `json:"replacement,omitempty"`
	Fixed       bool     `json:"fixed"`
	Hints       []string `json:"hints,omitempty"`
}

// Finder searches for replacements using a fixed candidate order.
type Finder struct {
	checker         URLChecker
	archiveEndpoint string
	client          *http.Client
}

// NewFinder creates a finder. archiveEndpoint is the Wayback Machine
// availability API base (overridden in tests).
func NewFinder(checker URLChecker, archiveEndpoint string) *Finder {
	return &Finder{
		checker:         checker,
		archiveEndpoint: archiveEndpoint,
		client:          &http.Client{Timeout: 15 * time.Second},
	}
}

// Find tries each candidate in order and returns the first one the
// checker accepts. When nothing works the result carries manual-lookup
// hints instead of a replacement.
func (f *Finder) Find(ctx context.Context, rawURL string) Result {
	result := Result{Original: rawURL}

	for _, candidate := range syntacticCandidates(rawURL) {
		if status := f.checker.Check(ctx, candidate); status.Reachable {
			result.Replacement = candidate
			result.Fixed = true
			return result
		}
	}

	if snapshot := f.archiveSnapshot(ctx, rawURL); snapshot != "" {
		if status := f.checker.Check(ctx, snapshot); status.Reachable {
			result.Replacement = snapshot
			result.Fixed = true
			return result
		}
	}

	result.Hints = Hints(rawURL)
	return result
}

// syntacticCandidates returns the mechanical rewrites in their fixed
// order: scheme toggle, strip leading www, add leading www.
func syntacticCandidates(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	var candidates []string

	swapped := *u
	switch u.Scheme {
	case "https":
		swapped.Scheme = "http"
	case "http":
		swapped.Scheme = "https"
	}
	if swapped.Scheme != u.Scheme {
		candidates = append(candidates, swapped.String())
	}

	if strings.HasPrefix(u.Host, "www.") {
		stripped := *u
		stripped.Host = strings.TrimPrefix(u.Host, "www.")
		candidates = append(candidates, stripped.String())
	} else {
		prefixed := *u
		prefixed.Host = "www." + u.Host
		candidates = append(candidates, prefixed.String())
	}

	return candidates
}

// archiveSnapshot asks the availability API for any snapshot of the URL.
// Best effort: any failure just means no candidate from this source.
func (f *Finder) archiveSnapshot(ctx context.Context, rawURL string) string {
	endpoint := f.archiveEndpoint + "?url=" + url.QueryEscape(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Printf("Archive lookup failed for %s: %v", rawURL, err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var payload struct {
		ArchivedSnapshots struct {
			Closest struct {
				Available bool   `json:"available"`
				URL       string `json:"url"`
			} `json:"closest"`
		} `json:"archived_snapshots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}
	if !payload.ArchivedSnapshots.Closest.Available {
		return ""
	}
	return payload.ArchivedSnapshots.Closest.URL
}

// Hints returns manual-lookup URLs for a dead link: a search-engine
// query and a web-archive calendar page.
func Hints(rawURL string) []string {
	return []string{
		"https://www.google.com/search?q=" + url.QueryEscape(rawURL),
		"https://web.archive.org/web/*/" + rawURL,
	}
}
