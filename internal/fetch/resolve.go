// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/papers-dl/internal/mirror"
)

// DefaultMirrorTimeout bounds a single mirror landing page request. Mirrors
// slower than this are treated as degraded.
const DefaultMirrorTimeout = 5 * time.Second

// maxPageBytes caps how much of a landing page is read.
const maxPageBytes = 4 << 20

// Candidate is a URL believed to serve the PDF directly.
type Candidate struct {
	URL string
	// Mirror is the mirror whose page produced URL. It is empty when the
	// identifier was already a direct URL.
	Mirror mirror.Mirror
}

// LinkResolver looks an identifier up on one mirror and extracts the direct
// PDF link from the landing page.
type LinkResolver struct {
	Client  *http.Client
	Timeout time.Duration
}

// Lookup fetches mirror m's page for identifier and returns the candidate
// link on it. Failures are *MirrorError values: FailureTransport when the
// mirror could not be reached or answered with a server error, and
// FailureNoCandidate when the page holds no PDF link.
func (r *LinkResolver) Lookup(ctx context.Context, identifier string, m mirror.Mirror) (Candidate, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultMirrorTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pageURL := m.Lookup(identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Candidate{}, &MirrorError{Mirror: m, Kind: FailureTransport, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return Candidate{}, &MirrorError{Mirror: m, Kind: FailureTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Candidate{}, &MirrorError{Mirror: m, Kind: FailureTransport, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Candidate{}, &MirrorError{Mirror: m, Kind: FailureTransport, Err: fmt.Errorf("reading page: %w", err)}
	}

	// Relative links are resolved against the mirror, not any redirect
	// target, so candidates stay attributable to m.
	base, _ := url.Parse(pageURL)
	link, ok := ExtractLink(page, base)
	if !ok {
		return Candidate{}, &MirrorError{Mirror: m, Kind: FailureNoCandidate}
	}
	return Candidate{URL: link, Mirror: m}, nil
}
