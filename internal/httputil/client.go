// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/papers-dl/pkg/types"
)

// DefaultUserAgent mimics a desktop browser. Mirror services tend to serve
// captcha pages to clients that identify as scripts.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15"

const (
	defaultTimeout = 60 * time.Second
	maxRedirects   = 10
)

// userAgentTransport sets the User-Agent header on every outgoing request
// that does not already carry one.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

// NewClient returns an HTTP client configured from cfg. TLS certificates
// are verified unless cfg.InsecureSkipVerify is set. Redirects are followed
// up to a fixed limit. Only User-Agent and Accept follow a redirect to
// another host.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConnsPerHost = 10
	base.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify} //nolint:gosec // opt-in via config

	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: base, userAgent: ua},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects: %d", len(via))
			}
			req.Header = redirectHeader(via[0], req)
			return nil
		},
	}
}

// forwardedHeaders survive a redirect to another host.
var forwardedHeaders = []string{"User-Agent", "Accept"}

// redirectHeader returns the headers for next, a redirect of orig. A
// same-host redirect keeps every original header.
func redirectHeader(orig, next *http.Request) http.Header {
	if orig.URL.Host == next.URL.Host {
		return orig.Header.Clone()
	}
	h := next.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	for _, k := range forwardedHeaders {
		if v := orig.Header.Get(k); v != "" {
			h.Set(k, v)
		}
	}
	return h
}
