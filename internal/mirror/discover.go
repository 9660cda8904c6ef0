// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/papers-dl/internal/httputil"
)

// DefaultIndexURL lists live sci-hub mirrors as plain anchors.
const DefaultIndexURL = "https://sci-hub.now.sh/"

// DefaultMirrors is the fallback pool used when discovery is disabled or
// the index page is unreachable.
var DefaultMirrors = []string{
	"https://sci-hub.se",
	"https://sci-hub.st",
	"https://sci-hub.ru",
}

// mirrorPattern matches anchors pointing at a sci-hub style mirror. The
// separator between "sci" and "hub" varies between mirrors (sci-hub,
// sci.hub, scihub).
var mirrorPattern = regexp.MustCompile(`(?i)^https?://sci.?hub`)

// Discover fetches the index page at indexURL and returns the mirror
// addresses it links to, in page order and without duplicates. An anchor
// qualifies when either its href or its text looks like a mirror address.
func Discover(ctx context.Context, client *http.Client, indexURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating discovery request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("mirror index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mirror index returned HTTP %d", resp.StatusCode)
	}

	return parseIndex(indexURL, resp.Body)
}

// parseIndex walks the index document and collects mirror anchors,
// resolved against baseURL.
func parseIndex(baseURL string, r io.Reader) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse index html: %w", err)
	}

	seen := make(map[Mirror]bool)
	var out []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := strings.TrimSpace(attr(n, "href"))
			text := strings.TrimSpace(textOf(n))
			if href != "" && (mirrorPattern.MatchString(href) || mirrorPattern.MatchString(text)) {
				if u, err := url.Parse(href); err == nil {
					resolved := base.ResolveReference(u)
					if resolved.Scheme == "http" || resolved.Scheme == "https" {
						m := Normalize((&url.URL{Scheme: resolved.Scheme, Host: resolved.Host, Path: resolved.Path}).String())
						if !seen[m] {
							seen[m] = true
							out = append(out, string(m))
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Load builds the starting pool. When discover is set it asks the index at
// indexURL first; discovery failures are reported to log and the static
// list is used instead.
func Load(ctx context.Context, client *http.Client, discover bool, indexURL string, static []string, log io.Writer) *Pool {
	if log == nil {
		log = io.Discard
	}
	if len(static) == 0 {
		static = DefaultMirrors
	}
	if !discover {
		return NewPool(static...)
	}
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}

	found, err := Discover(ctx, client, indexURL)
	if err != nil {
		fmt.Fprintf(log, "mirror discovery failed, using configured mirrors: %v\n", err)
		return NewPool(static...)
	}
	if len(found) == 0 {
		fmt.Fprintf(log, "mirror discovery found nothing at %s, using configured mirrors\n", indexURL)
		return NewPool(static...)
	}
	fmt.Fprintf(log, "discovered %d mirrors\n", len(found))
	return NewPool(found...)
}
