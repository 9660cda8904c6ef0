// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/papers-dl/internal/fetch"
	"github.com/pdiddy/papers-dl/internal/httputil"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works/"

// openAlexResponse captures the fields we need from an OpenAlex work record.
type openAlexResponse struct {
	BestOALocation *openAlexLocation `json:"best_oa_location"`
}

// openAlexLocation represents an open-access location in the OpenAlex response.
type openAlexLocation struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
}

// OpenAlex downloads the open-access copy of a DOI when OpenAlex knows one.
type OpenAlex struct {
	Client  *http.Client
	Fetcher *fetch.Fetcher
	// Mailto is sent with every request to use the OpenAlex polite pool.
	Mailto string
}

func (o *OpenAlex) Name() string { return "openalex" }

func (o *OpenAlex) Supports(kind fetch.Kind) bool { return kind == fetch.KindDOI }

// Fetch looks the DOI up and validates the advertised PDF. A work without an
// open-access PDF is reported as not found.
func (o *OpenAlex) Fetch(ctx context.Context, doi string) (*fetch.Resource, error) {
	pdfURL, err := resolveOpenAlex(ctx, o.Client, doi, o.Mailto)
	if err != nil {
		return nil, &fetch.FetchError{Identifier: doi, Err: err}
	}
	if pdfURL == "" {
		return nil, &fetch.FetchError{Identifier: doi, Err: fmt.Errorf("%w: no open-access pdf", fetch.ErrIdentifierNotFound)}
	}
	return o.Fetcher.FetchURL(ctx, doi, pdfURL)
}

// resolveOpenAlex queries the OpenAlex API for a DOI and returns the
// open-access PDF URL if one exists. It returns an empty string when the
// paper is not available or has no open-access PDF.
func resolveOpenAlex(ctx context.Context, client *http.Client, doi, mailto string) (string, error) {
	apiURL := openAlexAPIBase + "https://doi.org/" + doi
	if mailto != "" {
		apiURL += "?mailto=" + url.QueryEscape(mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating OpenAlex request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oa openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oa); err != nil {
		return "", fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	if oa.BestOALocation == nil {
		return "", nil
	}
	return oa.BestOALocation.PDFURL, nil
}
