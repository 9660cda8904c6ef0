// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/papers-dl/internal/httputil"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so tests
// can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works/"

// Work is the subset of a CrossRef record used to name and describe a paper.
type Work struct {
	DOI     string
	Title   string
	Authors []string
	Year    int
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	DOI    string           `json:"DOI"`
	Title  []string         `json:"title"`
	Author []crossrefAuthor `json:"author"`
	Issued crossrefDate     `json:"issued"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// LookupWork retrieves the CrossRef record for doi. mailto, when set, is
// sent so requests land in CrossRef's polite pool.
func LookupWork(ctx context.Context, client *http.Client, doi, mailto string) (*Work, error) {
	apiURL := crossrefAPIBase + doi
	if mailto != "" {
		apiURL += "?mailto=" + url.QueryEscape(mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing CrossRef response: %w", err)
	}

	w := &Work{DOI: cr.Message.DOI}
	if w.DOI == "" {
		w.DOI = doi
	}
	if len(cr.Message.Title) > 0 {
		w.Title = strings.Join(strings.Fields(cr.Message.Title[0]), " ")
	}
	for _, a := range cr.Message.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			w.Authors = append(w.Authors, name)
		}
	}
	if len(cr.Message.Issued.DateParts) > 0 && len(cr.Message.Issued.DateParts[0]) > 0 {
		w.Year = cr.Message.Issued.DateParts[0][0]
	}
	return w, nil
}
