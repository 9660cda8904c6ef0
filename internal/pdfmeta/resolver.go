// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfmeta

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// titlePages is how many leading pages are searched for a DOI or title line.
const titlePages = 2

// Result is what the resolver learned about a document. Fields it could
// not determine are left empty.
type Result struct {
	Title   string
	DOI     string
	Authors []string
	Year    int
	// Source names the step that produced Title: "crossref", "info", or
	// "text".
	Source string
}

// Resolver finds a title for PDF bytes. Lookups are tried in order: a DOI
// printed in the document resolved through CrossRef, the document's Info
// dictionary, then the first substantial line of text. Client may be nil to
// skip the network step.
type Resolver struct {
	Client *http.Client
	Mailto string
	Log    io.Writer
}

// Resolve never fails; an empty Result.Title means no title was found.
// knownDOI, when non-empty, is used in place of a DOI read from the text.
func (r *Resolver) Resolve(ctx context.Context, content []byte, knownDOI string) Result {
	log := r.Log
	if log == nil {
		log = io.Discard
	}

	var res Result
	text, err := PageText(content, titlePages)
	if err != nil {
		fmt.Fprintf(log, "reading pdf text: %v\n", err)
	}

	res.DOI = knownDOI
	if res.DOI == "" {
		res.DOI = FindDOI(text)
	}

	if res.DOI != "" && r.Client != nil {
		w, err := LookupWork(ctx, r.Client, res.DOI, r.Mailto)
		if err != nil {
			fmt.Fprintf(log, "title lookup for %s: %v\n", res.DOI, err)
		} else {
			res.Authors, res.Year = w.Authors, w.Year
			if w.Title != "" {
				res.Title, res.Source = w.Title, "crossref"
				return res
			}
		}
	}

	if title, err := EmbeddedTitle(content); err != nil {
		fmt.Fprintf(log, "reading pdf info: %v\n", err)
	} else if len(title) > 3 && !isHeaderLine(title) {
		res.Title, res.Source = title, "info"
		return res
	}

	if line := FirstLine(text); line != "" {
		res.Title, res.Source = line, "text"
	}
	return res
}
