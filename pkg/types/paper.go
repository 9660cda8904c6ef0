// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper records where a fetched PDF came from and where it was saved.
// It is written as the YAML metadata sidecar and as a ledger row.
type Paper struct {
	// Identifier is the DOI, PMID, or URL the user asked for.
	Identifier string `json:"identifier" yaml:"identifier"`

	// Kind is the classified identifier kind (e.g. "doi", "pmid").
	Kind string `json:"kind" yaml:"kind"`

	// Provider names the provider that produced the PDF (e.g. "scihub").
	Provider string `json:"provider" yaml:"provider"`

	// SourceURL is the direct PDF URL that was downloaded.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Mirror is the mirror whose page yielded SourceURL, if any.
	Mirror string `json:"mirror,omitempty" yaml:"mirror,omitempty"`

	// PDFPath is the local path of the saved PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// Hash is the content hash the file was first saved under.
	Hash string `json:"hash" yaml:"hash"`

	// Title is the resolved title, empty when none was found.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// DOI is the DOI of the paper when known, either given or read from the
	// document.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Authors and Year come from CrossRef when a title lookup succeeded.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`

	// Size is the PDF size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// FetchedAt is when the download completed.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}
