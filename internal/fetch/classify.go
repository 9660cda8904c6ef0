// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"net/url"
	"strings"
)

// Kind is the semantic class of an identifier.
type Kind int

const (
	// KindDOI is the catch-all for anything that is not a URL or a PMID.
	KindDOI Kind = iota
	// KindPMID is a PubMed ID: digits only.
	KindPMID
	// KindPaywalledURL is a web URL that must be resolved through a mirror.
	KindPaywalledURL
	// KindDirectURL is a web URL that already points at a PDF.
	KindDirectURL
)

func (k Kind) String() string {
	switch k {
	case KindDirectURL:
		return "url-direct"
	case KindPaywalledURL:
		return "url-paywalled"
	case KindPMID:
		return "pmid"
	default:
		return "doi"
	}
}

// Classify returns the kind of identifier. It never fails: strings that
// match no other rule, including the empty string, are treated as DOIs.
func Classify(identifier string) Kind {
	if isWebURL(identifier) {
		if hasPDFSuffix(identifier) {
			return KindDirectURL
		}
		return KindPaywalledURL
	}
	if isDigits(identifier) {
		return KindPMID
	}
	return KindDOI
}

func isWebURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// hasPDFSuffix checks the URL path, so "paper.pdf?download=1" counts.
func hasPDFSuffix(s string) bool {
	path := s
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		path = u.Path
	}
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
