// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse finds paper identifiers in free text and PDF files.
package parse

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/papers-dl/internal/pdfmeta"
)

// Identifier kinds understood by FindIdentifiers.
const (
	KindDOI  = "doi"
	KindISBN = "isbn"
	KindPMID = "pmid"
	KindURL  = "url"
)

// Kinds lists every supported kind in output order.
var Kinds = []string{KindDOI, KindISBN, KindPMID, KindURL}

// Match is one identifier found in text.
type Match struct {
	ID   string `json:"id"`
	Kind string `json:"type"`
}

var (
	doiPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)10\.\d{4,9}/[-._;()/:A-Z0-9]+`),
		regexp.MustCompile(`10\.1002/[^\s"<>]+`),
	}
	isbn13Pattern = regexp.MustCompile(`(?i)\b(?:ISBN(?:-13)?:?\s?)?(97[89][-\s]?(?:\d[-\s]?){9}\d)\b`)
	isbn10Pattern = regexp.MustCompile(`(?i)\b(?:ISBN(?:-10)?:?\s?)?((?:\d[-\s]?){9}[\dX])\b`)
	pmidPattern   = regexp.MustCompile(`(?i)\bPMID:?\s*(\d{1,8})\b`)
	urlPattern    = regexp.MustCompile(`https?://[^\s<>"'\x60]+`)
)

// FindIdentifiers returns the identifiers of the requested kinds in text,
// grouped by kind in the order given and in order of appearance within a
// kind. Duplicates are reported once. An empty kinds list selects all
// kinds.
func FindIdentifiers(text string, kinds []string) ([]Match, error) {
	if len(kinds) == 0 {
		kinds = Kinds
	}
	var matches []Match
	for _, kind := range kinds {
		var ids []string
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case KindDOI:
			ids = findDOIs(text)
		case KindISBN:
			ids = findISBNs(text)
		case KindPMID:
			for _, m := range pmidPattern.FindAllStringSubmatch(text, -1) {
				ids = append(ids, m[1])
			}
		case KindURL:
			for _, m := range urlPattern.FindAllString(text, -1) {
				ids = append(ids, trimTrailing(m))
			}
		default:
			return nil, fmt.Errorf("unknown identifier type %q", kind)
		}
		for _, id := range dedupe(ids) {
			matches = append(matches, Match{ID: id, Kind: strings.ToLower(strings.TrimSpace(kind))})
		}
	}
	return matches, nil
}

func findDOIs(text string) []string {
	var ids []string
	for _, re := range doiPatterns {
		for _, m := range re.FindAllString(text, -1) {
			ids = append(ids, trimTrailing(m))
		}
	}
	return ids
}

// findISBNs matches ISBN-13 first and skips ISBN-10 candidates that
// overlap one. Candidates must carry the right number of digits and a
// valid check digit.
func findISBNs(text string) []string {
	var (
		ids   []string
		spans [][]int
	)
	for _, loc := range isbn13Pattern.FindAllStringSubmatchIndex(text, -1) {
		isbn := text[loc[2]:loc[3]]
		if validISBN13(digits(isbn)) {
			ids = append(ids, strings.TrimSpace(isbn))
			spans = append(spans, loc[:2])
		}
	}
	for _, loc := range isbn10Pattern.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(spans, loc[0], loc[1]) {
			continue
		}
		isbn := text[loc[2]:loc[3]]
		if validISBN10(digits(isbn)) {
			ids = append(ids, strings.TrimSpace(isbn))
		}
	}
	return ids
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validISBN13(d string) bool {
	if len(d) != 13 {
		return false
	}
	sum := 0
	for i, r := range d {
		if r == 'X' {
			return false
		}
		n := int(r - '0')
		if i%2 == 1 {
			n *= 3
		}
		sum += n
	}
	return sum%10 == 0
}

func validISBN10(d string) bool {
	if len(d) != 10 {
		return false
	}
	sum := 0
	for i, r := range d {
		n := int(r - '0')
		if r == 'X' {
			if i != 9 {
				return false
			}
			n = 10
		}
		sum += n * (10 - i)
	}
	return sum%11 == 0
}

func overlaps(spans [][]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// trimTrailing drops sentence punctuation picked up at the end of a match.
// A closing parenthesis is kept when the match also opens one.
func trimTrailing(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		switch {
		case strings.IndexByte(".,;:'\"]", last) >= 0:
			s = s[:len(s)-1]
		case last == ')' && strings.Count(s, "(") < strings.Count(s, ")"):
			s = s[:len(s)-1]
		default:
			return s
		}
	}
	return s
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ReadSource returns the text of the file at path. PDF files are converted
// to plain text; anything else is read as is.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		text, err := pdfmeta.PageText(data, 0)
		if err != nil {
			return "", fmt.Errorf("extracting text from %s: %w", path, err)
		}
		return text, nil
	}
	return string(data), nil
}

// Output formats accepted by Write.
const (
	FormatRaw   = "raw"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

// Write prints matches in format: raw (one identifier per line), jsonl
// ({"id":...,"type":...} per line), or csv (type,id rows).
func Write(w io.Writer, matches []Match, format string) error {
	switch format {
	case "", FormatRaw:
		for _, m := range matches {
			if _, err := fmt.Fprintln(w, m.ID); err != nil {
				return err
			}
		}
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, m := range matches {
			if err := enc.Encode(m); err != nil {
				return fmt.Errorf("encoding match: %w", err)
			}
		}
	case FormatCSV:
		cw := csv.NewWriter(w)
		for _, m := range matches {
			if err := cw.Write([]string{m.Kind, m.ID}); err != nil {
				return fmt.Errorf("writing csv: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}
