// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfmeta finds a human readable title for a downloaded PDF. It is
// best effort: every function here degrades to an empty result rather than
// failing the download that produced the bytes.
package pdfmeta

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// doiPattern matches a DOI inside running text.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// open parses content, converting the parser's panics on malformed input
// into errors.
func open(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", p)
		}
	}()
	return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
}

// EmbeddedTitle returns the Title entry of the document information
// dictionary, or "" when there is none.
func EmbeddedTitle(content []byte) (title string, err error) {
	r, err := open(content)
	if err != nil {
		return "", err
	}
	defer func() {
		if p := recover(); p != nil {
			title, err = "", fmt.Errorf("reading info dictionary: %v", p)
		}
	}()
	return strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text()), nil
}

// PageText returns the plain text of the first maxPages pages. A
// non-positive maxPages reads every page.
func PageText(content []byte, maxPages int) (text string, err error) {
	r, err := open(content)
	if err != nil {
		return "", err
	}
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("extracting text: %v", p)
		}
	}()

	n := r.NumPage()
	if maxPages > 0 && maxPages < n {
		n = maxPages
	}
	var b strings.Builder
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(t)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// FindDOI returns the first DOI in text, without trailing punctuation.
func FindDOI(text string) string {
	m := doiPattern.FindString(text)
	return strings.TrimRight(m, ".,;)")
}

// FirstLine returns the first line of text that plausibly is a title:
// longer than 20 characters and not a journal header.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range []string{"doi", "http", "www.", "journal", "vol.", "volume", "issn", "copyright", "©", "received", "arxiv:", "microsoft word"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// unsafeChars are replaced when turning a title into a file name.
var unsafeChars = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]+`)

var spaces = regexp.MustCompile(`\s+`)

const maxNameLen = 200

// SanitizeFilename makes title safe to use as a file name stem.
func SanitizeFilename(title string) string {
	s := unsafeChars.ReplaceAllString(title, " ")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	s = strings.Trim(s, ".")
	if len(s) > maxNameLen {
		s = strings.TrimSpace(truncateRunes(s, maxNameLen))
	}
	return s
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
