// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const pdfMediaType = "application/pdf"

// pdfObjectCall matches the first quoted argument of a PDFObject.embed call,
// which SciDB style pages use to load the document from script.
var pdfObjectCall = regexp.MustCompile(`PDFObject\.embed\(\s*["']([^"']+)["']`)

// ExtractLink finds the direct PDF URL on a mirror landing page. The
// heuristics run in a fixed order and the first hit wins:
//
//  1. a script calling PDFObject.embed with a quoted URL,
//  2. an <embed> whose type is application/pdf,
//  3. the first <iframe> whose type is application/pdf.
//
// The result is made absolute against base (the page URL). It returns
// false when no heuristic matches.
func ExtractLink(page []byte, base *url.URL) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", false
	}

	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := pdfObjectCall.FindStringSubmatch(s.Text()); m != nil {
			found = m[1]
			return false
		}
		return true
	})

	if found == "" {
		found = firstPDFSource(doc, "embed")
	}
	if found == "" {
		found = firstPDFSource(doc, "iframe")
	}
	if found == "" {
		return "", false
	}

	abs := absolutize(found, base)
	return abs, abs != ""
}

// firstPDFSource returns the src of the first element with the given tag
// whose type attribute is the PDF media type.
func firstPDFSource(doc *goquery.Document, tag string) string {
	var src string
	doc.Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		typ, _ := s.Attr("type")
		if !strings.EqualFold(strings.TrimSpace(typ), pdfMediaType) {
			return true
		}
		v, ok := s.Attr("src")
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			return true
		}
		src = v
		return false
	})
	return src
}

// absolutize normalises a link found on a mirror page. Protocol-relative
// links get https, root-relative links are joined to the page origin, and
// anything else without a scheme is resolved against the page URL.
func absolutize(link string, base *url.URL) string {
	switch {
	case strings.HasPrefix(link, "//"):
		return "https:" + link
	case strings.HasPrefix(link, "/"):
		if base == nil {
			return ""
		}
		return base.Scheme + "://" + base.Host + link
	}

	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return link
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
