// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/pdiddy/papers-dl/internal/mirror"
)

// DefaultMaxBytes caps a downloaded document.
const DefaultMaxBytes = 256 << 20

// Resource is a downloaded document confirmed to be a PDF. Ownership of
// Content passes to the caller.
type Resource struct {
	Identifier  string
	URL         string
	Mirror      mirror.Mirror
	ContentType string
	Content     []byte
	// Name is derived from the content hash and used when no better name
	// is supplied.
	Name string
}

// ContentName returns the deterministic file name for content: the hex MD5
// digest followed by ".pdf".
func ContentName(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:]) + ".pdf"
}

// Validator downloads candidate URLs and accepts only PDF responses.
type Validator struct {
	Client   *http.Client
	MaxBytes int64
}

// Fetch downloads c.URL. It fails with FailureTransport when the request
// or the body read fails, and with FailureNotPDF for any response that is
// not a 2xx application/pdf, error pages and captchas included.
func (v *Validator) Fetch(ctx context.Context, c Candidate) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, &MirrorError{Mirror: c.Mirror, Kind: FailureTransport, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", pdfMediaType)

	resp, err := v.Client.Do(req)
	if err != nil {
		return nil, &MirrorError{Mirror: c.Mirror, Kind: FailureTransport, Err: err}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !isPDFMediaType(contentType) {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &MirrorError{Mirror: c.Mirror, Kind: FailureNotPDF, Err: fmt.Errorf("HTTP %d, content type %q", resp.StatusCode, contentType)}
	}
	// An error status is not a document even when labelled as one.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &MirrorError{Mirror: c.Mirror, Kind: FailureNotPDF, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	limit := v.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &MirrorError{Mirror: c.Mirror, Kind: FailureTransport, Err: fmt.Errorf("reading body: %w", err)}
	}
	if int64(len(content)) > limit {
		return nil, &MirrorError{Mirror: c.Mirror, Kind: FailureTransport, Err: fmt.Errorf("document exceeds %d bytes", limit)}
	}

	return &Resource{
		URL:         c.URL,
		Mirror:      c.Mirror,
		ContentType: pdfMediaType,
		Content:     content,
		Name:        ContentName(content),
	}, nil
}

// isPDFMediaType compares the media type, ignoring parameters such as
// charset.
func isPDFMediaType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mt, pdfMediaType)
}
