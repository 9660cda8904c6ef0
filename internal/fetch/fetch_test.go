// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/papers-dl/internal/mirror"
	"github.com/pdiddy/papers-dl/pkg/types"
)

const fakePDF = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"

// newPDFServer serves fakePDF under /pdf/, an HTML captcha page under
// /captcha/ (200) and /blocked/ (403), and an HTML error page under
// /missing/ (404).
func newPDFServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/pdf/"):
			w.Header().Set("Content-Type", "application/pdf")
			io.WriteString(w, fakePDF)
		case strings.HasPrefix(r.URL.Path, "/captcha/"):
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, captchaPage)
		case strings.HasPrefix(r.URL.Path, "/blocked/"):
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, captchaPage)
		case strings.HasPrefix(r.URL.Path, "/missing/"):
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "<html><body>no such paper</body></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

// newMirror serves a landing page that embeds link in an iframe, after
// an optional delay.
func newMirror(t *testing.T, delay time.Duration, link string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		if link == "" {
			fmt.Fprint(w, "<html><body>article not found</body></html>")
			return
		}
		fmt.Fprintf(w, `<html><body><iframe type="application/pdf" src="%s"></iframe></body></html>`, link)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testFetchConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig:    types.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "papers-dl-test/0.1"},
		MirrorTimeout: 5 * time.Second,
	}
}

func TestFetchFastestMirrorWinsAndOthersAreCancelled(t *testing.T) {
	pdfs := newPDFServer(t)

	cancelled := make(chan string, 2)
	hanging := func(name string) *httptest.Server {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
				cancelled <- name
			case <-time.After(30 * time.Second):
			}
		}))
		t.Cleanup(ts.Close)
		return ts
	}
	m1 := hanging("m1")
	m2 := newMirror(t, 0, pdfs.URL+"/pdf/paper", nil)
	m3 := hanging("m3")

	f := New(http.DefaultClient, testFetchConfig(), nil)
	pool := mirror.NewPool(m1.URL, m2.URL, m3.URL)

	start := time.Now()
	res, err := f.Fetch(context.Background(), "10.1000/xyz", pool)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "must not wait for hanging mirrors")

	assert.Equal(t, mirror.Mirror(m2.URL), res.Mirror)
	assert.Equal(t, pdfs.URL+"/pdf/paper", res.URL)
	assert.Equal(t, []byte(fakePDF), res.Content)
	assert.Equal(t, "10.1000/xyz", res.Identifier)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case name := <-cancelled:
			seen[name] = true
		case <-time.After(3 * time.Second):
			t.Fatalf("hanging mirror requests were not cancelled, saw %v", seen)
		}
	}
	assert.True(t, seen["m1"] && seen["m3"])
	assert.Equal(t, 3, pool.Len(), "cancelled mirrors stay in the pool")
}

func TestFetchDirectURLRejectsHTML(t *testing.T) {
	pdfs := newPDFServer(t)
	f := New(pdfs.Client(), testFetchConfig(), nil)

	res, err := f.Fetch(context.Background(), pdfs.URL+"/captcha/paper.pdf", mirror.NewPool("https://unused.example"))
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentifierNotFound)
	assert.ErrorIs(t, err, ErrNotPDF)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, pdfs.URL+"/captcha/paper.pdf", fe.Identifier)
}

func TestFetchDirectURLSuccess(t *testing.T) {
	pdfs := newPDFServer(t)
	f := New(pdfs.Client(), testFetchConfig(), nil)

	res, err := f.Fetch(context.Background(), pdfs.URL+"/pdf/paper.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.Equal(t, ContentName([]byte(fakePDF)), res.Name)
	assert.Empty(t, res.Mirror)
}

func TestFetchDirectURLErrorPage(t *testing.T) {
	pdfs := newPDFServer(t)
	f := New(pdfs.Client(), testFetchConfig(), nil)

	_, err := f.Fetch(context.Background(), pdfs.URL+"/missing/paper.pdf", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentifierNotFound)
	assert.ErrorIs(t, err, ErrNotPDF)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestFetchDirectURLTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	f := New(http.DefaultClient, testFetchConfig(), nil)
	_, err := f.Fetch(context.Background(), addr+"/paper.pdf", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrIdentifierNotFound)
}

func TestFetchRetriesAfterCaptcha(t *testing.T) {
	pdfs := newPDFServer(t)
	var captchaHits, goodHits atomic.Int32
	captcha := newMirror(t, 0, pdfs.URL+"/captcha/x", &captchaHits)
	good := newMirror(t, 200*time.Millisecond, pdfs.URL+"/pdf/x", &goodHits)

	var log bytes.Buffer
	f := New(http.DefaultClient, testFetchConfig(), &log)
	pool := mirror.NewPool(captcha.URL, good.URL)

	res, err := f.Fetch(context.Background(), "31395976", pool)
	require.NoError(t, err)
	assert.Equal(t, mirror.Mirror(good.URL), res.Mirror)
	assert.Equal(t, int32(1), captchaHits.Load(), "rejected mirror is not queried again")
	assert.Contains(t, log.String(), "rejected")
}

func TestFetchKeepsMirrorServingCaptchaWithErrorStatus(t *testing.T) {
	pdfs := newPDFServer(t)
	var blockedHits atomic.Int32
	blocked := newMirror(t, 0, pdfs.URL+"/blocked/x", &blockedHits)
	good := newMirror(t, 200*time.Millisecond, pdfs.URL+"/pdf/x", nil)

	f := New(http.DefaultClient, testFetchConfig(), nil)
	pool := mirror.NewPool(blocked.URL, good.URL)

	res, err := f.Fetch(context.Background(), "10.1000/x", pool)
	require.NoError(t, err)
	assert.Equal(t, mirror.Mirror(good.URL), res.Mirror)
	assert.Equal(t, int32(1), blockedHits.Load())
	assert.Equal(t, 2, pool.Len(), "a captcha does not degrade the mirror")
}

func TestFetchPrunesWinnerWithUnreachableLink(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	pdfs := newPDFServer(t)
	broken := newMirror(t, 0, deadURL+"/x.pdf", nil)
	good := newMirror(t, 200*time.Millisecond, pdfs.URL+"/pdf/x", nil)

	f := New(http.DefaultClient, testFetchConfig(), nil)
	pool := mirror.NewPool(broken.URL, good.URL)

	res, err := f.Fetch(context.Background(), "10.1000/x", pool)
	require.NoError(t, err)
	assert.Equal(t, mirror.Mirror(good.URL), res.Mirror)
	assert.Equal(t, []mirror.Mirror{mirror.Mirror(good.URL)}, pool.Mirrors())
}

func TestFetchExhausted(t *testing.T) {
	a := newMirror(t, 0, "", nil)
	b := newMirror(t, 0, "", nil)

	f := New(http.DefaultClient, testFetchConfig(), nil)
	pool := mirror.NewPool(a.URL, b.URL)

	_, err := f.Fetch(context.Background(), "10.1000/missing", pool)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentifierNotFound)
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.Contains(t, err.Error(), "10.1000/missing")
	assert.NotContains(t, err.Error(), a.URL)
	assert.NotContains(t, err.Error(), b.URL)
	assert.Equal(t, 2, pool.Len(), "healthy mirrors are kept")
}

func TestFetchPrunesDegradedMirrors(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer broken.Close()
	empty := newMirror(t, 0, "", nil)

	f := New(http.DefaultClient, testFetchConfig(), nil)
	pool := mirror.NewPool(broken.URL, empty.URL)

	_, err := f.Fetch(context.Background(), "10.1000/x", pool)
	require.ErrorIs(t, err, ErrPoolExhausted)
	assert.Equal(t, []mirror.Mirror{mirror.Mirror(empty.URL)}, pool.Mirrors())

	f.PruneDegraded = false
	pool = mirror.NewPool(broken.URL, empty.URL)
	_, err = f.Fetch(context.Background(), "10.1000/x", pool)
	require.Error(t, err)
	assert.Equal(t, 2, pool.Len())
}

func TestFetchEmptyPool(t *testing.T) {
	f := New(http.DefaultClient, testFetchConfig(), nil)
	_, err := f.Fetch(context.Background(), "10.1000/x", mirror.NewPool())
	assert.ErrorIs(t, err, ErrIdentifierNotFound)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestFetchIsDeterministic(t *testing.T) {
	pdfs := newPDFServer(t)
	m := newMirror(t, 0, pdfs.URL+"/pdf/x", nil)

	f := New(http.DefaultClient, testFetchConfig(), nil)
	base := mirror.NewPool(m.URL)

	first, err := f.Fetch(context.Background(), "10.1000/x", base.Clone())
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), "10.1000/x", base.Clone())
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.Name, second.Name)
}

func TestFetchSequentialStrategy(t *testing.T) {
	pdfs := newPDFServer(t)
	empty := newMirror(t, 0, "", nil)
	good := newMirror(t, 0, pdfs.URL+"/pdf/x", nil)

	cfg := testFetchConfig()
	cfg.Strategy = types.StrategySequential
	f := New(http.DefaultClient, cfg, nil)
	_, ok := f.Strategy.(*Sequential)
	require.True(t, ok)

	res, err := f.Fetch(context.Background(), "10.1000/x", mirror.NewPool(empty.URL, good.URL))
	require.NoError(t, err)
	assert.Equal(t, mirror.Mirror(good.URL), res.Mirror)
}

func TestValidatorRejectsNonPDF(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html></html>")
		case "/params":
			w.Header().Set("Content-Type", "application/pdf; charset=binary")
			io.WriteString(w, fakePDF)
		case "/pdf-404":
			w.Header().Set("Content-Type", "application/pdf")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, fakePDF)
		case "/big":
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, strings.Repeat("x", 100))
		default:
			http.Error(w, "gone", http.StatusGone)
		}
	}))
	defer ts.Close()

	v := &Validator{Client: ts.Client(), MaxBytes: 64}

	_, err := v.Fetch(context.Background(), Candidate{URL: ts.URL + "/html"})
	assert.ErrorIs(t, err, ErrNotPDF)

	res, err := v.Fetch(context.Background(), Candidate{URL: ts.URL + "/params"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)

	_, err = v.Fetch(context.Background(), Candidate{URL: ts.URL + "/big"})
	assert.ErrorIs(t, err, ErrTransport)

	_, err = v.Fetch(context.Background(), Candidate{URL: ts.URL + "/pdf-404"})
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = v.Fetch(context.Background(), Candidate{URL: ts.URL + "/missing"})
	assert.ErrorIs(t, err, ErrNotPDF)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestContentName(t *testing.T) {
	// md5("") is a well known constant.
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e.pdf", ContentName(nil))
	assert.Equal(t, ContentName([]byte("a")), ContentName([]byte("a")))
	assert.NotEqual(t, ContentName([]byte("a")), ContentName([]byte("b")))
}
