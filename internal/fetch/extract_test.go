// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

const scriptPage = `<html><head>
<script src="/pdfobject.min.js"></script>
<script>PDFObject.embed("https://cdn.example.org/10.1000/xyz.pdf", "#viewer");</script>
</head><body><div id="viewer"></div></body></html>`

const scriptAndEmbedPage = `<html><body>
<embed type="application/pdf" id="pdf" src="https://embed.example.org/e.pdf">
<script>
  var opts = {};
  PDFObject.embed('https://script.example.org/s.pdf', '#viewer', opts);
</script>
</body></html>`

const embedPage = `<html><body>
<embed type="application/x-shockwave-flash" src="/player.swf">
<embed type="application/pdf" id="pdf" src="//moscow.sci-hub.example/1234/abcd/paper.pdf#navpanes=0">
</body></html>`

const iframePage = `<html><body>
<iframe src="/ads/banner.html"></iframe>
<iframe type="application/pdf" src="//example.com/a.pdf"></iframe>
<iframe type="application/pdf" src="//example.com/b.pdf"></iframe>
</body></html>`

const rootRelativePage = `<html><body>
<iframe type="application/pdf" src="/downloads/2020/paper.pdf"></iframe>
</body></html>`

const captchaPage = `<html><body>
<form action="/captcha"><img src="/captcha.png"><input name="answer"></form>
</body></html>`

func TestExtractLink(t *testing.T) {
	base := mustURL(t, "https://sci-hub.example/10.1000/xyz")

	tests := []struct {
		name   string
		page   string
		want   string
		wantOK bool
	}{
		{"script call", scriptPage, "https://cdn.example.org/10.1000/xyz.pdf", true},
		{"script wins over embed", scriptAndEmbedPage, "https://script.example.org/s.pdf", true},
		{"embed protocol relative", embedPage, "https://moscow.sci-hub.example/1234/abcd/paper.pdf#navpanes=0", true},
		{"first pdf iframe", iframePage, "https://example.com/a.pdf", true},
		{"root relative", rootRelativePage, "https://sci-hub.example/downloads/2020/paper.pdf", true},
		{"captcha page", captchaPage, "", false},
		{"empty document", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractLink([]byte(tt.page), base)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLinkEmbedBeforeIframe(t *testing.T) {
	page := `<iframe type="application/pdf" src="https://x.example/iframe.pdf"></iframe>
<embed type="application/pdf" src="https://x.example/embed.pdf">`
	got, ok := ExtractLink([]byte(page), mustURL(t, "https://m.example/id"))
	assert.True(t, ok)
	assert.Equal(t, "https://x.example/embed.pdf", got)
}

func TestAbsolutize(t *testing.T) {
	base := mustURL(t, "https://m.example/scidb/10.1000/xyz")
	tests := []struct {
		in, want string
	}{
		{"//cdn.example/a.pdf", "https://cdn.example/a.pdf"},
		{"/a.pdf", "https://m.example/a.pdf"},
		{"http://other.example/a.pdf", "http://other.example/a.pdf"},
		{"files/a.pdf", "https://m.example/scidb/10.1000/files/a.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, absolutize(tt.in, base), tt.in)
	}
	assert.Equal(t, "", absolutize("/a.pdf", nil))
}
