// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = `Prior work (doi:10.1038/nature12373) was extended in
https://doi.org/10.1145/3290605.3300233. See also 10.1002/andp.19053220607,
and PMID: 31395976. The handbook is ISBN 978-0-306-40615-7; the older
edition is ISBN-10: 0-306-40615-2. Citing 10.1038/nature12373 again.
Phone 555-123-4567 is not an ISBN.`

func TestFindIdentifiers(t *testing.T) {
	tests := []struct {
		kind string
		want []string
	}{
		{KindDOI, []string{"10.1038/nature12373", "10.1145/3290605.3300233", "10.1002/andp.19053220607"}},
		{KindISBN, []string{"978-0-306-40615-7", "0-306-40615-2"}},
		{KindPMID, []string{"31395976"}},
		{KindURL, []string{"https://doi.org/10.1145/3290605.3300233"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := FindIdentifiers(sampleText, []string{tt.kind})
			require.NoError(t, err)
			var ids []string
			for _, m := range got {
				assert.Equal(t, tt.kind, m.Kind)
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFindIdentifiersAllKinds(t *testing.T) {
	got, err := FindIdentifiers(sampleText, nil)
	require.NoError(t, err)
	assert.Len(t, got, 7)
	assert.Equal(t, KindDOI, got[0].Kind)
	assert.Equal(t, KindURL, got[len(got)-1].Kind)
}

func TestFindIdentifiersUnknownKind(t *testing.T) {
	_, err := FindIdentifiers("x", []string{"arxiv"})
	assert.Error(t, err)
}

func TestISBNChecksum(t *testing.T) {
	assert.True(t, validISBN13("9780306406157"))
	assert.False(t, validISBN13("9780306406158"))
	assert.True(t, validISBN10("0306406152"))
	assert.True(t, validISBN10("080442957X"))
	assert.False(t, validISBN10("0306406153"))
	assert.False(t, validISBN10("X306406152"))
}

func TestTrimTrailing(t *testing.T) {
	tests := map[string]string{
		"10.1000/abc.":         "10.1000/abc",
		"10.1000/abc),":        "10.1000/abc",
		"10.1000/a(b)c":        "10.1000/a(b)c",
		"10.1016/0(87)90001-x": "10.1016/0(87)90001-x",
		"https://x.org/y';":    "https://x.org/y",
	}
	for in, want := range tests {
		assert.Equal(t, want, trimTrailing(in), in)
	}
}

func TestWrite(t *testing.T) {
	matches := []Match{
		{ID: "10.1000/xyz", Kind: KindDOI},
		{ID: "31395976", Kind: KindPMID},
	}
	tests := []struct {
		format string
		want   string
	}{
		{FormatRaw, "10.1000/xyz\n31395976\n"},
		{"", "10.1000/xyz\n31395976\n"},
		{FormatJSONL, `{"id":"10.1000/xyz","type":"doi"}` + "\n" + `{"id":"31395976","type":"pmid"}` + "\n"},
		{FormatCSV, "doi,10.1000/xyz\npmid,31395976\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, matches, tt.format))
		assert.Equal(t, tt.want, buf.String(), tt.format)
	}

	assert.Error(t, Write(&bytes.Buffer{}, matches, "xml"))
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleText), 0o644))

	text, err := ReadSource(path)
	require.NoError(t, err)
	assert.Equal(t, sampleText, text)

	bad := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("%PDF-1.4\nnot really"), 0o644))
	_, err = ReadSource(bad)
	assert.Error(t, err)

	_, err = ReadSource(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
