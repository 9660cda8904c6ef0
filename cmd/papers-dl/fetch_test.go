// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIdentifiers(t *testing.T) {
	list := "10.1000/a\n\n  # comment\n31395976  \nhttps://example.org/x.pdf\n"

	got, err := readIdentifiers("-", strings.NewReader(list))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1000/a", "31395976", "https://example.org/x.pdf"}, got)

	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte(list), 0o644))
	fromFile, err := readIdentifiers(path, nil)
	require.NoError(t, err)
	assert.Equal(t, got, fromFile)

	_, err = readIdentifiers(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}
