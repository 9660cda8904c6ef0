// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/papers-dl/internal/fetch"
	"github.com/pdiddy/papers-dl/internal/pdfmeta"
	"github.com/pdiddy/papers-dl/pkg/types"
)

const metadataDir = "metadata"

// ErrExists reports that the destination file is already present.
var ErrExists = errors.New("file already exists")

// Save writes res.Content into dir under name, or under res.Name when name
// is empty, and returns the path. The file appears atomically: content is
// written to a temporary file that is renamed into place. If the
// destination already holds identical content the path is returned with
// ErrExists; a different file at the destination is never overwritten.
func Save(res *fetch.Resource, dir, name string) (string, error) {
	if name == "" {
		name = res.Name
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	destPath := filepath.Join(dir, name)

	if _, err := os.Stat(destPath); err == nil {
		if sameContent(destPath, res.Content) {
			return destPath, ErrExists
		}
		return "", fmt.Errorf("%s: %w with different content", destPath, ErrExists)
	}

	tmpFile, err := os.CreateTemp(dir, ".papers-dl-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(res.Content)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}

// RenameByTitle moves the file at path to a name derived from title in the
// same directory. The original path is returned, without error, when the
// title yields no usable name. An existing file at the new name is left
// alone: if it holds the same bytes the duplicate at path is removed and
// the existing path is returned with ErrExists.
func RenameByTitle(path, title string) (string, error) {
	stem := pdfmeta.SanitizeFilename(title)
	if stem == "" {
		return path, nil
	}
	newPath := filepath.Join(filepath.Dir(path), stem+".pdf")
	if newPath == path {
		return path, nil
	}

	if _, err := os.Stat(newPath); err == nil {
		content, err := os.ReadFile(path)
		if err == nil && sameContent(newPath, content) {
			os.Remove(path)
			return newPath, ErrExists
		}
		return path, nil
	}

	if err := os.Rename(path, newPath); err != nil {
		return path, fmt.Errorf("renaming %s: %w", path, err)
	}
	return newPath, nil
}

func sameContent(path string, content []byte) bool {
	existing, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Equal(existing, content)
}

// MetadataPath returns the sidecar path for a saved PDF.
func MetadataPath(pdfPath string) string {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return filepath.Join(filepath.Dir(pdfPath), metadataDir, base+".yaml")
}

// writeMetadata writes a Paper record to a YAML file.
func writeMetadata(paper *types.Paper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	data, err := yaml.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// readMetadata reads a Paper record from a YAML file.
func readMetadata(path string) (*types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var paper types.Paper
	if err := yaml.Unmarshal(data, &paper); err != nil {
		return nil, err
	}
	return &paper, nil
}
