// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire runs identifiers through a chain of providers, saves the
// resulting PDFs, and records what was saved.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/papers-dl/internal/fetch"
	"github.com/pdiddy/papers-dl/internal/pdfmeta"
	"github.com/pdiddy/papers-dl/pkg/types"
)

// BatchResult holds the outcome of a batch acquisition run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Papers     []*types.Paper
}

// Total returns the total number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Recorder stores a row per saved paper. *ledger.Store implements it.
type Recorder interface {
	Record(ctx context.Context, p *types.Paper) error
}

// Acquirer saves papers fetched by its providers into OutputDir.
type Acquirer struct {
	Providers []Provider
	// Direct downloads identifiers that are already PDF URLs.
	Direct *fetch.Fetcher
	// Titles renames saved files after the paper title when set.
	Titles *pdfmeta.Resolver
	// Ledger, when set, receives a row per saved paper.
	Ledger Recorder

	OutputDir     string
	WriteMetadata bool
	DownloadDelay time.Duration

	// Out receives one progress line per identifier.
	Out io.Writer
	// Log receives diagnostics.
	Log io.Writer
}

// AcquirePaper fetches identifier from the first provider that can supply
// it and saves the PDF. name overrides the file name; empty selects the
// title (when title resolution is on) or the content hash. The skipped
// return value reports that an identical file was already on disk.
func (a *Acquirer) AcquirePaper(ctx context.Context, identifier, name string) (paper *types.Paper, skipped bool, err error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, false, errors.New("empty identifier")
	}
	kind := fetch.Classify(identifier)
	fmt.Fprintf(a.out(), "downloading: %s (%s)\n", identifier, kind)

	res, provider, err := a.fetch(ctx, identifier, kind)
	if err != nil {
		return nil, false, err
	}

	path, err := Save(res, a.OutputDir, name)
	if errors.Is(err, ErrExists) && path != "" {
		skipped = true
	} else if err != nil {
		return nil, false, fmt.Errorf("saving %s: %w", identifier, err)
	}

	p := &types.Paper{
		Identifier: identifier,
		Kind:       kind.String(),
		Provider:   provider,
		SourceURL:  res.URL,
		Mirror:     res.Mirror.String(),
		PDFPath:    path,
		Hash:       strings.TrimSuffix(res.Name, ".pdf"),
		Size:       int64(len(res.Content)),
		FetchedAt:  time.Now().UTC(),
	}
	if kind == fetch.KindDOI {
		p.DOI = identifier
	}

	if a.Titles != nil && name == "" && !skipped {
		meta := a.Titles.Resolve(ctx, res.Content, p.DOI)
		p.Title, p.Authors, p.Year = meta.Title, meta.Authors, meta.Year
		if p.DOI == "" {
			p.DOI = meta.DOI
		}
		if meta.Title != "" {
			newPath, err := RenameByTitle(path, meta.Title)
			switch {
			case errors.Is(err, ErrExists):
				skipped = true
			case err != nil:
				fmt.Fprintf(a.log(), "  warning: %v\n", err)
			}
			p.PDFPath = newPath
		}
	}

	if skipped {
		fmt.Fprintf(a.out(), "skipped: %s (already exists)\n", p.PDFPath)
		if prev, err := readMetadata(MetadataPath(p.PDFPath)); err == nil {
			return prev, true, nil
		}
		return p, true, nil
	}

	if a.WriteMetadata {
		if err := writeMetadata(p, MetadataPath(p.PDFPath)); err != nil {
			return nil, false, fmt.Errorf("writing metadata for %s: %w", identifier, err)
		}
	}
	if a.Ledger != nil {
		if err := a.Ledger.Record(ctx, p); err != nil {
			fmt.Fprintf(a.log(), "  warning: recording %s: %v\n", identifier, err)
		}
	}

	fmt.Fprintf(a.out(), "saved: %s (%s)\n", p.PDFPath, provider)
	return p, false, nil
}

// fetch tries the providers in order and returns on the first success.
// Direct PDF URLs bypass the providers.
func (a *Acquirer) fetch(ctx context.Context, identifier string, kind fetch.Kind) (*fetch.Resource, string, error) {
	if kind == fetch.KindDirectURL && a.Direct != nil {
		res, err := a.Direct.FetchURL(ctx, identifier, identifier)
		return res, "direct", err
	}

	var errs []error
	for _, p := range a.Providers {
		if !p.Supports(kind) {
			fmt.Fprintf(a.log(), "provider %s does not handle %s identifiers\n", p.Name(), kind)
			continue
		}
		res, err := p.Fetch(ctx, identifier)
		if err == nil {
			return res, p.Name(), nil
		}
		fmt.Fprintf(a.log(), "provider %s: %v\n", p.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, "", fmt.Errorf("no provider handles %s identifiers", kind)
	}
	return nil, "", errors.Join(errs...)
}

// AcquireBatch processes multiple identifiers, printing per-item status
// and returning a summary. It continues after individual failures and
// applies a delay between consecutive downloads. Cancelling ctx stops the
// batch; remaining identifiers are not counted.
func (a *Acquirer) AcquireBatch(ctx context.Context, identifiers []string) BatchResult {
	var result BatchResult
	for i, id := range identifiers {
		if i > 0 && a.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(a.DownloadDelay):
			}
		}
		if ctx.Err() != nil {
			break
		}
		paper, wasSkipped, err := a.AcquirePaper(ctx, id, "")
		if err != nil {
			fmt.Fprintf(a.out(), "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Papers = append(result.Papers, paper)
	}
	if len(identifiers) > 1 {
		fmt.Fprintf(a.out(), "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
			result.Downloaded, result.Skipped, result.Failed, result.Total())
	}
	return result
}

func (a *Acquirer) out() io.Writer { return orDiscard(a.Out) }

func (a *Acquirer) log() io.Writer { return orDiscard(a.Log) }

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
