// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch resolves a paper identifier (DOI, PMID, or URL) to a PDF by
// querying interchangeable mirror services, and downloads it once a valid
// PDF is found.
//
// A fetch moves through Classify, then either a direct download or mirror
// resolution, then validation. A candidate that fails validation sends the
// fetch back to resolution over the mirrors not yet tried.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/papers-dl/internal/mirror"
	"github.com/pdiddy/papers-dl/pkg/types"
)

// Fetcher composes classification, mirror resolution, and validation.
type Fetcher struct {
	Strategy  Strategy
	Validator *Validator

	// PruneDegraded removes mirrors that failed at the transport level from
	// the pool passed to Fetch, so a reused pool skips them next time.
	PruneDegraded bool

	// Log receives diagnostic lines, including mirror addresses.
	Log io.Writer
}

// New builds a Fetcher from cfg using client for every request.
func New(client *http.Client, cfg types.FetchConfig, log io.Writer) *Fetcher {
	log = logWriter(log)
	resolver := &LinkResolver{Client: client, Timeout: cfg.MirrorTimeout}

	var strategy Strategy
	switch cfg.Strategy {
	case types.StrategySequential:
		strategy = &Sequential{Resolver: resolver, MaxAttempts: cfg.MaxAttempts, Log: log}
	default:
		strategy = &FanOut{Resolver: resolver, Log: log}
	}

	return &Fetcher{
		Strategy:      strategy,
		Validator:     &Validator{Client: client, MaxBytes: cfg.MaxBytes},
		PruneDegraded: true,
		Log:           log,
	}
}

// Fetch returns the PDF for identifier. Direct PDF URLs are downloaded and
// validated without touching the pool. Every other identifier is resolved
// through the mirrors in pool.
//
// Failures are *FetchError values. A direct URL that cannot be reached
// matches ErrTransport. Everything else that yields no PDF matches
// ErrIdentifierNotFound, together with ErrNotPDF or ErrPoolExhausted.
func (f *Fetcher) Fetch(ctx context.Context, identifier string, pool *mirror.Pool) (*Resource, error) {
	kind := Classify(identifier)
	fmt.Fprintf(f.log(), "looking for %s (%s)\n", identifier, kind)

	if kind == KindDirectURL {
		return f.FetchURL(ctx, identifier, identifier)
	}
	if pool == nil {
		pool = mirror.NewPool()
	}

	tried := make(map[mirror.Mirror]bool)
	var failures []*MirrorError

	for {
		untried := untriedMirrors(pool, tried)
		if len(untried) == 0 {
			return nil, &FetchError{Identifier: identifier, Err: notFound(&ExhaustedError{Failures: failures})}
		}

		c, failed, err := f.Strategy.Resolve(ctx, identifier, untried)
		for _, me := range failed {
			tried[me.Mirror] = true
		}
		failures = append(failures, failed...)
		f.prune(pool, failed)

		if err != nil {
			if errors.Is(err, ErrPoolExhausted) {
				return nil, &FetchError{Identifier: identifier, Err: notFound(&ExhaustedError{Failures: failures})}
			}
			return nil, &FetchError{Identifier: identifier, Err: err}
		}

		fmt.Fprintf(f.log(), "found potential source at %s\n", c.URL)
		res, err := f.Validator.Fetch(ctx, c)
		if err == nil {
			res.Identifier = identifier
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &FetchError{Identifier: identifier, Err: ctxErr}
		}

		me := asMirrorError(c.Mirror, err)
		fmt.Fprintf(f.log(), "candidate %s from %s rejected: %v\n", c.URL, c.Mirror, me)
		tried[c.Mirror] = true
		failures = append(failures, me)
		f.prune(pool, []*MirrorError{me})
	}
}

// FetchURL downloads rawURL as a direct candidate and validates it.
// identifier is recorded on the result.
func (f *Fetcher) FetchURL(ctx context.Context, identifier, rawURL string) (*Resource, error) {
	res, err := f.Validator.Fetch(ctx, Candidate{URL: rawURL})
	if err != nil {
		fmt.Fprintf(f.log(), "direct download of %s failed: %v\n", rawURL, err)
		if errors.Is(err, ErrNotPDF) {
			return nil, &FetchError{Identifier: identifier, Err: notFound(err)}
		}
		return nil, &FetchError{Identifier: identifier, Err: err}
	}
	res.Identifier = identifier
	return res, nil
}

// prune drops mirrors that failed at the transport level from pool.
func (f *Fetcher) prune(pool *mirror.Pool, failed []*MirrorError) {
	if !f.PruneDegraded {
		return
	}
	var degraded []mirror.Mirror
	for _, me := range failed {
		if me.Kind == FailureTransport {
			degraded = append(degraded, me.Mirror)
		}
	}
	if n := pool.Exhaust(degraded...); n > 0 {
		fmt.Fprintf(f.log(), "removed %d degraded mirror(s), %d left\n", n, pool.Len())
	}
}

func (f *Fetcher) log() io.Writer { return logWriter(f.Log) }

func untriedMirrors(pool *mirror.Pool, tried map[mirror.Mirror]bool) []mirror.Mirror {
	var out []mirror.Mirror
	for _, m := range pool.Mirrors() {
		if !tried[m] {
			out = append(out, m)
		}
	}
	return out
}
