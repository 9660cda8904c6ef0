// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/papers-dl/internal/mirror"
)

// Lookuper finds a candidate link for an identifier on one mirror.
// *LinkResolver is the production implementation.
type Lookuper interface {
	Lookup(ctx context.Context, identifier string, m mirror.Mirror) (Candidate, error)
}

// Strategy turns an identifier into one candidate link using a set of
// mirrors. It also reports the failures it observed, so callers can avoid
// querying those mirrors again. When no mirror yields a candidate the
// error is an *ExhaustedError carrying the same failures.
type Strategy interface {
	Resolve(ctx context.Context, identifier string, mirrors []mirror.Mirror) (Candidate, []*MirrorError, error)
}

// FanOut queries every mirror concurrently and keeps the first candidate.
// As soon as one lookup succeeds the rest are cancelled; Resolve does not
// return until all of them have exited.
type FanOut struct {
	Resolver Lookuper
	Log      io.Writer
}

// Resolve implements Strategy. Failures that arrive after the winner are
// not reported.
func (f *FanOut) Resolve(ctx context.Context, identifier string, mirrors []mirror.Mirror) (Candidate, []*MirrorError, error) {
	if len(mirrors) == 0 {
		return Candidate{}, nil, &ExhaustedError{}
	}
	log := logWriter(f.Log)

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		winner   *Candidate
		failures []*MirrorError
	)

	p := pool.New().WithContext(ctx).WithMaxGoroutines(len(mirrors))
	for _, m := range mirrors {
		fmt.Fprintf(log, "querying %s for %s\n", m, identifier)
		p.Go(func(ctx context.Context) error {
			c, err := f.Resolver.Lookup(ctx, identifier, m)

			mu.Lock()
			defer mu.Unlock()
			if winner != nil {
				// Lost the race; the result is discarded.
				return nil
			}
			if err != nil {
				me := asMirrorError(m, err)
				fmt.Fprintf(log, "mirror %s: %v\n", m, me)
				failures = append(failures, me)
				return nil
			}
			if c.Mirror == "" {
				c.Mirror = m
			}
			fmt.Fprintf(log, "found candidate %s on %s\n", c.URL, m)
			winner = &c
			cancel()
			return nil
		})
	}
	_ = p.Wait()

	if winner != nil {
		return *winner, failures, nil
	}
	if err := parent.Err(); err != nil {
		return Candidate{}, failures, err
	}
	return Candidate{}, failures, &ExhaustedError{Failures: failures}
}

// DefaultMaxAttempts caps the sequential strategy.
const DefaultMaxAttempts = 20

// Jitter returns the pause between two sequential mirror attempts. Tests
// replace it to avoid real sleeps.
var Jitter = func() time.Duration {
	return 100*time.Millisecond + rand.N(900*time.Millisecond)
}

// Sequential queries mirrors one at a time in pool order, pausing a random
// interval between attempts. It walks a cursor over a private copy of the
// mirror list and never mutates the caller's slice. Use it where
// concurrent requests must be kept to one.
type Sequential struct {
	Resolver    Lookuper
	MaxAttempts int
	Log         io.Writer
}

// Resolve implements Strategy.
func (s *Sequential) Resolve(ctx context.Context, identifier string, mirrors []mirror.Mirror) (Candidate, []*MirrorError, error) {
	log := logWriter(s.Log)
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	snapshot := make([]mirror.Mirror, len(mirrors))
	copy(snapshot, mirrors)

	var failures []*MirrorError
	for cursor := 0; cursor < len(snapshot) && cursor < maxAttempts; cursor++ {
		if cursor > 0 {
			select {
			case <-ctx.Done():
				return Candidate{}, failures, ctx.Err()
			case <-time.After(Jitter()):
			}
		}

		m := snapshot[cursor]
		fmt.Fprintf(log, "querying %s for %s (attempt %d)\n", m, identifier, cursor+1)
		c, err := s.Resolver.Lookup(ctx, identifier, m)
		if err == nil {
			if c.Mirror == "" {
				c.Mirror = m
			}
			fmt.Fprintf(log, "found candidate %s on %s\n", c.URL, m)
			return c, failures, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Candidate{}, failures, ctxErr
		}
		me := asMirrorError(m, err)
		fmt.Fprintf(log, "mirror %s: %v, changing mirror\n", m, me)
		failures = append(failures, me)
	}
	return Candidate{}, failures, &ExhaustedError{Failures: failures}
}

// asMirrorError normalises an error from a Lookuper into a *MirrorError.
// Errors of unknown shape count as transport failures.
func asMirrorError(m mirror.Mirror, err error) *MirrorError {
	var me *MirrorError
	if errors.As(err, &me) {
		if me.Mirror == "" {
			me.Mirror = m
		}
		return me
	}
	return &MirrorError{Mirror: m, Kind: FailureTransport, Err: err}
}

func logWriter(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
