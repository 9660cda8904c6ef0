// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// maxProbes bounds concurrent health checks.
const maxProbes = 8

// Health is the result of probing one mirror.
type Health struct {
	Mirror  Mirror
	Status  int
	Latency time.Duration
	Err     error
}

// Up reports whether the mirror answered with a non-5xx status.
func (h Health) Up() bool {
	return h.Err == nil && h.Status > 0 && h.Status < 500
}

// Probe requests the front page of every mirror in p concurrently, each
// bounded by timeout, and returns one Health per mirror in pool order.
func Probe(ctx context.Context, client *http.Client, p *Pool, timeout time.Duration) []Health {
	mirrors := p.Mirrors()
	results := make([]Health, len(mirrors))

	wp := pool.New().WithContext(ctx).WithMaxGoroutines(maxProbes)
	for i, m := range mirrors {
		wp.Go(func(ctx context.Context) error {
			results[i] = probeOne(ctx, client, m, timeout)
			return nil
		})
	}
	_ = wp.Wait()
	return results
}

func probeOne(ctx context.Context, client *http.Client, m Mirror, timeout time.Duration) Health {
	h := Health{Mirror: m}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.String()+"/", nil)
	if err != nil {
		h.Err = fmt.Errorf("creating request: %w", err)
		return h
	}

	start := time.Now()
	resp, err := client.Do(req)
	h.Latency = time.Since(start)
	if err != nil {
		h.Err = err
		return h
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	h.Status = resp.StatusCode
	return h
}
