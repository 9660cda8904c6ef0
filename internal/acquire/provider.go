// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/papers-dl/internal/fetch"
	"github.com/pdiddy/papers-dl/internal/mirror"
	"github.com/pdiddy/papers-dl/pkg/types"
)

// DefaultSciDBURL is the SciDB lookup page; a DOI is appended to it.
const DefaultSciDBURL = "https://annas-archive.org/scidb/"

// Provider fetches a PDF for an identifier from one kind of source.
type Provider interface {
	Name() string
	// Supports reports whether the provider can handle identifiers of kind.
	Supports(kind fetch.Kind) bool
	Fetch(ctx context.Context, identifier string) (*fetch.Resource, error)
}

// SciHub resolves identifiers through a pool of interchangeable mirrors.
// The pool is shared across fetches so degraded mirrors stay pruned.
type SciHub struct {
	Fetcher *fetch.Fetcher
	Pool    *mirror.Pool
}

func (s *SciHub) Name() string { return "scihub" }

func (s *SciHub) Supports(fetch.Kind) bool { return true }

func (s *SciHub) Fetch(ctx context.Context, identifier string) (*fetch.Resource, error) {
	return s.Fetcher.Fetch(ctx, identifier, s.Pool)
}

// SciDB looks DOIs up on a single SciDB page, which embeds the PDF the same
// way a sci-hub mirror does.
type SciDB struct {
	Fetcher *fetch.Fetcher
	BaseURL string
}

func (s *SciDB) Name() string { return "scidb" }

func (s *SciDB) Supports(kind fetch.Kind) bool { return kind == fetch.KindDOI }

func (s *SciDB) Fetch(ctx context.Context, identifier string) (*fetch.Resource, error) {
	base := s.BaseURL
	if base == "" {
		base = DefaultSciDBURL
	}
	return s.Fetcher.Fetch(ctx, identifier, mirror.NewPool(base))
}

// ProviderSet is the provider chain together with the mirror pool the
// sci-hub provider draws from.
type ProviderSet struct {
	Providers []Provider
	Pool      *mirror.Pool
}

// SelectProviders builds the provider chain from list, comma separated
// names. "auto" (or an empty list) selects scihub then scidb. Known names are
// scihub (alias sci-hub), scidb, and openalex. Any other entry is matched as
// a substring against the mirror addresses in pool and restricts the
// sci-hub provider to those mirrors.
func SelectProviders(list string, client *http.Client, cfg types.AcquisitionConfig, pool *mirror.Pool, log io.Writer) (*ProviderSet, error) {
	f := fetch.New(client, cfg.FetchConfig, log)
	scihub := func(p *mirror.Pool) Provider { return &SciHub{Fetcher: f, Pool: p} }
	scidb := &SciDB{Fetcher: f, BaseURL: cfg.SciDBURL}
	openalex := &OpenAlex{Client: client, Fetcher: f, Mailto: cfg.ContactEmail}

	list = strings.TrimSpace(list)
	if list == "" || list == "auto" {
		return &ProviderSet{Providers: []Provider{scihub(pool), scidb}, Pool: pool}, nil
	}

	var (
		providers  []Provider
		fragments  []string
		wantScihub bool
	)
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "":
		case "scihub", "sci-hub":
			wantScihub = true
		case "scidb":
			providers = append(providers, scidb)
		case "openalex":
			providers = append(providers, openalex)
		default:
			fragments = append(fragments, name)
		}
	}

	if len(fragments) > 0 {
		restricted := pool.Filter(fragments)
		if restricted.Empty() {
			if !wantScihub && len(providers) == 0 {
				return nil, fmt.Errorf("no provider or mirror matches %q", list)
			}
		} else {
			pool = restricted
			wantScihub = true
		}
	}
	if wantScihub {
		providers = append([]Provider{scihub(pool)}, providers...)
	}
	return &ProviderSet{Providers: providers, Pool: pool}, nil
}
