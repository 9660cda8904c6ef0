// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mirror holds the set of mirror services a fetch may query and
// discovers candidate mirrors from an index page.
package mirror

import (
	"net/url"
	"strings"
)

// Mirror is the base address of a paper lookup service, for example
// "https://sci-hub.se". Mirrors are compared by address only.
type Mirror string

// Normalize trims whitespace and trailing slashes so that equivalent
// addresses compare equal.
func Normalize(addr string) Mirror {
	return Mirror(strings.TrimRight(strings.TrimSpace(addr), "/"))
}

// String returns the mirror address.
func (m Mirror) String() string { return string(m) }

// Lookup returns the landing page URL for identifier on this mirror.
func (m Mirror) Lookup(identifier string) string {
	return string(m) + "/" + identifier
}

// Origin returns the scheme and host of the mirror, used to resolve
// root-relative links found on its pages. It returns nil when the address
// does not parse as an absolute URL.
func (m Mirror) Origin() *url.URL {
	u, err := url.Parse(string(m))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}
}

// Pool is an ordered, duplicate-free set of mirrors. A Pool is owned by one
// fetch at a time; it is not safe for concurrent mutation. Callers running
// fetches in parallel should give each one its own Clone.
type Pool struct {
	mirrors []Mirror
}

// NewPool builds a pool from addrs in order, dropping blanks and duplicates.
func NewPool(addrs ...string) *Pool {
	p := &Pool{}
	seen := make(map[Mirror]bool, len(addrs))
	for _, a := range addrs {
		m := Normalize(a)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		p.mirrors = append(p.mirrors, m)
	}
	return p
}

// Mirrors returns a snapshot of the pool in preference order. Mutating the
// returned slice does not affect the pool.
func (p *Pool) Mirrors() []Mirror {
	out := make([]Mirror, len(p.mirrors))
	copy(out, p.mirrors)
	return out
}

// Len returns the number of mirrors left in the pool.
func (p *Pool) Len() int { return len(p.mirrors) }

// Empty reports whether the pool is exhausted.
func (p *Pool) Empty() bool { return len(p.mirrors) == 0 }

// Contains reports whether m is still in the pool.
func (p *Pool) Contains(m Mirror) bool {
	for _, x := range p.mirrors {
		if x == m {
			return true
		}
	}
	return false
}

// Exhaust removes the given mirrors and returns how many were actually
// removed. Mirrors not in the pool, or already removed, are ignored.
func (p *Pool) Exhaust(ms ...Mirror) int {
	if len(ms) == 0 {
		return 0
	}
	drop := make(map[Mirror]bool, len(ms))
	for _, m := range ms {
		drop[m] = true
	}
	kept := p.mirrors[:0]
	removed := 0
	for _, m := range p.mirrors {
		if drop[m] {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	p.mirrors = kept
	return removed
}

// Clone returns an independent copy of the pool.
func (p *Pool) Clone() *Pool {
	return &Pool{mirrors: p.Mirrors()}
}

// Filter returns a new pool holding only the mirrors whose address
// contains one of the given substrings. An empty substring list keeps every
// mirror.
func (p *Pool) Filter(substrings []string) *Pool {
	if len(substrings) == 0 {
		return p.Clone()
	}
	out := &Pool{}
	for _, m := range p.mirrors {
		for _, s := range substrings {
			if s != "" && strings.Contains(string(m), s) {
				out.mirrors = append(out.mirrors, m)
				break
			}
		}
	}
	return out
}
