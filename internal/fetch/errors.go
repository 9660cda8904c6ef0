// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"errors"
	"fmt"

	"github.com/pdiddy/papers-dl/internal/mirror"
)

var (
	// ErrTransport marks network, TLS, and timeout failures, and mirror pages
	// answered with a server error.
	ErrTransport = errors.New("transport failure")

	// ErrNoCandidate means a mirror answered but its page held no PDF link.
	ErrNoCandidate = errors.New("no candidate on mirror")

	// ErrNotPDF means a candidate URL served something other than a PDF,
	// usually a captcha or paywall page.
	ErrNotPDF = errors.New("not a pdf")

	// ErrPoolExhausted means every mirror was tried without success.
	ErrPoolExhausted = errors.New("mirror pool exhausted")

	// ErrIdentifierNotFound is the terminal outcome when no valid PDF exists
	// for an identifier.
	ErrIdentifierNotFound = errors.New("identifier not found")
)

// FailureKind classifies why a single mirror or candidate attempt failed.
type FailureKind int

const (
	FailureTransport FailureKind = iota
	FailureNoCandidate
	FailureNotPDF
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureNoCandidate:
		return "no-candidate"
	case FailureNotPDF:
		return "not-pdf"
	default:
		return "unknown"
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case FailureNoCandidate:
		return ErrNoCandidate
	case FailureNotPDF:
		return ErrNotPDF
	default:
		return ErrTransport
	}
}

// MirrorError is the outcome of one failed attempt against one mirror (or
// against a direct URL, in which case Mirror is empty).
type MirrorError struct {
	Mirror mirror.Mirror
	Kind   FailureKind
	Err    error
}

func (e *MirrorError) Error() string {
	if e.Err == nil {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
}

// Is matches the sentinel for the failure kind.
func (e *MirrorError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *MirrorError) Unwrap() error { return e.Err }

// ExhaustedError reports that no mirror produced a candidate. Failures
// holds one entry per mirror attempted, for diagnostics.
type ExhaustedError struct {
	Failures []*MirrorError
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d mirror(s)", ErrPoolExhausted, len(e.Failures))
}

func (e *ExhaustedError) Unwrap() error { return ErrPoolExhausted }

// FetchError is the user visible failure of one fetch. Its message names
// the identifier and the reason but never the mirrors that were tried.
type FetchError struct {
	Identifier string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %q: %v", e.Identifier, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// notFound wraps cause so that it matches both ErrIdentifierNotFound and
// the underlying reason.
func notFound(cause error) error {
	return fmt.Errorf("%w: %w", ErrIdentifierNotFound, cause)
}
