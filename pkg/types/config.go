package types

import "time"

// HTTPConfig holds the transport settings shared by every network call.
type HTTPConfig struct {
	// Timeout bounds a whole request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. Empty
	// selects a desktop browser string.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// InsecureSkipVerify disables TLS certificate verification. Off by default.
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Strategy selects how mirrors are queried for a direct link.
type Strategy string

const (
	// StrategyConcurrent queries every mirror at once; first success wins.
	StrategyConcurrent Strategy = "concurrent"
	// StrategySequential queries one mirror at a time with jittered pauses.
	StrategySequential Strategy = "sequential"
)

// FetchConfig holds settings for resolving an identifier through mirrors.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MirrorTimeout bounds each mirror landing page request (default 5s).
	MirrorTimeout time.Duration `json:"mirror_timeout" yaml:"mirror_timeout"`

	// Strategy is "concurrent" (default) or "sequential".
	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// MaxAttempts caps the number of mirrors tried by the sequential
	// strategy (default 20).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// MaxBytes caps the size of a downloaded document (default 256 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`

	// Mirrors is the static mirror list used when discovery is disabled or
	// finds nothing.
	Mirrors []string `json:"mirrors" yaml:"mirrors"`

	// Discover enables scraping DiscoveryURL for live mirrors.
	Discover bool `json:"discover" yaml:"discover"`

	// DiscoveryURL is the mirror index page.
	DiscoveryURL string `json:"discovery_url" yaml:"discovery_url"`

	// SciDBURL is the base address of the SciDB lookup service.
	SciDBURL string `json:"scidb_url" yaml:"scidb_url"`
}

// AcquisitionConfig holds settings for saving fetched papers.
type AcquisitionConfig struct {
	FetchConfig `yaml:",inline"`

	// OutputDir receives the downloaded PDFs.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Providers is "auto" or a comma separated list of provider names and
	// mirror address fragments.
	Providers string `json:"providers" yaml:"providers"`

	// WriteMetadata writes a YAML record next to each PDF under metadata/.
	WriteMetadata bool `json:"write_metadata" yaml:"write_metadata"`

	// ResolveTitle renames saved files after the paper title when one can
	// be found.
	ResolveTitle bool `json:"resolve_title" yaml:"resolve_title"`

	// LedgerPath is the SQLite download history. Empty disables it.
	LedgerPath string `json:"ledger_path,omitempty" yaml:"ledger_path,omitempty"`

	// ContactEmail is passed to OpenAlex as mailto for the polite pool.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`

	// DownloadDelay is the pause between consecutive identifiers in a batch.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`
}
