package types

import "time"

// HTTPConfig holds shared HTTP settings used by collaborators that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citegraph/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PubMedConfig holds settings for the PubMed E-utilities client.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional NCBI API key; with one, E-utilities allows ten
	// requests per second instead of three.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestDelay is the minimum interval between E-utilities calls.
	// PubMed allows three requests per second without an API key; the
	// default of 340ms stays just under that.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// OpenAlexConfig holds settings for the OpenAlex client.
type OpenAlexConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent as the mailto parameter for polite pool access
	// (ten requests per second instead of one).
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// RequestDelay is the minimum interval between OpenAlex calls.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// ScoringConfig holds settings for the relevance scoring oracle.
type ScoringConfig struct {
	// Model is the generative model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the scoring API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited calls.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the per-call timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// AltmetricConfig holds settings for the Altmetric attention-metric client.
type AltmetricConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestDelay is the minimum interval between Altmetric calls; the
	// free tier is one request per second.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// ProjectConfig holds settings for the on-disk project store.
type ProjectConfig struct {
	// Dir is the base directory containing one SQLite database per project.
	Dir string `json:"dir" yaml:"dir"`
}

// AppConfig groups all collaborator configurations.
type AppConfig struct {
	PubMed    PubMedConfig    `json:"pubmed" yaml:"pubmed"`
	OpenAlex  OpenAlexConfig  `json:"openalex" yaml:"openalex"`
	Scoring   ScoringConfig   `json:"scoring" yaml:"scoring"`
	Altmetric AltmetricConfig `json:"altmetric" yaml:"altmetric"`
	Project   ProjectConfig   `json:"project" yaml:"project"`
}
