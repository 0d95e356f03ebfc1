// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RelationConfig controls one relation kind during traversal.
type RelationConfig struct {
	// Enabled controls whether this relation kind is queried at all.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// MaxPerArticle caps how many related identities are taken from this
	// kind for a single article, applied before merging across kinds.
	MaxPerArticle int `json:"max_per_article" yaml:"max_per_article"`
}

// RunConfig is the immutable per-run traversal configuration (R4.1).
type RunConfig struct {
	// MaxDepth is the deepest layer to expand, counted from the seed at
	// depth 0. Must be at least 1.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxArticles caps the total collected result set, checked after every
	// insertion.
	MaxArticles int `json:"max_articles" yaml:"max_articles"`

	// RelevanceThreshold is the score cutoff (0-100) above which an article
	// propagates to the next layer.
	RelevanceThreshold int `json:"relevance_threshold" yaml:"relevance_threshold"`

	// YearFrom, when non-zero, drops candidates published before this year.
	// Dropped candidates are not cached.
	YearFrom int `json:"year_from,omitempty" yaml:"year_from,omitempty"`

	// PubMedOnly excludes DOI-only candidates (no catalog ID) entirely,
	// independent of relevance.
	PubMedOnly bool `json:"pubmed_only" yaml:"pubmed_only"`

	// Similar, CitedBy, References configure the three relation kinds.
	Similar    RelationConfig `json:"similar" yaml:"similar"`
	CitedBy    RelationConfig `json:"cited_by" yaml:"cited_by"`
	References RelationConfig `json:"references" yaml:"references"`
}

// Relation returns the configuration for one relation kind.
func (c RunConfig) Relation(kind RelationKind) RelationConfig {
	switch kind {
	case RelationSimilar:
		return c.Similar
	case RelationCitedBy:
		return c.CitedBy
	case RelationReferences:
		return c.References
	default:
		return RelationConfig{}
	}
}

// DefaultRunConfig returns the traversal defaults used by the CLI.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		MaxDepth:           2,
		MaxArticles:        500,
		RelevanceThreshold: 60,
		Similar:            RelationConfig{Enabled: true, MaxPerArticle: 20},
		CitedBy:            RelationConfig{Enabled: true, MaxPerArticle: 20},
		References:         RelationConfig{Enabled: false, MaxPerArticle: 20},
	}
}

// RunStats accumulates traversal counters, updated once per traversal event
// (R4.6).
type RunStats struct {
	// TotalFound counts candidates newly discovered across all layers; the
	// seed itself is not counted.
	TotalFound int `json:"total_found" yaml:"total_found"`

	// TotalEvaluated counts full scoring-oracle evaluations (cache misses).
	TotalEvaluated int `json:"total_evaluated" yaml:"total_evaluated"`

	// TotalSkipped counts cache hits that avoided a scoring call.
	TotalSkipped int `json:"total_skipped" yaml:"total_skipped"`

	// TotalRelevant counts collected records whose IsRelevant is true.
	TotalRelevant int `json:"total_relevant" yaml:"total_relevant"`

	// DepthReached is the deepest layer actually processed.
	DepthReached int `json:"depth_reached" yaml:"depth_reached"`

	// SessionArticleCount counts records newly evaluated in this run; it
	// decides whether a search-session entry is registered at all.
	SessionArticleCount int `json:"session_article_count" yaml:"session_article_count"`
}

// TraversalState is the checkpoint payload written on cooperative
// cancellation mid-run. At most one TraversalState exists per project; it is
// cleared on the next successful completion (R4.5).
type TraversalState struct {
	// Frontier is the layer of identities that was being expanded.
	Frontier []ArticleIdentity `json:"frontier" yaml:"frontier"`

	// Visited holds the canonical keys of every identity seen so far.
	Visited []string `json:"visited" yaml:"visited"`

	// Collected maps canonical key to the partial result set.
	Collected map[string]*ArticleRecord `json:"collected" yaml:"collected"`

	// CurrentDepth is the layer that was interrupted.
	CurrentDepth int `json:"current_depth" yaml:"current_depth"`

	// Config is the original run configuration.
	Config RunConfig `json:"config" yaml:"config"`

	// SessionID identifies the interrupted search session.
	SessionID string `json:"session_id" yaml:"session_id"`

	// SavedAt is the checkpoint write time.
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
}

// RunResult is the structured payload returned to the presentation layer.
type RunResult struct {
	// Articles is the collected result set, sorted by relevance score
	// descending as a presentation convenience.
	Articles []*ArticleRecord `json:"articles" yaml:"articles"`

	// Stats holds the run counters.
	Stats RunStats `json:"stats" yaml:"stats"`

	// Interrupted is true when the run was cooperatively cancelled and a
	// checkpoint was written.
	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}
