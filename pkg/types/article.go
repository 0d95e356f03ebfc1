// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ArticleMetadata holds the bibliographic fields returned by a metadata
// provider lookup. All fields are optional; providers leave what they cannot
// supply empty.
type ArticleMetadata struct {
	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Authors is a formatted author list (first three, then "et al.").
	Authors string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Journal is the full journal name.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// PubYear is the publication year, or 0 if unknown.
	PubYear int `json:"pub_year,omitempty" yaml:"pub_year,omitempty"`

	// Abstract is the article abstract, possibly empty.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// DOI is a supplementary DOI reported alongside a catalog identity,
	// used to backfill records that lack one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`
}

// Evaluation is the scoring oracle's verdict for one article (R3.2).
type Evaluation struct {
	// Score is the relevance score between 0 and 100.
	Score int `json:"score" yaml:"score"`

	// Reasoning is the oracle's short justification for the score.
	Reasoning string `json:"reasoning" yaml:"reasoning"`
}

// Discovery records how an article entered the graph: the parent it was
// reached from and the relation kind of the edge. The seed has no Discovery.
type Discovery struct {
	Parent ArticleIdentity `json:"parent" yaml:"parent"`
	Kind   RelationKind    `json:"kind" yaml:"kind"`
}

// AttentionMetrics holds Altmetric attention data for one article.
type AttentionMetrics struct {
	Score        float64 `json:"score" yaml:"score"`
	ReadersCount int     `json:"readers_count" yaml:"readers_count"`
	TweetCount   int     `json:"tweet_count" yaml:"tweet_count"`
	PostCount    int     `json:"post_count" yaml:"post_count"`
	NewsCount    int     `json:"news_count" yaml:"news_count"`
	DetailsURL   string  `json:"details_url,omitempty" yaml:"details_url,omitempty"`
}

// ArticleRecord is one evaluated or cached publication. The identity is the
// primary key and is never reassigned after the first write; everything else
// may be updated in place across runs. Records are owned by the project
// store; the explorer borrows them for the duration of one run and writes
// every mutation back immediately (R3.1, R3.4).
type ArticleRecord struct {
	// Identity is the canonical identity (primary key).
	Identity ArticleIdentity `json:"identity" yaml:"identity"`

	// DOI is a supplementary DOI for catalog-identified records. Backfilled
	// when a relation or metadata lookup surfaces one; never overwritten
	// once set.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	Title    string `json:"title" yaml:"title"`
	Authors  string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal  string `json:"journal,omitempty" yaml:"journal,omitempty"`
	PubYear  int    `json:"pub_year,omitempty" yaml:"pub_year,omitempty"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// RelevanceScore is the stored oracle score, 0-100. It is written once
	// per evaluation and is not re-scored on cache hits.
	RelevanceScore int `json:"relevance_score" yaml:"relevance_score"`

	// IsRelevant is derived: RelevanceScore >= the caller's current
	// threshold. It is recomputed against the current threshold on every
	// read of a cached record, so changing the threshold retroactively
	// reclassifies historical records without re-scoring them. The stored
	// value reflects the last run's threshold only.
	IsRelevant bool `json:"is_relevant" yaml:"is_relevant"`

	// Reasoning is the scoring oracle's justification, or a failure note
	// when the oracle errored and a zero-score record was synthesized.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	// Depth is the distance from the seed article (seed = 0).
	Depth int `json:"depth" yaml:"depth"`

	// DiscoveredVia records the first discovery edge. Nil only for the seed.
	DiscoveredVia *Discovery `json:"discovered_via,omitempty" yaml:"discovered_via,omitempty"`

	// MentionedBy lists every distinct parent that has ever led to this
	// record. It grows across runs and never shrinks except on manual
	// record deletion.
	MentionedBy []ArticleIdentity `json:"mentioned_by,omitempty" yaml:"mentioned_by,omitempty"`

	// SessionIDs lists, in order, every search session that touched this
	// record.
	SessionIDs []string `json:"search_session_ids,omitempty" yaml:"search_session_ids,omitempty"`

	// NewlyEvaluated is true only when this record was scored (or a scoring
	// attempt was made) during the current run. It is transient run state,
	// not persisted history.
	NewlyEvaluated bool `json:"is_newly_evaluated" yaml:"is_newly_evaluated"`

	// EvaluatedAt is the time of the last write.
	EvaluatedAt time.Time `json:"evaluated_at" yaml:"evaluated_at"`

	// CitationCount is the inbound citation count from OpenAlex, when the
	// backfill command has run. Nil means never fetched.
	CitationCount *int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// Metrics holds Altmetric attention data, when the metrics command has
	// run. Nil means never fetched.
	Metrics *AttentionMetrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Mentions reports whether parent is already present in MentionedBy.
func (r *ArticleRecord) Mentions(parent ArticleIdentity) bool {
	for _, m := range r.MentionedBy {
		if m == parent {
			return true
		}
	}
	return false
}

// AddMention appends parent to MentionedBy if it is not already present.
func (r *ArticleRecord) AddMention(parent ArticleIdentity) {
	if parent.IsZero() || r.Mentions(parent) {
		return
	}
	r.MentionedBy = append(r.MentionedBy, parent)
}

// AddSession appends sessionID to SessionIDs if it is not already present.
func (r *ArticleRecord) AddSession(sessionID string) {
	for _, s := range r.SessionIDs {
		if s == sessionID {
			return
		}
	}
	r.SessionIDs = append(r.SessionIDs, sessionID)
}
