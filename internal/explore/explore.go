// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explore implements the layered citation-graph traversal: starting
// from one seed article it expands outward through citation relations,
// scores every newly discovered article against the research theme, and
// follows only the articles that clear the relevance threshold. Evaluations
// are cached by canonical identity, so re-running a search costs nothing for
// articles already scored.
// Implements: prd004-traversal (R1-R6);
//
//	docs/ARCHITECTURE.md § Frontier Driver.
package explore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/citegraph/internal/relation"
	"github.com/pdiddy/citegraph/pkg/types"
)

// MetadataProvider fetches bibliographic metadata for one identity. The
// second return value is false when the article does not exist; that is not
// an error.
type MetadataProvider interface {
	Fetch(ctx context.Context, id types.ArticleIdentity) (types.ArticleMetadata, bool, error)
}

// Expander produces the merged, deduplicated relation candidates for one
// article.
type Expander interface {
	Expand(ctx context.Context, id types.ArticleIdentity, cfg types.RunConfig) (relation.Expansion, error)
}

// Scorer judges one article's relevance to the research theme.
type Scorer interface {
	Score(ctx context.Context, theme string, meta types.ArticleMetadata) (types.Evaluation, error)
}

// Store is the persistence surface the traversal writes through. Every
// record mutation is flushed immediately; the traversal never batches.
type Store interface {
	Get(key string) (*types.ArticleRecord, bool, error)
	Put(rec *types.ArticleRecord) error
	Save() error
	SaveCheckpoint(state types.TraversalState) error
	ClearCheckpoint() error
	AddSession(id string, articleCount int) error
}

// Finder drives one search run. Collaborators are injected so the traversal
// core stays free of transport and storage concerns.
type Finder struct {
	// Catalog fetches metadata for catalog-namespace identities; DOI for
	// DOI-namespace identities.
	Catalog MetadataProvider
	DOI     MetadataProvider

	Relations Expander
	Scorer    Scorer
	Store     Store

	// Cancelled is the cooperative-cancel predicate, polled at the top of
	// each layer and between frontier members. In-flight calls complete and
	// persist before cancellation is honored, so no record is left half
	// written. Nil means never cancelled.
	Cancelled func() bool

	// Progress receives observational status messages. It has no effect on
	// control flow. Nil discards them.
	Progress func(msg string)

	// NewSessionID overrides session ID generation, for tests.
	NewSessionID func() string
}

func (f *Finder) progress(format string, args ...any) {
	if f.Progress != nil {
		f.Progress(fmt.Sprintf(format, args...))
	}
}

func (f *Finder) cancelled() bool {
	return f.Cancelled != nil && f.Cancelled()
}

func (f *Finder) sessionID() string {
	if f.NewSessionID != nil {
		return f.NewSessionID()
	}
	return uuid.NewString()
}

// Run executes one full traversal: seed evaluation, then layer-by-layer
// expansion up to cfg.MaxDepth. It returns the collected records sorted by
// relevance score descending and the run counters. A cooperative cancel
// produces a checkpoint and a partial result with Interrupted set rather
// than an error.
func (f *Finder) Run(ctx context.Context, seed types.ArticleIdentity, theme string, cfg types.RunConfig) (*types.RunResult, error) {
	if seed.IsZero() {
		return nil, fmt.Errorf("seed identity is empty")
	}
	if cfg.MaxDepth < 1 {
		return nil, fmt.Errorf("max depth must be at least 1, got %d", cfg.MaxDepth)
	}

	sessionID := f.sessionID()
	stats := types.RunStats{}
	visited := map[string]bool{}
	collected := map[string]*types.ArticleRecord{}

	f.progress("resolving seed %s", seed.Key())
	seedRec, fromCache, err := f.resolve(ctx, candidate{identity: seed}, theme, sessionID, cfg, true)
	if err != nil {
		// Best-effort checkpoint so the failed run is visible as advisory
		// state; the seed itself was never persisted.
		_ = f.Store.SaveCheckpoint(types.TraversalState{
			Frontier:  []types.ArticleIdentity{seed},
			Visited:   []string{},
			Collected: collected,
			Config:    cfg,
			SessionID: sessionID,
			SavedAt:   time.Now().UTC(),
		})
		return nil, err
	}

	visited[seed.Key()] = true
	collected[seed.Key()] = seedRec
	f.countResolution(&stats, seedRec, fromCache)

	// The seed always advances to depth-1 expansion regardless of its score.
	frontier := []types.ArticleIdentity{seed}
	f.progress("seed %q scored %d", seedRec.Title, seedRec.RelevanceScore)

	for depth := 1; depth <= cfg.MaxDepth; depth++ {
		if len(frontier) == 0 || len(collected) >= cfg.MaxArticles {
			break
		}
		if f.cancelled() {
			return f.interrupt(frontier, visited, collected, depth, cfg, sessionID, stats)
		}

		f.progress("expanding layer %d: %d articles", depth, len(frontier))
		stats.DepthReached = depth
		var next []types.ArticleIdentity

		for i, id := range frontier {
			if len(collected) >= cfg.MaxArticles {
				break
			}
			if f.cancelled() {
				return f.interrupt(frontier[i:], visited, collected, depth, cfg, sessionID, stats)
			}

			exp, err := f.Relations.Expand(ctx, id, cfg)
			if err != nil {
				// Only context cancellation aborts an expansion; oracle
				// failures arrive in exp.OracleErrors.
				return f.interrupt(frontier[i:], visited, collected, depth, cfg, sessionID, stats)
			}
			for _, msg := range exp.OracleErrors {
				f.progress("relation oracle: %s", msg)
			}

			for _, c := range exp.Candidates {
				// Between-identities granularity: an in-flight fetch or
				// score completes and persists, then cancellation is
				// honored before the next candidate.
				if f.cancelled() {
					return f.interrupt(frontier[i:], visited, collected, depth, cfg, sessionID, stats)
				}
				key := c.Identity.Key()
				if visited[key] {
					if rec, ok := collected[key]; ok && !rec.Mentions(id) {
						rec.AddMention(id)
						if err := f.Store.Put(rec); err != nil {
							return nil, err
						}
					}
					continue
				}
				visited[key] = true
				stats.TotalFound++

				rec, fromCache, err := f.resolve(ctx, candidate{
					identity: c.Identity,
					depth:    depth,
					via:      &types.Discovery{Parent: id, Kind: c.Kind},
					extraDOI: c.ExtraDOI,
				}, theme, sessionID, cfg, false)
				if err != nil {
					return nil, err
				}
				if rec == nil {
					continue
				}

				collected[key] = rec
				f.countResolution(&stats, rec, fromCache)
				if rec.IsRelevant {
					next = append(next, rec.Identity)
				}
				if len(collected) >= cfg.MaxArticles {
					f.progress("article cap reached (%d)", cfg.MaxArticles)
					break
				}
			}
		}
		frontier = next
	}

	if err := f.Store.ClearCheckpoint(); err != nil {
		return nil, err
	}
	return f.finish(collected, stats, sessionID, false)
}

func (f *Finder) finish(collected map[string]*types.ArticleRecord, stats types.RunStats, sessionID string, interrupted bool) (*types.RunResult, error) {
	if stats.SessionArticleCount > 0 {
		if err := f.Store.AddSession(sessionID, stats.SessionArticleCount); err != nil {
			return nil, err
		}
	}
	if err := f.Store.Save(); err != nil {
		return nil, err
	}

	articles := make([]*types.ArticleRecord, 0, len(collected))
	for _, rec := range collected {
		articles = append(articles, rec)
	}
	sort.Slice(articles, func(i, j int) bool {
		if articles[i].RelevanceScore != articles[j].RelevanceScore {
			return articles[i].RelevanceScore > articles[j].RelevanceScore
		}
		return articles[i].Identity.Key() < articles[j].Identity.Key()
	})

	return &types.RunResult{Articles: articles, Stats: stats, Interrupted: interrupted}, nil
}

func (f *Finder) countResolution(stats *types.RunStats, rec *types.ArticleRecord, fromCache bool) {
	if fromCache {
		stats.TotalSkipped++
	} else {
		stats.TotalEvaluated++
		stats.SessionArticleCount++
	}
	if rec.IsRelevant {
		stats.TotalRelevant++
	}
}
