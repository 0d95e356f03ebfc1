// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explore

import (
	"context"
	"fmt"

	"github.com/pdiddy/citegraph/pkg/types"
)

// candidate is one identity queued for evaluation: where it sits in the
// graph and the edge it was first discovered through. The seed has no
// discovery edge.
type candidate struct {
	identity types.ArticleIdentity
	depth    int
	via      *types.Discovery
	extraDOI string
}

// resolve is the evaluation cache gate. It returns the record for the
// candidate and whether it came from the cache, or (nil, false, nil) when the
// candidate was dropped (metadata not found, or filtered by year). Scoring
// failures are absorbed into a zero-score record so the run continues; only
// in strict mode (the seed's mandatory first evaluation) do they propagate,
// because no meaningful result set exists without a scored seed.
//
// The cost-avoidance contract: a cache hit never calls the scoring oracle.
// Only the derived relevance flag is recomputed against the current
// threshold, and bookkeeping fields (mentions, sessions, a missing DOI) are
// backfilled without overwriting populated ones. Per prd003-evaluation R2.
func (f *Finder) resolve(ctx context.Context, cand candidate, theme, sessionID string, cfg types.RunConfig, strict bool) (*types.ArticleRecord, bool, error) {
	key := cand.identity.Key()

	rec, ok, err := f.Store.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("reading cache for %s: %w", key, err)
	}
	if ok {
		rec.IsRelevant = rec.RelevanceScore >= cfg.RelevanceThreshold
		rec.NewlyEvaluated = false
		if rec.DOI == "" && cand.extraDOI != "" {
			rec.DOI = cand.extraDOI
		}
		if cand.via != nil {
			rec.AddMention(cand.via.Parent)
		}
		rec.AddSession(sessionID)
		if err := f.Store.Put(rec); err != nil {
			return nil, false, err
		}
		return rec, true, nil
	}

	meta, found, err := f.fetchMetadata(ctx, cand.identity)
	if err != nil {
		if strict {
			return nil, false, fmt.Errorf("fetching seed metadata: %w", err)
		}
		f.progress("skipping %s: metadata fetch failed: %v", key, err)
		return nil, false, nil
	}
	if !found {
		if strict {
			return nil, false, fmt.Errorf("seed article %s not found", key)
		}
		return nil, false, nil
	}

	// Year-filtered candidates are skipped without caching, so a later run
	// with a wider window can still evaluate them.
	if !strict && cfg.YearFrom > 0 && meta.PubYear > 0 && meta.PubYear < cfg.YearFrom {
		f.progress("skipping %s: published %d, before %d", key, meta.PubYear, cfg.YearFrom)
		return nil, false, nil
	}

	eval, scoreErr := f.Scorer.Score(ctx, theme, meta)
	if scoreErr != nil {
		if strict {
			return nil, false, fmt.Errorf("scoring seed article: %w", scoreErr)
		}
		eval = types.Evaluation{Score: 0, Reasoning: fmt.Sprintf("scoring failed: %v", scoreErr)}
	}

	rec = &types.ArticleRecord{
		Identity:       cand.identity,
		DOI:            firstNonEmpty(meta.DOI, cand.extraDOI),
		Title:          meta.Title,
		Authors:        meta.Authors,
		Journal:        meta.Journal,
		PubYear:        meta.PubYear,
		Abstract:       meta.Abstract,
		RelevanceScore: eval.Score,
		IsRelevant:     eval.Score >= cfg.RelevanceThreshold,
		Reasoning:      eval.Reasoning,
		Depth:          cand.depth,
		DiscoveredVia:  cand.via,
		SessionIDs:     []string{sessionID},
		NewlyEvaluated: true,
	}
	if cand.via != nil {
		rec.AddMention(cand.via.Parent)
	}
	if err := f.Store.Put(rec); err != nil {
		return nil, false, err
	}
	return rec, false, nil
}

func (f *Finder) fetchMetadata(ctx context.Context, id types.ArticleIdentity) (types.ArticleMetadata, bool, error) {
	if id.IsCatalog() {
		return f.Catalog.Fetch(ctx, id)
	}
	return f.DOI.Fetch(ctx, id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
