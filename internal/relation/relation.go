// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relation queries the citation-relation oracles and merges their
// results into a single deduplicated candidate list.
// Implements: prd002-relations (R1-R4);
//
//	docs/ARCHITECTURE.md § Relation Aggregation.
package relation

import (
	"context"
	"fmt"

	"github.com/pdiddy/citegraph/pkg/types"
)

// Related is one item returned by a relation oracle. It may carry only a
// catalog ID, only a DOI, or a catalog ID plus a supplementary DOI used to
// backfill records missing one. An item is DOI-only iff its identity is in
// the DOI namespace.
type Related struct {
	Identity types.ArticleIdentity
	ExtraDOI string
}

// Oracle answers relation queries for the namespaces and kinds it supports.
// Each oracle (PubMed elink, OpenAlex) implements this interface per the
// Strategy pattern (R1.2). Oracles enforce their own rate limits.
type Oracle interface {
	Name() string
	Supports(ns types.Namespace, kind types.RelationKind) bool
	Relations(ctx context.Context, id types.ArticleIdentity, kind types.RelationKind, limit int) ([]Related, error)
}

// Candidate is one deduplicated expansion candidate tagged with the relation
// kind it was first seen through.
type Candidate struct {
	Identity types.ArticleIdentity
	Kind     types.RelationKind
	ExtraDOI string
}

// Expansion holds the merged candidates for one article plus any oracle
// failures, which are reported but never abort the expansion.
type Expansion struct {
	Candidates   []Candidate
	OracleErrors []string
}

// Aggregator fans relation queries out to the configured oracles.
type Aggregator struct {
	Oracles []Oracle
}

// Expand queries each enabled relation kind in the fixed merge order
// (similar, cited_by, references), caps each kind at MaxPerArticle before
// merging, and deduplicates by canonical key keeping the first occurrence —
// so similarity wins ties over citation-derived kinds, and cited_by wins
// over references (R2.4). Similarity is always skipped for DOI identities;
// it has no DOI-based analogue (R2.2). With cfg.PubMedOnly set, DOI-only
// items are excluded entirely, independent of relevance (R2.5).
func (a *Aggregator) Expand(ctx context.Context, id types.ArticleIdentity, cfg types.RunConfig) (Expansion, error) {
	var exp Expansion
	seen := make(map[string]bool)

	for _, kind := range types.RelationKinds() {
		rc := cfg.Relation(kind)
		if !rc.Enabled {
			continue
		}
		if kind == types.RelationSimilar && id.IsDOI() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return exp, err
		}

		oracle := a.oracleFor(id.Namespace, kind)
		if oracle == nil {
			continue
		}

		related, err := oracle.Relations(ctx, id, kind, rc.MaxPerArticle)
		if err != nil {
			exp.OracleErrors = append(exp.OracleErrors,
				fmt.Sprintf("%s %s: %v", oracle.Name(), kind, err))
			continue
		}
		if rc.MaxPerArticle > 0 && len(related) > rc.MaxPerArticle {
			related = related[:rc.MaxPerArticle]
		}

		for _, r := range related {
			if r.Identity.IsZero() {
				continue
			}
			if cfg.PubMedOnly && r.Identity.IsDOI() {
				continue
			}
			key := r.Identity.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			exp.Candidates = append(exp.Candidates, Candidate{
				Identity: r.Identity,
				Kind:     kind,
				ExtraDOI: r.ExtraDOI,
			})
		}
	}

	return exp, nil
}

// oracleFor returns the first oracle supporting the namespace and kind, or
// nil when none does.
func (a *Aggregator) oracleFor(ns types.Namespace, kind types.RelationKind) Oracle {
	for _, o := range a.Oracles {
		if o.Supports(ns, kind) {
			return o
		}
	}
	return nil
}
