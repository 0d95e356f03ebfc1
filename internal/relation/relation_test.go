// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citegraph/pkg/types"
)

// fakeOracle serves canned relation lists keyed by relation kind.
type fakeOracle struct {
	name    string
	ns      types.Namespace
	kinds   map[types.RelationKind][]Related
	errKind types.RelationKind
	calls   []types.RelationKind
}

func (f *fakeOracle) Name() string { return f.name }

func (f *fakeOracle) Supports(ns types.Namespace, kind types.RelationKind) bool {
	if ns != f.ns {
		return false
	}
	_, ok := f.kinds[kind]
	return ok || kind == f.errKind
}

func (f *fakeOracle) Relations(_ context.Context, _ types.ArticleIdentity, kind types.RelationKind, _ int) ([]Related, error) {
	f.calls = append(f.calls, kind)
	if kind == f.errKind {
		return nil, errors.New("oracle unavailable")
	}
	return f.kinds[kind], nil
}

func catalogRelated(ids ...string) []Related {
	var out []Related
	for _, id := range ids {
		out = append(out, Related{Identity: types.CatalogIdentity(id)})
	}
	return out
}

func allRelationsConfig(limit int) types.RunConfig {
	cfg := types.DefaultRunConfig()
	cfg.Similar = types.RelationConfig{Enabled: true, MaxPerArticle: limit}
	cfg.CitedBy = types.RelationConfig{Enabled: true, MaxPerArticle: limit}
	cfg.References = types.RelationConfig{Enabled: true, MaxPerArticle: limit}
	return cfg
}

func TestExpand_FirstSeenWinsAcrossKinds(t *testing.T) {
	// "200" appears under similar and cited_by; "300" under cited_by and
	// references. The earlier kind must win the tie.
	oracle := &fakeOracle{
		name: "fake",
		ns:   types.NamespaceCatalog,
		kinds: map[types.RelationKind][]Related{
			types.RelationSimilar:    catalogRelated("200", "201"),
			types.RelationCitedBy:    catalogRelated("200", "300"),
			types.RelationReferences: catalogRelated("300", "400"),
		},
	}
	agg := &Aggregator{Oracles: []Oracle{oracle}}

	exp, err := agg.Expand(context.Background(), types.CatalogIdentity("100"), allRelationsConfig(10))
	require.NoError(t, err)

	byKey := make(map[string]Candidate)
	for _, c := range exp.Candidates {
		byKey[c.Identity.Key()] = c
	}
	require.Len(t, exp.Candidates, 4)
	assert.Equal(t, types.RelationSimilar, byKey["catalog:200"].Kind)
	assert.Equal(t, types.RelationSimilar, byKey["catalog:201"].Kind)
	assert.Equal(t, types.RelationCitedBy, byKey["catalog:300"].Kind)
	assert.Equal(t, types.RelationReferences, byKey["catalog:400"].Kind)

	// Merge order is similar, then cited_by, then references.
	assert.Equal(t, []types.RelationKind{
		types.RelationSimilar, types.RelationCitedBy, types.RelationReferences,
	}, oracle.calls)
}

func TestExpand_CapAppliedPerKindBeforeMerge(t *testing.T) {
	oracle := &fakeOracle{
		name: "fake",
		ns:   types.NamespaceCatalog,
		kinds: map[types.RelationKind][]Related{
			types.RelationSimilar: catalogRelated("1", "2", "3", "4", "5"),
			types.RelationCitedBy: catalogRelated("6", "7", "8", "9", "10"),
		},
	}
	agg := &Aggregator{Oracles: []Oracle{oracle}}

	cfg := allRelationsConfig(2)
	cfg.References.Enabled = false
	exp, err := agg.Expand(context.Background(), types.CatalogIdentity("100"), cfg)
	require.NoError(t, err)

	require.Len(t, exp.Candidates, 4)
	assert.Equal(t, "catalog:1", exp.Candidates[0].Identity.Key())
	assert.Equal(t, "catalog:2", exp.Candidates[1].Identity.Key())
	assert.Equal(t, "catalog:6", exp.Candidates[2].Identity.Key())
	assert.Equal(t, "catalog:7", exp.Candidates[3].Identity.Key())
}

func TestExpand_SimilarSkippedForDOIIdentities(t *testing.T) {
	similar := &fakeOracle{
		name: "similarity",
		ns:   types.NamespaceCatalog,
		kinds: map[types.RelationKind][]Related{
			types.RelationSimilar: catalogRelated("1"),
		},
	}
	citation := &fakeOracle{
		name: "citation",
		ns:   types.NamespaceDOI,
		kinds: map[types.RelationKind][]Related{
			types.RelationCitedBy: catalogRelated("2"),
		},
	}
	agg := &Aggregator{Oracles: []Oracle{similar, citation}}

	exp, err := agg.Expand(context.Background(), types.DOIIdentity("10.1000/x"), allRelationsConfig(10))
	require.NoError(t, err)

	require.Len(t, exp.Candidates, 1)
	assert.Equal(t, "catalog:2", exp.Candidates[0].Identity.Key())
	assert.Empty(t, similar.calls, "similarity oracle must not be queried for DOI identities")
}

func TestExpand_PubMedOnlyExcludesDOIOnlyItems(t *testing.T) {
	oracle := &fakeOracle{
		name: "fake",
		ns:   types.NamespaceCatalog,
		kinds: map[types.RelationKind][]Related{
			types.RelationCitedBy: {
				{Identity: types.CatalogIdentity("2"), ExtraDOI: "10.1000/a"},
				{Identity: types.DOIIdentity("10.1000/b")},
				{Identity: types.CatalogIdentity("3")},
			},
		},
	}
	agg := &Aggregator{Oracles: []Oracle{oracle}}

	cfg := allRelationsConfig(10)
	cfg.Similar.Enabled = false
	cfg.References.Enabled = false
	cfg.PubMedOnly = true

	exp, err := agg.Expand(context.Background(), types.CatalogIdentity("100"), cfg)
	require.NoError(t, err)

	require.Len(t, exp.Candidates, 2)
	// An item with a catalog ID plus a supplementary DOI is not DOI-only
	// and survives the filter; the DOI carries through for backfill.
	assert.Equal(t, "catalog:2", exp.Candidates[0].Identity.Key())
	assert.Equal(t, "10.1000/a", exp.Candidates[0].ExtraDOI)
	assert.Equal(t, "catalog:3", exp.Candidates[1].Identity.Key())
}

func TestExpand_OracleFailureReportedNotFatal(t *testing.T) {
	oracle := &fakeOracle{
		name: "fake",
		ns:   types.NamespaceCatalog,
		kinds: map[types.RelationKind][]Related{
			types.RelationCitedBy: catalogRelated("2"),
		},
		errKind: types.RelationSimilar,
	}
	agg := &Aggregator{Oracles: []Oracle{oracle}}

	exp, err := agg.Expand(context.Background(), types.CatalogIdentity("100"), allRelationsConfig(10))
	require.NoError(t, err)

	require.Len(t, exp.Candidates, 1)
	require.Len(t, exp.OracleErrors, 1)
	assert.Contains(t, exp.OracleErrors[0], "fake similar")
}

func TestExpand_DisabledKindsNotQueried(t *testing.T) {
	oracle := &fakeOracle{
		name: "fake",
		ns:   types.NamespaceCatalog,
		kinds: map[types.RelationKind][]Related{
			types.RelationSimilar:    catalogRelated("1"),
			types.RelationCitedBy:    catalogRelated("2"),
			types.RelationReferences: catalogRelated("3"),
		},
	}
	agg := &Aggregator{Oracles: []Oracle{oracle}}

	cfg := allRelationsConfig(10)
	cfg.Similar.Enabled = false
	cfg.References.Enabled = false

	exp, err := agg.Expand(context.Background(), types.CatalogIdentity("100"), cfg)
	require.NoError(t, err)

	require.Len(t, exp.Candidates, 1)
	assert.Equal(t, []types.RelationKind{types.RelationCitedBy}, oracle.calls)
}
