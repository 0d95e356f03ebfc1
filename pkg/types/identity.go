// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citegraph explorer.
// Implements: prd001-identity (ArticleIdentity, R1.1-R1.3);
//
//	prd002-relations (RelationKind, R2.1);
//	prd003-evaluation (ArticleRecord, Evaluation, R3.1-R3.4);
//	prd004-traversal (RunConfig, RunStats, TraversalState, R4.1-R4.6).
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

import "fmt"

// Namespace identifies which identifier scheme an ArticleIdentity uses.
type Namespace string

const (
	// NamespaceCatalog is the numeric catalog identifier scheme (a PubMed ID).
	NamespaceCatalog Namespace = "catalog"

	// NamespaceDOI is the DOI identifier scheme.
	NamespaceDOI Namespace = "doi"
)

// ArticleIdentity is the canonical reference to one publication: exactly one
// namespace with its value. Identities are immutable once constructed; build
// them with CatalogIdentity or DOIIdentity rather than struct literals.
type ArticleIdentity struct {
	// Namespace is the identifier scheme: catalog or doi.
	Namespace Namespace `json:"namespace" yaml:"namespace"`

	// Value is the identifier within the namespace: a numeric catalog ID
	// such as "31243158", or a bare DOI such as "10.1038/nature12373".
	Value string `json:"value" yaml:"value"`
}

// CatalogIdentity returns an identity in the numeric catalog namespace.
func CatalogIdentity(id string) ArticleIdentity {
	return ArticleIdentity{Namespace: NamespaceCatalog, Value: id}
}

// DOIIdentity returns an identity in the DOI namespace.
func DOIIdentity(doi string) ArticleIdentity {
	return ArticleIdentity{Namespace: NamespaceDOI, Value: doi}
}

// Key returns the stable composite key used for deduplication and as the
// primary key in the project store: "catalog:<id>" or "doi:<doi>".
func (a ArticleIdentity) Key() string {
	return string(a.Namespace) + ":" + a.Value
}

// IsZero reports whether the identity is unpopulated.
func (a ArticleIdentity) IsZero() bool {
	return a.Namespace == "" && a.Value == ""
}

// IsCatalog reports whether the identity is in the catalog namespace.
func (a ArticleIdentity) IsCatalog() bool { return a.Namespace == NamespaceCatalog }

// IsDOI reports whether the identity is in the DOI namespace.
func (a ArticleIdentity) IsDOI() bool { return a.Namespace == NamespaceDOI }

func (a ArticleIdentity) String() string {
	return a.Key()
}

// ParseKey reverses Key: it splits a composite key back into an identity.
func ParseKey(key string) (ArticleIdentity, error) {
	for _, ns := range []Namespace{NamespaceCatalog, NamespaceDOI} {
		prefix := string(ns) + ":"
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			return ArticleIdentity{Namespace: ns, Value: key[len(prefix):]}, nil
		}
	}
	return ArticleIdentity{}, fmt.Errorf("malformed identity key %q", key)
}

// RelationKind labels the citation-graph edge along which an article was
// discovered (R2.1).
type RelationKind string

const (
	RelationSimilar    RelationKind = "similar"
	RelationCitedBy    RelationKind = "cited_by"
	RelationReferences RelationKind = "references"
)

// relationMergeOrder is the fixed order in which relation kinds are queried
// and merged; earlier kinds win first-seen deduplication ties (R2.4).
var relationMergeOrder = []RelationKind{RelationSimilar, RelationCitedBy, RelationReferences}

// RelationKinds returns the relation kinds in merge order.
func RelationKinds() []RelationKind {
	kinds := make([]RelationKind, len(relationMergeOrder))
	copy(kinds, relationMergeOrder)
	return kinds
}
