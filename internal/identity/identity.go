// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity normalizes raw article identifiers into canonical
// ArticleIdentity values.
// Implements: prd001-identity (R1-R2);
//
//	docs/ARCHITECTURE.md § Identity Resolution.
package identity

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/citegraph/pkg/types"
)

// ErrInvalidIdentifier is returned when the input cannot be resolved to
// either namespace. It is fatal to a run.
var ErrInvalidIdentifier = errors.New("invalid article identifier")

// numericPattern matches a bare catalog ID such as "31243158".
var numericPattern = regexp.MustCompile(`^\d+$`)

// urlPathIDPattern extracts the first numeric path segment from a catalog
// URL such as "https://pubmed.ncbi.nlm.nih.gov/31243158/".
var urlPathIDPattern = regexp.MustCompile(`/(\d+)/?`)

// Resolve normalizes a raw input (free text, URL, catalog ID, or DOI) into a
// canonical ArticleIdentity. It is deterministic and side-effect free.
//
// Classification rules, in order:
//   - purely numeric → catalog ID
//   - http(s) URL with a numeric path segment or id= query parameter →
//     catalog ID; a doi.org URL → DOI
//   - anything else non-empty is taken as a DOI literal, trimmed but not
//     otherwise validated. The "10." prefix convention is the load-bearing
//     business rule here: all real DOIs start with "10.", and relation
//     oracles rely on it to tell supplementary DOIs from catalog IDs.
//
// Resolve fails only on empty or unparseable input (R1.3).
func Resolve(raw string) (types.ArticleIdentity, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return types.ArticleIdentity{}, fmt.Errorf("%w: empty input", ErrInvalidIdentifier)
	}

	if numericPattern.MatchString(trimmed) {
		return types.CatalogIdentity(trimmed), nil
	}

	if u, err := url.Parse(trimmed); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if u.Host == "doi.org" || u.Host == "dx.doi.org" {
			doi := strings.TrimPrefix(u.Path, "/")
			if doi == "" {
				return types.ArticleIdentity{}, fmt.Errorf("%w: doi.org URL without a DOI path: %q", ErrInvalidIdentifier, raw)
			}
			return types.DOIIdentity(doi), nil
		}
		if m := urlPathIDPattern.FindStringSubmatch(u.Path); m != nil {
			return types.CatalogIdentity(m[1]), nil
		}
		if id := u.Query().Get("id"); id != "" && numericPattern.MatchString(id) {
			return types.CatalogIdentity(id), nil
		}
		return types.ArticleIdentity{}, fmt.Errorf("%w: URL contains no numeric identifier: %q", ErrInvalidIdentifier, raw)
	}

	return types.DOIIdentity(trimmed), nil
}

// LooksLikeDOI reports whether s follows the DOI "10." prefix convention.
// Relation oracles use this to classify related identifiers that arrive as
// bare strings.
func LooksLikeDOI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "10.")
}
