// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identity

import (
	"errors"
	"testing"

	"github.com/pdiddy/citegraph/pkg/types"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantNS  types.Namespace
		wantVal string
		wantErr bool
	}{
		// Bare catalog IDs.
		{"bare numeric", "31243158", types.NamespaceCatalog, "31243158", false},
		{"numeric with whitespace", "  31243158  ", types.NamespaceCatalog, "31243158", false},
		{"single digit", "7", types.NamespaceCatalog, "7", false},

		// Catalog URLs.
		{"pubmed URL", "https://pubmed.ncbi.nlm.nih.gov/31243158/", types.NamespaceCatalog, "31243158", false},
		{"pubmed URL no trailing slash", "https://pubmed.ncbi.nlm.nih.gov/31243158", types.NamespaceCatalog, "31243158", false},
		{"http scheme", "http://pubmed.ncbi.nlm.nih.gov/12345/", types.NamespaceCatalog, "12345", false},
		{"id query parameter", "https://www.ncbi.nlm.nih.gov/entrez?id=98765", types.NamespaceCatalog, "98765", false},

		// DOI literals: the "10." prefix rule.
		{"bare DOI", "10.1038/nature12373", types.NamespaceDOI, "10.1038/nature12373", false},
		{"DOI with whitespace", " 10.1145/3292500.3330919 ", types.NamespaceDOI, "10.1145/3292500.3330919", false},
		{"doi.org URL", "https://doi.org/10.1038/nature12373", types.NamespaceDOI, "10.1038/nature12373", false},
		{"dx.doi.org URL", "https://dx.doi.org/10.1000/xyz", types.NamespaceDOI, "10.1000/xyz", false},

		// Non-numeric free text falls through to the DOI namespace.
		{"free text treated as DOI literal", "some-legacy-identifier", types.NamespaceDOI, "some-legacy-identifier", false},

		// Failures.
		{"empty", "", types.Namespace(""), "", true},
		{"whitespace only", "   ", types.Namespace(""), "", true},
		{"URL without numeric segment", "https://example.com/about", types.Namespace(""), "", true},
		{"doi.org URL without path", "https://doi.org/", types.Namespace(""), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Resolve(%q) = %v, want error", tt.input, got)
				}
				if !errors.Is(err, ErrInvalidIdentifier) {
					t.Errorf("Resolve(%q) error = %v, want ErrInvalidIdentifier", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.input, err)
			}
			if got.Namespace != tt.wantNS || got.Value != tt.wantVal {
				t.Errorf("Resolve(%q) = %v, want %s:%s", tt.input, got, tt.wantNS, tt.wantVal)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	a, err := Resolve("https://pubmed.ncbi.nlm.nih.gov/31243158/")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Resolve("31243158")
	if err != nil {
		t.Fatal(err)
	}
	if a.Key() != b.Key() {
		t.Errorf("URL and bare-ID forms resolve to different keys: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() != "catalog:31243158" {
		t.Errorf("Key() = %q, want catalog:31243158", a.Key())
	}
}

func TestLooksLikeDOI(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"10.1038/nature12373", true},
		{" 10.1000/x", true},
		{"31243158", false},
		{"100.1/x", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := LooksLikeDOI(tt.input); got != tt.want {
			t.Errorf("LooksLikeDOI(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
