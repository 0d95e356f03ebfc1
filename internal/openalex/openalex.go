// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex is the OpenAlex collaborator: DOI-keyed metadata lookups
// and the citation oracle for references and DOI-keyed cited-by queries.
// Implements: prd002-relations (R1.2, R1.4); prd003-evaluation (R3.1);
//
//	docs/ARCHITECTURE.md § Oracle Collaborators.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/internal/relation"
	"github.com/pdiddy/citegraph/pkg/types"
)

// baseURL is the OpenAlex API endpoint. Declared as a var so tests can
// substitute an httptest server.
var baseURL = "https://api.openalex.org"

const (
	defaultRequestDelay = 100 * time.Millisecond
	referenceBatchSize  = 50
)

// Client wraps the OpenAlex works API. With an email configured it joins the
// polite pool (ten requests per second); the limiter keeps all calls under
// the configured rate globally.
type Client struct {
	http      *httputil.Client
	email     string
	userAgent string
}

// New returns a Client configured from cfg.
func New(cfg types.OpenAlexConfig) *Client {
	delay := cfg.RequestDelay
	if delay <= 0 {
		delay = defaultRequestDelay
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &httputil.Client{
			HTTP:    &http.Client{Timeout: timeout},
			Limiter: httputil.NewLimiter(delay),
		},
		email:     cfg.Email,
		userAgent: cfg.UserAgent,
	}
}

// Name returns the oracle identifier.
func (c *Client) Name() string { return "openalex" }

// Supports reports which relation queries this oracle answers: references
// for both namespaces, and cited-by for DOI identities (catalog cited-by
// goes through PubMed elink). Similarity has no OpenAlex analogue.
func (c *Client) Supports(ns types.Namespace, kind types.RelationKind) bool {
	switch kind {
	case types.RelationReferences:
		return true
	case types.RelationCitedBy:
		return ns == types.NamespaceDOI
	default:
		return false
	}
}

// Fetch returns bibliographic metadata for a DOI identity. The second
// return value is false when OpenAlex has no work for the DOI.
func (c *Client) Fetch(ctx context.Context, id types.ArticleIdentity) (types.ArticleMetadata, bool, error) {
	if !id.IsDOI() {
		return types.ArticleMetadata{}, false, fmt.Errorf("openalex: cannot fetch %s identity", id.Namespace)
	}

	work, ok, err := c.getWork(ctx, "doi:"+id.Value)
	if err != nil || !ok {
		return types.ArticleMetadata{}, ok, err
	}

	meta := types.ArticleMetadata{
		Title:    work.Title,
		Authors:  formatAuthors(work.Authorships),
		Journal:  work.PrimaryLocation.Source.DisplayName,
		PubYear:  work.PublicationYear,
		Abstract: reconstructAbstract(work.AbstractInvertedIndex),
		DOI:      trimDOIURL(work.DOI),
	}
	return meta, true, nil
}

// Relations returns related identities. References resolve through the
// work's referenced_works list with a batched ids lookup; cited-by uses the
// cites: filter. Related items carry a catalog ID with a supplementary DOI
// when OpenAlex knows both, and are DOI-only when no catalog ID exists.
func (c *Client) Relations(ctx context.Context, id types.ArticleIdentity, kind types.RelationKind, limit int) ([]relation.Related, error) {
	switch kind {
	case types.RelationReferences:
		return c.references(ctx, id, limit)
	case types.RelationCitedBy:
		return c.citedBy(ctx, id, limit)
	default:
		return nil, fmt.Errorf("openalex: unsupported relation kind %q", kind)
	}
}

func (c *Client) references(ctx context.Context, id types.ArticleIdentity, limit int) ([]relation.Related, error) {
	work, ok, err := c.getWork(ctx, workSelector(id))
	if err != nil {
		return nil, err
	}
	if !ok || len(work.ReferencedWorks) == 0 {
		return nil, nil
	}

	refs := work.ReferencedWorks
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}

	var out []relation.Related
	for start := 0; start < len(refs); start += referenceBatchSize {
		end := start + referenceBatchSize
		if end > len(refs) {
			end = len(refs)
		}

		ids := make([]string, 0, end-start)
		for _, ref := range refs[start:end] {
			ids = append(ids, lastPathSegment(ref))
		}

		params := url.Values{
			"filter":   {"openalex_id:" + strings.Join(ids, "|")},
			"select":   {"ids"},
			"per-page": {fmt.Sprintf("%d", referenceBatchSize)},
		}
		var listing worksListing
		if err := c.getJSON(ctx, "/works", params, &listing); err != nil {
			return nil, err
		}
		for _, w := range listing.Results {
			if r, ok := relatedFromIDs(w.IDs); ok {
				out = append(out, r)
			}
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Client) citedBy(ctx context.Context, id types.ArticleIdentity, limit int) ([]relation.Related, error) {
	work, ok, err := c.getWork(ctx, workSelector(id))
	if err != nil || !ok {
		return nil, err
	}
	workID := lastPathSegment(work.ID)
	if workID == "" {
		return nil, nil
	}

	perPage := limit
	if perPage <= 0 || perPage > 200 {
		perPage = 200
	}
	params := url.Values{
		"filter":   {"cites:" + workID},
		"select":   {"ids"},
		"per-page": {fmt.Sprintf("%d", perPage)},
	}
	var listing worksListing
	if err := c.getJSON(ctx, "/works", params, &listing); err != nil {
		return nil, err
	}

	var out []relation.Related
	for _, w := range listing.Results {
		if limit > 0 && len(out) >= limit {
			break
		}
		if r, ok := relatedFromIDs(w.IDs); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// CitedByCount returns the inbound citation count for an identity, used by
// the citation backfill command. The second return value is false when
// OpenAlex has no work for the identity.
func (c *Client) CitedByCount(ctx context.Context, id types.ArticleIdentity) (int, bool, error) {
	work, ok, err := c.getWork(ctx, workSelector(id))
	if err != nil || !ok {
		return 0, ok, err
	}
	return work.CitedByCount, true, nil
}

// getWork fetches a single work by selector ("doi:...", "pmid:...").
func (c *Client) getWork(ctx context.Context, selector string) (work, bool, error) {
	body, status, err := c.get(ctx, "/works/"+selector, nil)
	if err != nil {
		return work{}, false, err
	}
	if status == http.StatusNotFound {
		return work{}, false, nil
	}
	if status != http.StatusOK {
		return work{}, false, fmt.Errorf("OpenAlex returned HTTP %d", status)
	}

	var w work
	if err := json.Unmarshal(body, &w); err != nil {
		return work{}, false, fmt.Errorf("parsing work response: %w", err)
	}
	return w, true, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	if params == nil {
		params = url.Values{}
	}
	if c.email != "" {
		params.Set("mailto", c.email)
	}
	reqURL := baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("OpenAlex request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, status, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("OpenAlex returned HTTP %d", status)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return nil
}

// workSelector maps an identity to the works endpoint selector.
func workSelector(id types.ArticleIdentity) string {
	if id.IsDOI() {
		return "doi:" + id.Value
	}
	return "pmid:" + id.Value
}

// relatedFromIDs classifies a work's external IDs into a Related item:
// catalog identity with supplementary DOI when a PMID exists, DOI-only
// otherwise. Works with neither are dropped.
func relatedFromIDs(ids workIDs) (relation.Related, bool) {
	doi := trimDOIURL(ids.DOI)
	if pmid := trimPMIDURL(ids.PMID); pmid != "" {
		return relation.Related{Identity: types.CatalogIdentity(pmid), ExtraDOI: doi}, true
	}
	if doi != "" {
		return relation.Related{Identity: types.DOIIdentity(doi)}, true
	}
	return relation.Related{}, false
}

// trimDOIURL strips the https://doi.org/ prefix OpenAlex wraps DOIs in.
func trimDOIURL(s string) string {
	return strings.TrimPrefix(s, "https://doi.org/")
}

// trimPMIDURL extracts the bare PMID from a pubmed.ncbi.nlm.nih.gov URL.
func trimPMIDURL(s string) string {
	if s == "" {
		return ""
	}
	return lastPathSegment(strings.TrimRight(s, "/"))
}

// lastPathSegment returns the final path segment of a URL-shaped ID such as
// "https://openalex.org/W2741809807".
func lastPathSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func formatAuthors(authorships []authorship) string {
	var names []string
	for i, a := range authorships {
		if i == 3 {
			names = append(names, "et al.")
			break
		}
		if a.Author.DisplayName != "" {
			names = append(names, a.Author.DisplayName)
		}
	}
	return strings.Join(names, ", ")
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.

type work struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	DOI                   string           `json:"doi"`
	PublicationYear       int              `json:"publication_year"`
	Authorships           []authorship     `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	ReferencedWorks       []string         `json:"referenced_works"`
	CitedByCount          int              `json:"cited_by_count"`
	PrimaryLocation       primaryLocation  `json:"primary_location"`
	IDs                   workIDs          `json:"ids"`
}

type authorship struct {
	Author author `json:"author"`
}

type author struct {
	DisplayName string `json:"display_name"`
}

type primaryLocation struct {
	Source source `json:"source"`
}

type source struct {
	DisplayName string `json:"display_name"`
}

type workIDs struct {
	OpenAlex string `json:"openalex"`
	DOI      string `json:"doi"`
	PMID     string `json:"pmid"`
}

type worksListing struct {
	Results []work `json:"results"`
}
