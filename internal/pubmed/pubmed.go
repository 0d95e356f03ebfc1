// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed is the PubMed E-utilities collaborator: catalog-keyed
// metadata lookups (esummary + efetch) and the similarity / cited-by
// relation oracle (elink).
// Implements: prd002-relations (R1.2, R1.3); prd003-evaluation (R3.1);
//
//	docs/ARCHITECTURE.md § Oracle Collaborators.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/internal/relation"
	"github.com/pdiddy/citegraph/pkg/types"
)

// baseURL is the E-utilities endpoint. Declared as a var so tests can
// substitute an httptest server.
var baseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// linknames maps relation kinds to E-utilities link names.
var linknames = map[types.RelationKind]string{
	types.RelationSimilar: "pubmed_pubmed",
	types.RelationCitedBy: "pubmed_pubmed_citedin",
}

// yearPattern extracts the year from a pubdate string like "2019 Jun 27".
var yearPattern = regexp.MustCompile(`\d{4}`)

const defaultRequestDelay = 340 * time.Millisecond

// Client wraps the E-utilities API with a shared rate limiter. PubMed allows
// three requests per second without an API key; the limiter keeps all calls
// (metadata and relations) under that globally.
type Client struct {
	http      *httputil.Client
	userAgent string
	apiKey    string
}

// New returns a Client configured from cfg.
func New(cfg types.PubMedConfig) *Client {
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
		userAgent: cfg.UserAgent,
		apiKey:    cfg.APIKey,
	}
}

// Name returns the oracle identifier.
func (c *Client) Name() string { return "pubmed" }

// Supports reports which relation queries this oracle answers: similarity
// and cited-by for catalog identities. References and all DOI-keyed queries
// go through OpenAlex.
func (c *Client) Supports(ns types.Namespace, kind types.RelationKind) bool {
	if ns != types.NamespaceCatalog {
		return false
	}
	_, ok := linknames[kind]
	return ok
}

// Fetch returns bibliographic metadata for a catalog identity. The abstract
// requires a second call (efetch XML); esummary does not carry it. The
// second return value is false when the catalog has no entry for the ID.
func (c *Client) Fetch(ctx context.Context, id types.ArticleIdentity) (types.ArticleMetadata, bool, error) {
	if !id.IsCatalog() {
		return types.ArticleMetadata{}, false, fmt.Errorf("pubmed: cannot fetch %s identity", id.Namespace)
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {id.Value},
		"retmode": {"json"},
	}
	var summary esummaryResponse
	if err := c.getJSON(ctx, "esummary.fcgi", params, &summary); err != nil {
		return types.ArticleMetadata{}, false, err
	}

	doc, ok := summary.Result[id.Value]
	if !ok || doc.Title == "" && len(doc.Authors) == 0 {
		return types.ArticleMetadata{}, false, nil
	}

	meta := types.ArticleMetadata{
		Title:   doc.Title,
		Authors: formatAuthors(doc.Authors),
		Journal: doc.FullJournalName,
		PubYear: extractYear(doc.PubDate),
		DOI:     doc.doi(),
	}

	abstract, err := c.fetchAbstract(ctx, id.Value)
	if err != nil {
		// A missing abstract degrades scoring quality but is not fatal;
		// the oracle evaluates on title alone.
		abstract = ""
	}
	meta.Abstract = abstract

	return meta, true, nil
}

// fetchAbstract retrieves the abstract via efetch, which returns XML; the
// JSON esummary endpoint omits abstracts.
func (c *Client) fetchAbstract(ctx context.Context, pmid string) (string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"retmode": {"xml"},
	}
	body, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return "", err
	}

	var fetched efetchResponse
	if err := xml.Unmarshal(body, &fetched); err != nil {
		return "", fmt.Errorf("parsing efetch XML: %w", err)
	}

	var parts []string
	for _, a := range fetched.Articles {
		for _, text := range a.AbstractTexts {
			if t := strings.TrimSpace(text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}

// Relations returns related catalog identities via elink. Elink carries no
// DOIs, so all items are catalog-only.
func (c *Client) Relations(ctx context.Context, id types.ArticleIdentity, kind types.RelationKind, limit int) ([]relation.Related, error) {
	linkname, ok := linknames[kind]
	if !ok {
		return nil, fmt.Errorf("pubmed: unsupported relation kind %q", kind)
	}

	params := url.Values{
		"dbfrom":   {"pubmed"},
		"id":       {id.Value},
		"linkname": {linkname},
		"retmode":  {"json"},
	}
	var linked elinkResponse
	if err := c.getJSON(ctx, "elink.fcgi", params, &linked); err != nil {
		return nil, err
	}

	var out []relation.Related
	for _, set := range linked.LinkSets {
		for _, db := range set.LinkSetDBs {
			if db.LinkName != linkname {
				continue
			}
			for _, link := range db.Links {
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
				out = append(out, relation.Related{
					Identity: types.CatalogIdentity(string(link)),
				})
			}
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	reqURL := baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("E-utilities request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing %s response: %w", endpoint, err)
	}
	return nil
}

// formatAuthors joins the first three author names, appending "et al." when
// more follow.
func formatAuthors(authors []esummaryAuthor) string {
	var names []string
	for i, a := range authors {
		if i == 3 {
			names = append(names, "et al.")
			break
		}
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

func extractYear(pubdate string) int {
	m := yearPattern.FindString(pubdate)
	if m == "" {
		return 0
	}
	var year int
	fmt.Sscanf(m, "%d", &year)
	return year
}

// E-utilities JSON structures.

type esummaryResponse struct {
	Result map[string]esummaryDoc `json:"result"`
}

type esummaryDoc struct {
	Title           string              `json:"title"`
	FullJournalName string              `json:"fulljournalname"`
	PubDate         string              `json:"pubdate"`
	Authors         []esummaryAuthor    `json:"authors"`
	ArticleIDs      []esummaryArticleID `json:"articleids"`
}

// doi returns the DOI from the articleids list, if present.
func (d esummaryDoc) doi() string {
	for _, aid := range d.ArticleIDs {
		if aid.IDType == "doi" {
			return strings.TrimSpace(aid.Value)
		}
	}
	return ""
}

type esummaryAuthor struct {
	Name string `json:"name"`
}

type esummaryArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

type elinkResponse struct {
	LinkSets []elinkLinkSet `json:"linksets"`
}

type elinkLinkSet struct {
	LinkSetDBs []elinkLinkSetDB `json:"linksetdbs"`
}

type elinkLinkSetDB struct {
	LinkName string       `json:"linkname"`
	Links    []flexibleID `json:"links"`
}

// flexibleID tolerates the elink endpoint returning link IDs either as JSON
// numbers or as strings, which varies across E-utilities versions.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("link ID is neither string nor number: %s", data)
	}
	*f = flexibleID(n.String())
	return nil
}

// efetch XML structures.

type efetchResponse struct {
	Articles []efetchArticle `xml:"PubmedArticle"`
}

type efetchArticle struct {
	AbstractTexts []string `xml:"MedlineCitation>Article>Abstract>AbstractText"`
}
