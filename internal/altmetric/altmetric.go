// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package altmetric fetches attention metrics (Altmetric Attention Score,
// reader and mention counts) for stored articles.
package altmetric

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/pkg/types"
)

// baseURL is the Altmetric v1 API endpoint. Var for test substitution.
var baseURL = "https://api.altmetric.com/v1"

const defaultRequestDelay = time.Second

// Client wraps the Altmetric v1 API. The free tier allows one request per
// second; the limiter enforces that across callers.
type Client struct {
	http      *httputil.Client
	userAgent string
}

// New returns a Client configured from cfg.
func New(cfg types.AltmetricConfig) *Client {
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
	}
}

// Metrics returns attention metrics for an identity, preferring the DOI
// endpoint (doi arg) when a DOI is known. The second return value is false
// when Altmetric tracks nothing for the article; 404 and 403 are both
// treated as "no metrics", matching the API's behavior for untracked and
// restricted articles.
func (c *Client) Metrics(ctx context.Context, id types.ArticleIdentity, doi string) (types.AttentionMetrics, bool, error) {
	endpoint := ""
	switch {
	case id.IsDOI():
		endpoint = "/doi/" + id.Value
	case doi != "":
		endpoint = "/doi/" + doi
	default:
		endpoint = "/pmid/" + id.Value
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+endpoint, nil)
	if err != nil {
		return types.AttentionMetrics{}, false, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return types.AttentionMetrics{}, false, fmt.Errorf("Altmetric request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusForbidden:
		return types.AttentionMetrics{}, false, nil
	default:
		return types.AttentionMetrics{}, false, fmt.Errorf("Altmetric returned HTTP %d", resp.StatusCode)
	}

	var body altmetricResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.AttentionMetrics{}, false, fmt.Errorf("parsing Altmetric response: %w", err)
	}

	return types.AttentionMetrics{
		Score:        body.Score,
		ReadersCount: body.Readers.Count,
		TweetCount:   body.CitedByTweeters,
		PostCount:    body.CitedByPosts,
		NewsCount:    body.CitedByMSM,
		DetailsURL:   body.DetailsURL,
	}, true, nil
}

// Altmetric API JSON structures.

type altmetricResponse struct {
	Score           float64          `json:"score"`
	Readers         altmetricReaders `json:"readers"`
	CitedByTweeters int              `json:"cited_by_tweeters_count"`
	CitedByPosts    int              `json:"cited_by_posts_count"`
	CitedByMSM      int              `json:"cited_by_msm_count"`
	DetailsURL      string           `json:"details_url"`
}

type altmetricReaders struct {
	Count int `json:"count"`
}
