// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package altmetric

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citegraph/pkg/types"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := baseURL
	baseURL = ts.URL
	t.Cleanup(func() { baseURL = old })

	return New(types.AltmetricConfig{RequestDelay: 1})
}

func TestMetrics_PrefersDOIEndpoint(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/doi/10.1038/nature12373", r.URL.Path)
		fmt.Fprint(w, `{
		  "score": 120.5,
		  "readers": {"count": 340},
		  "cited_by_tweeters_count": 88,
		  "cited_by_posts_count": 12,
		  "cited_by_msm_count": 5,
		  "details_url": "https://www.altmetric.com/details/1"
		}`)
	}))

	// Catalog identity with a known supplementary DOI uses the DOI endpoint.
	m, ok, err := c.Metrics(context.Background(), types.CatalogIdentity("100"), "10.1038/nature12373")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 120.5, m.Score)
	assert.Equal(t, 340, m.ReadersCount)
	assert.Equal(t, 88, m.TweetCount)
	assert.Equal(t, 12, m.PostCount)
	assert.Equal(t, 5, m.NewsCount)
}

func TestMetrics_PMIDEndpointWithoutDOI(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pmid/100", r.URL.Path)
		fmt.Fprint(w, `{"score": 3.1, "readers": {"count": 7}}`)
	}))

	m, ok, err := c.Metrics(context.Background(), types.CatalogIdentity("100"), "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3.1, m.Score)
}

func TestMetrics_UntrackedArticle(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, ok, err := c.Metrics(context.Background(), types.CatalogIdentity("100"), "")
		require.NoError(t, err, "status %d", status)
		assert.False(t, ok, "status %d", status)
	}
}

func TestMetrics_ServerErrorPropagates(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, _, err := c.Metrics(context.Background(), types.CatalogIdentity("100"), "")
	assert.Error(t, err)
}
