// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citegraph/pkg/types"
)

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantScore  int
		wantReason string
	}{
		{
			"well formed",
			"Score: 85\nReason: Directly addresses the stated topic.",
			85,
			"Directly addresses the stated topic.",
		},
		{
			"clamped above 100",
			"Score: 150\nReason: Over-enthusiastic model.",
			100,
			"Over-enthusiastic model.",
		},
		{
			"zero",
			"Score: 0\nReason: Unrelated.",
			0,
			"Unrelated.",
		},
		{
			"missing score defaults to 50",
			"I think this article is quite relevant.",
			50,
			"no reasoning returned",
		},
		{
			"case insensitive labels",
			"score: 72\nreason: close topical overlap",
			72,
			"close topical overlap",
		},
		{
			"reason spans a sentence before blank line",
			"Score: 40\nReason: Partial overlap only.\nThe methods differ.\n\nIgnore this trailer.",
			40,
			"Partial overlap only.\nThe methods differ.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEvaluation(tt.text)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantReason, got.Reasoning)
		})
	}
}

func newTestBackend(t *testing.T, handler http.Handler) *GeminiBackend {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := geminiBaseURL
	geminiBaseURL = ts.URL
	t.Cleanup(func() { geminiBaseURL = old })

	return NewGeminiBackend(types.ScoringConfig{Model: "gemini-2.0-flash", APIKey: "test-key"})
}

func TestGeminiScore(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{
		  "candidates": [
		    {"content": {"parts": [{"text": "Score: 80\nReason: Strong match."}]}}
		  ]
		}`)
	}))

	eval, err := b.Score(context.Background(), "insulin resistance",
		types.ArticleMetadata{Title: "T", Abstract: "A"})
	require.NoError(t, err)
	assert.Equal(t, 80, eval.Score)
	assert.Equal(t, "Strong match.", eval.Reasoning)
}

func TestGeminiScore_EmptyMetadataSkipsAPICall(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API must not be called for empty metadata")
	}))

	eval, err := b.Score(context.Background(), "theme", types.ArticleMetadata{})
	require.NoError(t, err)
	assert.Equal(t, 0, eval.Score)
	assert.Contains(t, eval.Reasoning, "no title or abstract")
}

func TestGeminiScore_TitleOnlyPrompt(t *testing.T) {
	var gotPrompt string
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Contents[0].Parts[0].Text
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": "Score: 30\nReason: Title only."}]}}]}`)
	}))

	_, err := b.Score(context.Background(), "theme",
		types.ArticleMetadata{Title: "Only a title"})
	require.NoError(t, err)
	assert.Contains(t, gotPrompt, "Evaluate on the title alone")
	assert.Contains(t, gotPrompt, "Only a title")
}

func TestGeminiScore_APIErrorPropagates(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))

	_, err := b.Score(context.Background(), "theme",
		types.ArticleMetadata{Title: "T", Abstract: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
