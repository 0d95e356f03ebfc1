// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"text/template"
	"time"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/pkg/types"
)

// geminiBaseURL is the Gemini generateContent endpoint root. Package-level
// var for test substitution.
var geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const defaultModel = "gemini-2.0-flash"

// scoringPromptTmpl asks the model for a 0-100 relevance verdict in a fixed
// two-line format that parseEvaluation understands.
var scoringPromptTmpl = template.Must(template.New("scoring").Parse(`You are an expert research librarian. Rate how well the following article matches what the user is looking for.

What the user is looking for:
{{.Theme}}

Article under evaluation:
Title: {{.Title}}

Abstract:
{{.Abstract}}

Scoring guide:
- 100: a complete match, an essential article for this topic
- 70-99: a strong match, clearly useful
- 40-69: a partial match
- 1-39: a weak match
- 0: unrelated

Respond in exactly this format and nothing else:

Score: <number between 0 and 100>
Reason: <one or two sentences justifying the score>
`))

// GeminiBackend scores articles through the Gemini generateContent API.
type GeminiBackend struct {
	APIKey string
	Model  string
	Client *http.Client

	// MaxRetries bounds 429 retries; zero means the httputil default.
	MaxRetries int

	// Timeout is the per-call budget; zero means 60s.
	Timeout time.Duration
}

// NewGeminiBackend returns a backend configured from cfg.
func NewGeminiBackend(cfg types.ScoringConfig) *GeminiBackend {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiBackend{
		APIKey:     cfg.APIKey,
		Model:      model,
		MaxRetries: cfg.MaxRetries,
		Timeout:    timeout,
		Client:     &http.Client{Timeout: timeout},
	}
}

// geminiRequest is the request body for the generateContent API.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the response body from the generateContent API.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// Score renders the scoring prompt, calls the Gemini API, and parses the
// verdict. Articles with neither title nor abstract are scored zero without
// an API call (R2.3).
func (b *GeminiBackend) Score(ctx context.Context, theme string, meta types.ArticleMetadata) (types.Evaluation, error) {
	meta, ok := promptMetadata(meta)
	if !ok {
		return unavailableEvaluation(), nil
	}

	prompt, err := renderPrompt(theme, meta)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		geminiBaseURL, url.PathEscape(b.Model), url.QueryEscape(b.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := &httputil.Client{HTTP: b.Client, MaxRetries: b.MaxRetries}
	resp, err := hc.Do(ctx, req)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.Evaluation{}, fmt.Errorf("Gemini API returned %d: %s", resp.StatusCode, string(body))
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return types.Evaluation{}, fmt.Errorf("parsing Gemini response: %w", err)
	}
	if len(gResp.Candidates) == 0 || len(gResp.Candidates[0].Content.Parts) == 0 {
		return types.Evaluation{}, fmt.Errorf("Gemini API returned no candidates")
	}

	return parseEvaluation(gResp.Candidates[0].Content.Parts[0].Text), nil
}

func renderPrompt(theme string, meta types.ArticleMetadata) (string, error) {
	var buf bytes.Buffer
	err := scoringPromptTmpl.Execute(&buf, struct {
		Theme, Title, Abstract string
	}{Theme: theme, Title: meta.Title, Abstract: meta.Abstract})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
