// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score evaluates article relevance against a research theme via a
// generative AI scoring oracle. Scoring calls are the expensive resource the
// evaluation cache exists to protect.
// Implements: prd003-evaluation (R2.1-R2.5);
//
//	docs/ARCHITECTURE.md § Relevance Scoring.
package score

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/citegraph/pkg/types"
)

// Scorer is the scoring oracle interface. Implementations (Gemini) handle a
// single article and return a 0-100 relevance verdict, per the Strategy
// pattern (R2.1). A Scorer failure is recoverable for candidates; callers
// synthesize a zero-score record rather than aborting the run.
type Scorer interface {
	Score(ctx context.Context, theme string, meta types.ArticleMetadata) (types.Evaluation, error)
}

var (
	scorePattern  = regexp.MustCompile(`(?mi)^score[:\s]+(\d+)`)
	reasonPattern = regexp.MustCompile(`(?ims)^reason[:\s]+(.+?)(?:\n\n|\z)`)
)

// parseEvaluation extracts the score and reasoning from the oracle's text
// response. A missing score defaults to 50 rather than failing: a garbled
// response should not zero out an article the model may have judged
// relevant. Scores are clamped to [0, 100].
func parseEvaluation(text string) types.Evaluation {
	eval := types.Evaluation{Score: 50, Reasoning: "no reasoning returned"}

	if m := scorePattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			if n < 0 {
				n = 0
			}
			if n > 100 {
				n = 100
			}
			eval.Score = n
		}
	}
	if m := reasonPattern.FindStringSubmatch(text); m != nil {
		eval.Reasoning = strings.TrimSpace(m[1])
	}
	return eval
}

// unavailableEvaluation is returned without an oracle call when there is
// nothing to evaluate.
func unavailableEvaluation() types.Evaluation {
	return types.Evaluation{Score: 0, Reasoning: "no title or abstract available to evaluate"}
}

// promptMetadata normalizes metadata before prompting: when the abstract is
// missing the oracle is told to judge on the title alone.
func promptMetadata(meta types.ArticleMetadata) (types.ArticleMetadata, bool) {
	if meta.Title == "" && meta.Abstract == "" {
		return meta, false
	}
	if meta.Abstract == "" {
		meta.Abstract = fmt.Sprintf("(No abstract is available. Evaluate on the title alone: %s)", meta.Title)
	}
	return meta, true
}
