// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explore

import (
	"sort"
	"time"

	"github.com/pdiddy/citegraph/pkg/types"
)

// interrupt persists the traversal state for the cancelled run and returns
// the partial result set.
func (f *Finder) interrupt(remaining []types.ArticleIdentity, visited map[string]bool, collected map[string]*types.ArticleRecord, depth int, cfg types.RunConfig, sessionID string, stats types.RunStats) (*types.RunResult, error) {
	f.progress("interrupted at layer %d, saving checkpoint", depth)

	visitedKeys := make([]string, 0, len(visited))
	for key := range visited {
		visitedKeys = append(visitedKeys, key)
	}
	sort.Strings(visitedKeys)

	if err := f.Store.SaveCheckpoint(types.TraversalState{
		Frontier:     remaining,
		Visited:      visitedKeys,
		Collected:    collected,
		CurrentDepth: depth,
		Config:       cfg,
		SessionID:    sessionID,
		SavedAt:      time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	return f.finish(collected, stats, sessionID, true)
}
