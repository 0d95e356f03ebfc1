// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"encoding/json"

	"github.com/pdiddy/citegraph/pkg/types"
)

// legacyRecord tolerates the pre-session-list payload shape, where a record
// carried a single search_session_id string instead of the list. The field
// is folded into SessionIDs on decode, so records are upgraded the first
// time they are rewritten.
type legacyRecord struct {
	types.ArticleRecord
	LegacySessionID string `json:"search_session_id,omitempty"`
}

func decodeRecord(payload []byte) (*types.ArticleRecord, error) {
	var legacy legacyRecord
	if err := json.Unmarshal(payload, &legacy); err != nil {
		return nil, err
	}
	rec := legacy.ArticleRecord
	if legacy.LegacySessionID != "" {
		rec.AddSession(legacy.LegacySessionID)
	}
	return &rec, nil
}
