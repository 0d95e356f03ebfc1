// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citegraph/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), "test-project")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(id string, score int) *types.ArticleRecord {
	return &types.ArticleRecord{
		Identity:       types.CatalogIdentity(id),
		Title:          "Article " + id,
		RelevanceScore: score,
		IsRelevant:     score >= 60,
		Depth:          1,
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	rec := sampleRecord("31243158", 85)
	rec.Authors = "Smith J, Jones K"
	rec.DOI = "10.1234/example"
	require.NoError(t, store.Put(rec))

	got, ok, err := store.Get("catalog:31243158")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Article 31243158", got.Title)
	assert.Equal(t, "10.1234/example", got.DOI)
	assert.Equal(t, 85, got.RelevanceScore)
	assert.False(t, got.EvaluatedAt.IsZero())
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get("catalog:999")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, store.Has("catalog:999"))
}

func TestStorePutUpsertsByKey(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(sampleRecord("100", 40)))
	updated := sampleRecord("100", 90)
	updated.Title = "Updated title"
	require.NoError(t, store.Put(updated))

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Updated title", all[0].Title)
	assert.Equal(t, 90, all[0].RelevanceScore)
}

func TestStorePutRejectsZeroIdentity(t *testing.T) {
	store := openTestStore(t)
	err := store.Put(&types.ArticleRecord{Title: "no identity"})
	assert.ErrorIs(t, err, ErrStoreWrite)
}

func TestStoreAllOrdersByScoreDescending(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(sampleRecord("1", 30)))
	require.NoError(t, store.Put(sampleRecord("2", 90)))
	require.NoError(t, store.Put(sampleRecord("3", 60)))

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 90, all[0].RelevanceScore)
	assert.Equal(t, 60, all[1].RelevanceScore)
	assert.Equal(t, 30, all[2].RelevanceScore)
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(sampleRecord("5", 50)))

	existed, err := store.Delete("catalog:5")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.False(t, store.Has("catalog:5"))

	existed, err = store.Delete("catalog:5")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestStoreStatsAgainstThreshold(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(sampleRecord("1", 30)))
	require.NoError(t, store.Put(sampleRecord("2", 70)))
	require.NoError(t, store.Put(sampleRecord("3", 95)))

	st, err := store.Stats(60)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalArticles)
	assert.Equal(t, 2, st.TotalRelevant)

	// The same data counted against a stricter threshold.
	st, err = store.Stats(80)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalRelevant)
}

func TestStoreRelevantFiltersByThreshold(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(sampleRecord("1", 30)))
	require.NoError(t, store.Put(sampleRecord("2", 70)))
	require.NoError(t, store.Put(sampleRecord("3", 95)))

	relevant, err := store.Relevant(60)
	require.NoError(t, err)
	require.Len(t, relevant, 2)
	assert.Equal(t, 95, relevant[0].RelevanceScore)
	assert.Equal(t, 70, relevant[1].RelevanceScore)
}

func TestStoreLegacySessionMigration(t *testing.T) {
	store := openTestStore(t)

	// Simulate a record written by the old schema with a scalar session ID.
	payload := `{"identity":{"namespace":"catalog","value":"42"},"title":"Legacy",` +
		`"relevance_score":70,"search_session_id":"sess-old"}`
	_, err := store.db.Exec(
		`INSERT INTO articles (key, namespace, value, relevance_score, depth, payload, evaluated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"catalog:42", "catalog", "42", 70, 0, payload, time.Now().UTC().Format(time.RFC3339Nano))
	require.NoError(t, err)

	got, ok, err := store.Get("catalog:42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"sess-old"}, got.SessionIDs)
}

func TestStoreLegacySessionMigrationKeepsList(t *testing.T) {
	// A record already carrying the list shape must pass through untouched.
	rec, err := decodeRecord([]byte(
		`{"identity":{"namespace":"catalog","value":"7"},"search_session_ids":["a","b"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec.SessionIDs)
}

func TestStoreCheckpointRoundTrip(t *testing.T) {
	store := openTestStore(t)

	cp, err := store.LoadCheckpoint()
	require.NoError(t, err)
	assert.Nil(t, cp, "fresh project has no checkpoint")

	state := types.TraversalState{
		Frontier:     []types.ArticleIdentity{types.CatalogIdentity("1"), types.CatalogIdentity("2")},
		Visited:      []string{"catalog:0"},
		CurrentDepth: 1,
		SessionID:    "sess-1",
		SavedAt:      time.Now().UTC(),
		Config:       types.DefaultRunConfig(),
	}
	require.NoError(t, store.SaveCheckpoint(state))

	cp, err = store.LoadCheckpoint()
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, state.Frontier, cp.Frontier)
	assert.Equal(t, state.Visited, cp.Visited)
	assert.Equal(t, 1, cp.CurrentDepth)
	assert.Equal(t, "sess-1", cp.SessionID)

	// A later save replaces, never accumulates.
	state.CurrentDepth = 2
	require.NoError(t, store.SaveCheckpoint(state))
	cp, err = store.LoadCheckpoint()
	require.NoError(t, err)
	assert.Equal(t, 2, cp.CurrentDepth)

	require.NoError(t, store.ClearCheckpoint())
	cp, err = store.LoadCheckpoint()
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestStoreSessions(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.AddSession("sess-a", 3))
	require.NoError(t, store.AddSession("sess-b", 7))

	sessions, err := store.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	counts := map[string]int{}
	for _, sess := range sessions {
		counts[sess.ID] = sess.ArticleCount
	}
	assert.Equal(t, map[string]int{"sess-a": 3, "sess-b": 7}, counts)
}

func TestStoreThemeMetadata(t *testing.T) {
	store := openTestStore(t)
	assert.Empty(t, store.Theme())
	require.NoError(t, store.SetTheme("CRISPR delivery vectors"))
	assert.Equal(t, "CRISPR delivery vectors", store.Theme())
}

func TestStoreReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, "persist")
	require.NoError(t, err)
	require.NoError(t, store.Put(sampleRecord("11", 80)))
	require.NoError(t, store.SetTheme("theme"))
	require.NoError(t, store.Close())

	reopened, err := Open(dir, "persist")
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.Has("catalog:11"))
	assert.Equal(t, "theme", reopened.Theme())
}

func TestStoreExportJSON(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.SetTheme("graph theory"))
	require.NoError(t, store.Put(sampleRecord("1", 90)))
	require.NoError(t, store.AddSession("sess-x", 1))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(&buf))

	var ex map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ex))
	assert.Equal(t, "test-project", ex["name"])
	assert.Equal(t, "graph theory", ex["research_theme"])
	assert.Len(t, ex["articles"], 1)
}

func TestStoreExportYAML(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(sampleRecord("1", 90)))

	var buf bytes.Buffer
	require.NoError(t, store.ExportYAML(&buf))
	assert.Contains(t, buf.String(), "name: test-project")
	assert.Contains(t, buf.String(), "relevance_score: 90")
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "a_b_c", SafeName("a/b:c"))
	assert.Equal(t, "plain", SafeName("plain"))
	long := strings.Repeat("x", 150)
	assert.Len(t, SafeName(long), 100)
}

func TestListProjects(t *testing.T) {
	dir := t.TempDir()

	names, err := List(dir)
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, name := range []string{"alpha", "beta"} {
		store, err := Open(dir, name)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}

	names, err = List(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, names)
}
