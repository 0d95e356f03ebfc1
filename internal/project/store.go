// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project persists evaluated articles, search sessions, and the
// traversal checkpoint for one research project in a SQLite database. The
// store exclusively owns the key → record map; the explorer borrows records
// for one run and writes every mutation back through Put immediately, so
// partial progress survives interruption at the cost of write amplification.
// Implements: prd005-persistence (R1-R5);
//
//	docs/ARCHITECTURE.md § Project Store.
package project

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citegraph/pkg/types"
)

const dbSuffix = ".db"

// ErrStoreWrite marks persistence failures. The durability contract is
// load-bearing: a run cannot guarantee progress without it, so callers treat
// these as fatal.
var ErrStoreWrite = errors.New("project store write failed")

// Store manages one project's SQLite database.
type Store struct {
	db   *sql.DB
	name string
}

// Open opens or creates the project database at dir/<name>.db and creates
// the schema if it does not exist. Project names are sanitized into
// filesystem-safe file stems.
func Open(dir, name string) (*Store, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating project directory: %w", err)
	}

	path := filepath.Join(dir, SafeName(name)+dbSuffix)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, name: name}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := s.setMetaIfAbsent("name", name); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.setMetaIfAbsent("created_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name returns the project name given at creation.
func (s *Store) Name() string { return s.name }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			key TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			value TEXT NOT NULL,
			relevance_score INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			payload TEXT NOT NULL,
			evaluated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_score ON articles(relevance_score)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			article_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS checkpoint (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload TEXT NOT NULL,
			saved_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Has reports whether a record exists for the canonical key.
func (s *Store) Has(key string) bool {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM articles WHERE key = ?`, key).Scan(&one)
	return err == nil
}

// Get loads the record for the canonical key, applying the legacy schema
// migration. The second return value is false when no record exists.
func (s *Store) Get(key string) (*types.ArticleRecord, bool, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM articles WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading record %s: %w", key, err)
	}

	rec, err := decodeRecord([]byte(payload))
	if err != nil {
		return nil, false, fmt.Errorf("decoding record %s: %w", key, err)
	}
	return rec, true, nil
}

// Put upserts the record under its identity key and flushes immediately.
// The write stamps EvaluatedAt.
func (s *Store) Put(rec *types.ArticleRecord) error {
	if rec.Identity.IsZero() {
		return fmt.Errorf("%w: record has no identity", ErrStoreWrite)
	}
	rec.EvaluatedAt = time.Now().UTC()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrStoreWrite, rec.Identity.Key(), err)
	}

	_, err = s.db.Exec(
		`INSERT INTO articles (key, namespace, value, relevance_score, depth, payload, evaluated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			relevance_score=excluded.relevance_score, depth=excluded.depth,
			payload=excluded.payload, evaluated_at=excluded.evaluated_at`,
		rec.Identity.Key(), string(rec.Identity.Namespace), rec.Identity.Value,
		rec.RelevanceScore, rec.Depth, string(payload),
		rec.EvaluatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: upserting %s: %v", ErrStoreWrite, rec.Identity.Key(), err)
	}
	return nil
}

// Delete removes a record. It reports whether a record existed. Deletion is
// a caller operation; the explorer itself never deletes.
func (s *Store) Delete(key string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM articles WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("%w: deleting %s: %v", ErrStoreWrite, key, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// All returns every stored record, migrated, in descending score order.
func (s *Store) All() ([]*types.ArticleRecord, error) {
	rows, err := s.db.Query(`SELECT payload FROM articles ORDER BY relevance_score DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []*types.ArticleRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec, err := decodeRecord([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Relevant returns the records whose score clears threshold, in descending
// score order. The comparison uses the caller's threshold, not the persisted
// relevance flag.
func (s *Store) Relevant(threshold int) ([]*types.ArticleRecord, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM articles WHERE relevance_score >= ? ORDER BY relevance_score DESC, key`, threshold)
	if err != nil {
		return nil, fmt.Errorf("listing relevant records: %w", err)
	}
	defer rows.Close()

	var records []*types.ArticleRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec, err := decodeRecord([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Save stamps the project's updated_at metadata. Record writes are already
// durable at Put time; Save marks the end of a batch of mutations.
func (s *Store) Save() error {
	return s.setMeta("updated_at", time.Now().UTC().Format(time.RFC3339))
}

// StoreStats summarizes the stored record set. Relevance is counted against
// the caller's current threshold, not the persisted flag.
type StoreStats struct {
	TotalArticles int `json:"total_articles" yaml:"total_articles"`
	TotalRelevant int `json:"total_relevant" yaml:"total_relevant"`
}

// Stats counts stored and relevant articles against threshold.
func (s *Store) Stats(threshold int) (StoreStats, error) {
	var st StoreStats
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(relevance_score >= ?), 0) FROM articles`, threshold,
	).Scan(&st.TotalArticles, &st.TotalRelevant)
	if err != nil {
		return StoreStats{}, fmt.Errorf("counting records: %w", err)
	}
	return st, nil
}

// Session is one recorded search session.
type Session struct {
	ID           string    `json:"id" yaml:"id"`
	ArticleCount int       `json:"article_count" yaml:"article_count"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// AddSession records a search session and how many articles it evaluated.
func (s *Store) AddSession(id string, articleCount int) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, article_count, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET article_count=excluded.article_count`,
		id, articleCount, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: recording session %s: %v", ErrStoreWrite, id, err)
	}
	return nil
}

// Sessions returns recorded sessions, newest first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.db.Query(`SELECT id, article_count, created_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var created string
		if err := rows.Scan(&sess.ID, &sess.ArticleCount, &created); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// SaveCheckpoint stores the traversal state, replacing any prior checkpoint.
// At most one checkpoint exists per project.
func (s *Store) SaveCheckpoint(state types.TraversalState) error {
	payload, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encoding checkpoint: %v", ErrStoreWrite, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO checkpoint (id, payload, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload=excluded.payload, saved_at=excluded.saved_at`,
		string(payload), state.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: saving checkpoint: %v", ErrStoreWrite, err)
	}
	return nil
}

// LoadCheckpoint returns the stored checkpoint, or nil when none exists.
func (s *Store) LoadCheckpoint() (*types.TraversalState, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM checkpoint WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}

	var state types.TraversalState
	if err := yaml.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("decoding checkpoint: %w", err)
	}
	return &state, nil
}

// ClearCheckpoint removes any stored checkpoint.
func (s *Store) ClearCheckpoint() error {
	if _, err := s.db.Exec(`DELETE FROM checkpoint WHERE id = 1`); err != nil {
		return fmt.Errorf("%w: clearing checkpoint: %v", ErrStoreWrite, err)
	}
	return nil
}

// SetTheme records the project's research theme.
func (s *Store) SetTheme(theme string) error {
	return s.setMeta("research_theme", theme)
}

// Theme returns the project's research theme, if recorded.
func (s *Store) Theme() string {
	v, _ := s.meta("research_theme")
	return v
}

func (s *Store) setMeta(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("%w: setting %s: %v", ErrStoreWrite, key, err)
	}
	return nil
}

func (s *Store) setMetaIfAbsent(key, value string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("%w: setting %s: %v", ErrStoreWrite, key, err)
	}
	return nil
}

func (s *Store) meta(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SafeName converts a project name into a filesystem-safe file stem.
func SafeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		`"`, "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	safe := replacer.Replace(name)
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return safe
}

// List returns the project names (file stems) found under dir.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading project directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), dbSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), dbSuffix))
	}
	return names, nil
}
