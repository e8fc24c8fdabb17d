package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"toolscout/model"
)

// Run is one recorded pipeline run.
type Run struct {
	ID         string // uuid
	DigestDate string // YYYY-MM-DD
	Source     string // file path, URL, or "stdin"
	ToolCount  int
	NewsCount  int
	CreatedAt  int64 // Unix timestamp
}

// ScoreRecord is a stored score row joined with the tool's display name.
type ScoreRecord struct {
	RunID          string
	Slug           string
	Name           string
	Total          int
	Recommendation string
	CreatedAt      int64
}

// Store provides SQLite-backed persistence for runs, tool sightings, and
// scores.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	digest_date TEXT,
	source TEXT,
	tool_count INTEGER,
	news_count INTEGER,
	created_at INTEGER
);

CREATE TABLE IF NOT EXISTS tools (
	slug TEXT PRIMARY KEY,
	name TEXT,
	description TEXT,
	category TEXT,
	install_command TEXT,
	github_url TEXT,
	source TEXT,
	first_seen_at INTEGER,
	last_seen_at INTEGER,
	times_seen INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scores (
	run_id TEXT,
	slug TEXT,
	usefulness INTEGER,
	quality INTEGER,
	innovation INTEGER,
	momentum INTEGER,
	total INTEGER,
	recommendation TEXT,
	notes TEXT,
	created_at INTEGER,
	PRIMARY KEY (run_id, slug)
);
`

// New opens the SQLite database at dbPath, creates tables if they don't exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts or replaces a run record.
func (s *Store) SaveRun(r *Run) error {
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO runs (id, digest_date, source, tool_count, news_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.DigestDate, r.Source, r.ToolCount, r.NewsCount, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: save run %s: %w", r.ID, err)
	}
	return nil
}

// RecordSighting upserts a tool keyed by slug: the first sighting sets
// first_seen_at, later ones refresh the descriptive fields, bump
// times_seen, and move last_seen_at forward.
func (s *Store) RecordSighting(tool model.Tool) error {
	now := time.Now().Unix()
	_, err := s.db.Exec(
		`INSERT INTO tools (slug, name, description, category, install_command, github_url, source, first_seen_at, last_seen_at, times_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		 ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			install_command = excluded.install_command,
			github_url = excluded.github_url,
			source = excluded.source,
			last_seen_at = excluded.last_seen_at,
			times_seen = times_seen + 1`,
		tool.Slug, tool.Name, tool.Description, string(tool.Category),
		tool.InstallCommand, tool.GithubURL, tool.Source, now, now,
	)
	if err != nil {
		return fmt.Errorf("storage: record sighting %q: %w", tool.Slug, err)
	}
	return nil
}

// GetTool returns the stored sighting row for a slug, or nil when the tool
// has never been seen.
func (s *Store) GetTool(slug string) (*model.Tool, error) {
	var (
		t        model.Tool
		category string
	)
	err := s.db.QueryRow(
		`SELECT slug, name, description, category, install_command, github_url, source
		 FROM tools WHERE slug = ?`, slug,
	).Scan(&t.Slug, &t.Name, &t.Description, &category, &t.InstallCommand, &t.GithubURL, &t.Source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get tool %q: %w", slug, err)
	}
	t.Category = model.Category(category)
	return &t, nil
}

// TimesSeen returns how often a slug has shown up across digests, zero when
// never seen.
func (s *Store) TimesSeen(slug string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT times_seen FROM tools WHERE slug = ?`, slug).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: times seen %q: %w", slug, err)
	}
	return n, nil
}

// RecentSlugs returns the slugs scored within the last N days. The pipeline
// uses this window to avoid re-researching tools it already reported.
func (s *Store) RecentSlugs(days int) ([]string, error) {
	cutoff := time.Now().Unix() - int64(days)*86400
	rows, err := s.db.Query(
		`SELECT DISTINCT slug FROM scores WHERE created_at > ?`, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get recent slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("storage: scan recent slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate recent slugs: %w", err)
	}
	return slugs, nil
}

// SaveScore inserts or replaces one tool's score for a run. Notes are stored
// as a JSON array.
func (s *Store) SaveScore(runID string, sc model.ToolScore) error {
	notesJSON, err := json.Marshal(sc.Notes)
	if err != nil {
		return fmt.Errorf("storage: marshal notes for %q: %w", sc.Slug, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO scores (run_id, slug, usefulness, quality, innovation, momentum, total, recommendation, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, sc.Slug, sc.UsefulnessScore, sc.QualityScore, sc.InnovationScore, sc.MomentumScore,
		sc.TotalScore, string(sc.Recommendation), string(notesJSON), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: save score %q: %w", sc.Slug, err)
	}
	return nil
}

// GetScore returns a stored score for one run and slug, or nil when absent.
func (s *Store) GetScore(runID, slug string) (*model.ToolScore, error) {
	var (
		sc    model.ToolScore
		rec   string
		notes string
	)
	err := s.db.QueryRow(
		`SELECT slug, usefulness, quality, innovation, momentum, total, recommendation, notes
		 FROM scores WHERE run_id = ? AND slug = ?`, runID, slug,
	).Scan(&sc.Slug, &sc.UsefulnessScore, &sc.QualityScore, &sc.InnovationScore, &sc.MomentumScore,
		&sc.TotalScore, &rec, &notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get score %s/%s: %w", runID, slug, err)
	}
	sc.Recommendation = model.Recommendation(rec)
	if notes != "" {
		if err := json.Unmarshal([]byte(notes), &sc.Notes); err != nil {
			return nil, fmt.Errorf("storage: parse notes for %q: %w", slug, err)
		}
	}
	return &sc, nil
}

// LatestScores returns the most recently stored scores, newest first, joined
// with the tool's display name.
func (s *Store) LatestScores(limit int) ([]ScoreRecord, error) {
	rows, err := s.db.Query(
		`SELECT sc.run_id, sc.slug, COALESCE(t.name, sc.slug), sc.total, sc.recommendation, sc.created_at
		 FROM scores sc LEFT JOIN tools t ON t.slug = sc.slug
		 ORDER BY sc.created_at DESC, sc.total DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get latest scores: %w", err)
	}
	defer rows.Close()

	var records []ScoreRecord
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.RunID, &r.Slug, &r.Name, &r.Total, &r.Recommendation, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan score record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate score records: %w", err)
	}
	return records, nil
}

// RecommendationCounts returns how many stored scores landed in each
// recommendation band.
func (s *Store) RecommendationCounts() (map[string]int, error) {
	return s.countBy(`SELECT recommendation, COUNT(*) FROM scores GROUP BY recommendation`, "recommendation")
}

// CategoryCounts returns how many distinct tools were sighted per category.
func (s *Store) CategoryCounts() (map[string]int, error) {
	return s.countBy(`SELECT category, COUNT(*) FROM tools GROUP BY category`, "category")
}

// RunCount returns the number of recorded runs.
func (s *Store) RunCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count runs: %w", err)
	}
	return n, nil
}

func (s *Store) countBy(query, label string) (map[string]int, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("storage: get %s counts: %w", label, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("storage: scan %s count: %w", label, err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate %s counts: %w", label, err)
	}
	return counts, nil
}
