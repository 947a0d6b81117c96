package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store persists telemetry aggregates to SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the telemetry database and its schema.
// Pass ":memory:" for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create telemetry directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent flushes.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_latency_stats (
		date TEXT NOT NULL,
		scope_key TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, scope_key, bucket)
	);

	CREATE TABLE IF NOT EXISTS query_terms (
		term TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 1,
		last_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_query_terms_count ON query_terms(count DESC);

	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scope_key TEXT NOT NULL,
		query TEXT NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS index_builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scope_key TEXT NOT NULL,
		chunks INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// SaveLatencyCounts upserts per-scope daily histogram counts.
func (s *Store) SaveLatencyCounts(date string, counts map[string]map[LatencyBucket]int64) error {
	if len(counts) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO query_latency_stats (date, scope_key, bucket, count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date, scope_key, bucket) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for scopeKey, buckets := range counts {
		for bucket, count := range buckets {
			if _, err := stmt.Exec(date, scopeKey, string(bucket), count); err != nil {
				return fmt.Errorf("insert latency count: %w", err)
			}
		}
	}
	return tx.Commit()
}

// GetLatencyCounts returns the summed histogram for a scope across all
// recorded dates.
func (s *Store) GetLatencyCounts(scopeKey string) (map[LatencyBucket]int64, error) {
	rows, err := s.db.Query(`
		SELECT bucket, SUM(count) FROM query_latency_stats
		WHERE scope_key = ? GROUP BY bucket
	`, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("query latency counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[LatencyBucket]int64)
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[LatencyBucket(bucket)] = count
	}
	return counts, rows.Err()
}

// UpsertTermCounts increments term frequencies.
func (s *Store) UpsertTermCounts(terms map[string]int64) error {
	if len(terms) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO query_terms (term, count, last_seen)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(term) DO UPDATE SET
			count = count + excluded.count,
			last_seen = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for term, count := range terms {
		if _, err := stmt.Exec(term, count); err != nil {
			return fmt.Errorf("insert term count: %w", err)
		}
	}
	return tx.Commit()
}

// TopTerms returns the n most frequent query terms.
func (s *Store) TopTerms(n int) ([]string, error) {
	rows, err := s.db.Query(`SELECT term FROM query_terms ORDER BY count DESC, term ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query top terms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

// AppendZeroResults stores zero-result queries, keeping only the most
// recent maxZeroResultBuffer rows.
func (s *Store) AppendZeroResults(events []QueryEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range events {
		if _, err := tx.Exec(
			`INSERT INTO zero_result_queries (scope_key, query, timestamp) VALUES (?, ?, ?)`,
			e.ScopeKey, e.Query, e.Timestamp,
		); err != nil {
			return fmt.Errorf("insert zero-result query: %w", err)
		}
	}
	if _, err := tx.Exec(`
		DELETE FROM zero_result_queries WHERE id NOT IN (
			SELECT id FROM zero_result_queries ORDER BY id DESC LIMIT ?
		)
	`, maxZeroResultBuffer); err != nil {
		return fmt.Errorf("trim zero-result queries: %w", err)
	}
	return tx.Commit()
}

// ZeroResultQueries returns the stored zero-result queries, newest first.
func (s *Store) ZeroResultQueries() ([]QueryEvent, error) {
	rows, err := s.db.Query(`
		SELECT scope_key, query, timestamp FROM zero_result_queries ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query zero results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []QueryEvent
	for rows.Next() {
		var e QueryEvent
		if err := rows.Scan(&e.ScopeKey, &e.Query, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// AppendBuilds stores index build events.
func (s *Store) AppendBuilds(events []BuildEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range events {
		if _, err := tx.Exec(
			`INSERT INTO index_builds (scope_key, chunks, duration_ms, timestamp) VALUES (?, ?, ?, ?)`,
			e.ScopeKey, e.Chunks, e.Duration.Milliseconds(), e.Timestamp,
		); err != nil {
			return fmt.Errorf("insert build event: %w", err)
		}
	}
	return tx.Commit()
}

// BuildCount returns how many builds were recorded for a scope.
func (s *Store) BuildCount(scopeKey string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM index_builds WHERE scope_key = ?`, scopeKey).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count builds: %w", err)
	}
	return count, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
