// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps completed Reports in a SQLite database so past
// digests can be listed and reopened. The pipeline itself never reads it.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-digest/pkg/types"
)

// ErrNotFound is returned by Load when no report has the requested run ID.
var ErrNotFound = errors.New("report not found")

// timeLayout stores timestamps in UTC with all nine fractional digits, so
// text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the report archive database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive at path and creates the schema if it
// does not exist. The special path ":memory:" opens a private in-memory
// database.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			run_id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			keywords TEXT NOT NULL,
			topic_summary TEXT NOT NULL,
			comparative_analysis TEXT NOT NULL,
			generated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS report_papers (
			run_id TEXT NOT NULL REFERENCES reports(run_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			authors TEXT NOT NULL,
			year INTEGER,
			citation_count INTEGER,
			url TEXT,
			relevance_score REAL,
			summary TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_topic ON reports(topic)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores report and its papers in one transaction. Saving a run ID
// that already exists replaces the earlier copy.
func (s *Store) Save(ctx context.Context, report *types.Report) error {
	if report.RunID == "" {
		return errors.New("report has no run ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	keywordsJSON, _ := json.Marshal(report.Keywords)
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_papers WHERE run_id = ?`, report.RunID); err != nil {
		return fmt.Errorf("deleting old papers: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reports (run_id, topic, keywords, topic_summary, comparative_analysis, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			topic=excluded.topic, keywords=excluded.keywords,
			topic_summary=excluded.topic_summary,
			comparative_analysis=excluded.comparative_analysis,
			generated_at=excluded.generated_at`,
		report.RunID, report.Topic, string(keywordsJSON), report.TopicSummary,
		report.ComparativeAnalysis, report.GeneratedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upserting report: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO report_papers (run_id, position, title, authors, year, citation_count, url, relevance_score, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range report.SummarizedPapers {
		authorsJSON, _ := json.Marshal(p.Authors)
		_, err := stmt.ExecContext(ctx,
			report.RunID, i, p.Title, string(authorsJSON), p.Year,
			p.CitationCount, p.URL, p.RelevanceScore, p.Summary.Text,
		)
		if err != nil {
			return fmt.Errorf("inserting paper %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Entry is one row of the archive listing.
type Entry struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Topic       string    `json:"topic" yaml:"topic"`
	Papers      int       `json:"papers" yaml:"papers"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// ListOptions filters List.
type ListOptions struct {
	// Topic keeps reports whose topic contains this substring (case-insensitive).
	Topic string

	// Query keeps reports with a paper whose title or summary contains
	// this substring (case-insensitive).
	Query string

	// Limit caps the number of entries. Zero means 20.
	Limit int
}

// List returns archived reports, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT r.run_id, r.topic, r.generated_at,
			(SELECT count(*) FROM report_papers p WHERE p.run_id = r.run_id)
		FROM reports r
		WHERE 1=1`)
	if opts.Topic != "" {
		qb.WriteString(` AND lower(r.topic) LIKE ?`)
		args = append(args, likePattern(opts.Topic))
	}
	if opts.Query != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM report_papers p
			WHERE p.run_id = r.run_id AND (lower(p.title) LIKE ? OR lower(p.summary) LIKE ?))`)
		pat := likePattern(opts.Query)
		args = append(args, pat, pat)
	}
	qb.WriteString(` ORDER BY r.generated_at DESC, r.run_id LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e   Entry
			gen string
		)
		if err := rows.Scan(&e.RunID, &e.Topic, &gen, &e.Papers); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		e.GeneratedAt, _ = time.Parse(timeLayout, gen)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Load reassembles the report saved under runID.
func (s *Store) Load(ctx context.Context, runID string) (*types.Report, error) {
	var (
		r            types.Report
		keywordsJSON string
		gen          string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, topic, keywords, topic_summary, comparative_analysis, generated_at
		 FROM reports WHERE run_id = ?`, runID,
	).Scan(&r.RunID, &r.Topic, &keywordsJSON, &r.TopicSummary, &r.ComparativeAnalysis, &gen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &r.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords: %w", err)
	}
	r.GeneratedAt, _ = time.Parse(timeLayout, gen)

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, authors, year, citation_count, url, relevance_score, summary
		 FROM report_papers WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	r.SummarizedPapers = []types.SummarizedPaper{}
	for rows.Next() {
		var (
			p           types.SummarizedPaper
			authorsJSON string
		)
		if err := rows.Scan(&p.Title, &authorsJSON, &p.Year, &p.CitationCount,
			&p.URL, &p.RelevanceScore, &p.Summary.Text); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &p.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors: %w", err)
		}
		r.SummarizedPapers = append(r.SummarizedPapers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes the report saved under runID and its papers.
func (s *Store) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
