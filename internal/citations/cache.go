// Package citations implements the Citation Analyzer (C7): it resolves
// arXiv paper identifiers to their reference lists through an external
// citation service, accumulates a directed citing->cited graph, and
// surfaces the most-cited recent papers. Grounded on
// original_source/citation_cache.py (SQLite schema/freshness) and
// original_source/arxiv_citations.py (graph build + ranking), with SQLite
// wiring adapted from internal/store/store.go.
package citations

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/briefing-engine/briefing/internal/core"
)

// Cache is the SQLite-backed citation cache (spec §4.7 step 2): it stores
// paper metadata and citation edges, and answers freshness queries so the
// analyzer only calls out to the upstream service on a genuine cache miss.
type Cache struct {
	db   *sql.DB
	path string
}

// NewCache opens (creating if necessary) the citation cache database under
// dataDir/citations.db.
func NewCache(dataDir string) (*Cache, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("citations: create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "citations.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("citations: open database: %w", err)
	}

	c := &Cache{db: db, path: dbPath}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("citations: initialize schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			arxiv_id TEXT PRIMARY KEY,
			title TEXT,
			authors TEXT,
			published TEXT,
			summary TEXT,
			url TEXT,
			total_citations INTEGER,
			placeholder BOOLEAN DEFAULT FALSE,
			last_updated TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			citing_paper TEXT,
			cited_paper TEXT,
			last_updated TEXT,
			PRIMARY KEY (citing_paper, cited_paper)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cited_paper ON citations(cited_paper)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_last_updated ON papers(last_updated)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// State reports whether arxivID's cached citation edges are Absent, Fresh
// (last_updated within maxAge), or Stale (present but too old) — spec
// §4.7's CacheState machine.
func (c *Cache) State(arxivID string, maxAge time.Duration, now time.Time) (core.CacheState, error) {
	var lastUpdated sql.NullString
	err := c.db.QueryRow(
		`SELECT MAX(last_updated) FROM citations WHERE citing_paper = ?`, arxivID,
	).Scan(&lastUpdated)
	if err != nil && err != sql.ErrNoRows {
		return core.CacheAbsent, fmt.Errorf("citations: query state: %w", err)
	}
	if !lastUpdated.Valid || lastUpdated.String == "" {
		return core.CacheAbsent, nil
	}
	parsed, err := time.Parse(time.RFC3339, lastUpdated.String)
	if err != nil {
		return core.CacheAbsent, nil
	}
	if parsed.Before(now.Add(-maxAge)) {
		return core.CacheStale, nil
	}
	return core.CacheFresh, nil
}

// GetCitations returns the cached (citing -> cited) list for arxivID, or
// nil if absent or stale relative to maxAge.
func (c *Cache) GetCitations(arxivID string, maxAge time.Duration, now time.Time) ([]string, error) {
	cutoff := now.Add(-maxAge).Format(time.RFC3339)
	rows, err := c.db.Query(
		`SELECT cited_paper FROM citations WHERE citing_paper = ? AND last_updated > ?`,
		arxivID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("citations: query citations: %w", err)
	}
	defer rows.Close()

	var cited []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("citations: scan citation row: %w", err)
		}
		cited = append(cited, id)
	}
	return cited, rows.Err()
}

// PutCitations persists citing's reference list with last_updated = now.
func (c *Cache) PutCitations(citing string, cited []string, now time.Time) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("citations: begin tx: %w", err)
	}
	defer tx.Rollback()

	stamp := now.Format(time.RFC3339)
	for _, cid := range cited {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO citations (citing_paper, cited_paper, last_updated) VALUES (?, ?, ?)`,
			citing, cid, stamp,
		); err != nil {
			return fmt.Errorf("citations: insert edge: %w", err)
		}
	}
	return tx.Commit()
}

// PutPaper upserts paper metadata with last_updated = now.
func (c *Cache) PutPaper(paper core.PaperInfo, now time.Time) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO papers
			(arxiv_id, title, authors, published, summary, url, total_citations, placeholder, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		paper.ArxivID,
		paper.Title,
		joinAuthors(paper.Authors),
		paper.Published.Format(time.RFC3339),
		paper.Summary,
		paper.URL,
		paper.TotalCitations,
		paper.Placeholder,
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("citations: upsert paper: %w", err)
	}
	return nil
}

// GetPaper returns cached metadata for arxivID, or (zero, false) if absent.
func (c *Cache) GetPaper(arxivID string) (core.PaperInfo, bool, error) {
	var p core.PaperInfo
	var authors, published, lastUpdated string
	err := c.db.QueryRow(
		`SELECT arxiv_id, title, authors, published, summary, url, total_citations, placeholder, last_updated
		FROM papers WHERE arxiv_id = ?`, arxivID,
	).Scan(&p.ArxivID, &p.Title, &authors, &published, &p.Summary, &p.URL, &p.TotalCitations, &p.Placeholder, &lastUpdated)
	if err == sql.ErrNoRows {
		return core.PaperInfo{}, false, nil
	}
	if err != nil {
		return core.PaperInfo{}, false, fmt.Errorf("citations: query paper: %w", err)
	}
	p.Authors = splitAuthors(authors)
	if t, parseErr := time.Parse(time.RFC3339, published); parseErr == nil {
		p.Published = t
	}
	if t, parseErr := time.Parse(time.RFC3339, lastUpdated); parseErr == nil {
		p.LastUpdated = t
	}
	return p, true, nil
}

// GetMostCited aggregates persisted citation edges directly (GROUP BY
// cited_paper), the same query original_source/citation_cache.py's
// get_most_cited runs, for the Citation Analyzer's rebuild-from-cache mode
// (spec §4.7: "given only the SQLite cache, reproduce step 4 and step 5
// without any fresh RSS fetch"). Results are sorted by citation count
// descending with arXiv-ID ascending ties, matching rankTopN's ordering.
func (c *Cache) GetMostCited(minCitations, topN int) ([]core.RankedPaper, error) {
	rows, err := c.db.Query(
		`SELECT cited_paper, COUNT(*) as cnt FROM citations
		GROUP BY cited_paper HAVING cnt >= ?
		ORDER BY cnt DESC, cited_paper ASC LIMIT ?`,
		minCitations, topN,
	)
	if err != nil {
		return nil, fmt.Errorf("citations: query most cited: %w", err)
	}
	defer rows.Close()

	var ranked []core.RankedPaper
	for rows.Next() {
		var arxivID string
		var count int
		if err := rows.Scan(&arxivID, &count); err != nil {
			return nil, fmt.Errorf("citations: scan most-cited row: %w", err)
		}
		ranked = append(ranked, core.RankedPaper{
			Paper:    core.PaperInfo{ArxivID: arxivID, Placeholder: true},
			InDegree: count,
		})
	}
	return ranked, rows.Err()
}

func joinAuthors(authors []string) string {
	out := ""
	for i, a := range authors {
		if i > 0 {
			out += "|"
		}
		out += a
	}
	return out
}

func splitAuthors(joined string) []string {
	if joined == "" {
		return nil
	}
	var authors []string
	start := 0
	for i := 0; i <= len(joined); i++ {
		if i == len(joined) || joined[i] == '|' {
			authors = append(authors, joined[start:i])
			start = i + 1
		}
	}
	return authors
}
