// Package cache implements the Article Cache (C2): a file-backed,
// date-partitioned, append-friendly store with a rolling window, grounded
// on original_source/cache.py's get_cached_articles/set_article_embeddings.
// Every operation is best-effort — read/write errors are logged and
// treated as cache misses, never propagated, per spec §4.2 and §7.
package cache

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/logger"
)

// DefaultRetentionDays is the rolling window's retention horizon (spec §4.2).
const DefaultRetentionDays = 7

// cacheEntry is the JSONL line shape of spec §3/§6: {url, title, summary,
// source, published_at, vector}.
type cacheEntry struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Vector      []float64 `json:"vector"`
}

// Store is the Article Cache. Clock is injectable so tests can control
// "today" deterministically (spec §9's "clock and randomness must be
// injectable" note).
type Store struct {
	root  string
	Clock func() time.Time
}

// NewStore returns a Store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "articles"), 0o755); err != nil {
		return nil, fmt.Errorf("cache: creating cache root %s: %w", dir, err)
	}
	return &Store{root: dir, Clock: time.Now}, nil
}

func (s *Store) partitionPath(date time.Time) string {
	return filepath.Join(s.root, "articles", fmt.Sprintf("embeddings_%s.jsonl", date.Format("2006-01-02")))
}

// LoadRecent loads cached articles from the last `days` days. On a URL
// collision across partitions, the most recent day wins: days are scanned
// from today (days_ago=0) upward and the first partition holding a URL is
// kept. Within one partition, lines are read in order and the last line
// for a URL wins.
func (s *Store) LoadRecent(days int) map[string]core.Article {
	result := make(map[string]core.Article)
	now := s.Clock().UTC()

	for daysAgo := 0; daysAgo < days; daysAgo++ {
		date := now.AddDate(0, 0, -daysAgo)
		path := s.partitionPath(date)

		file, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("cache: failed to open partition", "path", path, "error", err)
			}
			continue
		}

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		inPartition := make(map[string]bool)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var entry cacheEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				logger.Warn("cache: skipping corrupt line", "path", path, "error", err)
				continue
			}
			if _, exists := result[entry.URL]; exists && !inPartition[entry.URL] {
				continue
			}
			inPartition[entry.URL] = true
			result[entry.URL] = core.Article{
				URL:         entry.URL,
				Title:       entry.Title,
				Summary:     entry.Summary,
				Source:      entry.Source,
				PublishedAt: entry.PublishedAt,
				Vector:      entry.Vector,
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("cache: failed reading partition", "path", path, "error", err)
		}
		_ = file.Close()
	}

	return result
}

// Store appends every article whose Vector is present to today's
// partition. Duplicate URLs within a day are allowed: LoadRecent returns
// the last line written for a URL on that day.
func (s *Store) Store(articles []core.Article) {
	withVector := make([]core.Article, 0, len(articles))
	for _, a := range articles {
		if len(a.Vector) > 0 {
			withVector = append(withVector, a)
		}
	}
	if len(withVector) == 0 {
		return
	}

	path := s.partitionPath(s.Clock().UTC())
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Warn("cache: failed to open partition for write", "path", path, "error", err)
		return
	}
	defer func() { _ = file.Close() }()

	writer := bufio.NewWriter(file)
	defer func() { _ = writer.Flush() }()

	for _, a := range withVector {
		entry := cacheEntry{
			URL:         a.URL,
			Title:       a.Title,
			Summary:     a.Summary,
			Source:      a.Source,
			PublishedAt: a.PublishedAt,
			Vector:      a.Vector,
		}
		line, err := json.Marshal(entry)
		if err != nil {
			logger.Warn("cache: failed to marshal article", "url", a.URL, "error", err)
			continue
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			logger.Warn("cache: failed to write article", "url", a.URL, "error", err)
		}
	}
}

// Evict removes partitions older than DefaultRetentionDays.
func (s *Store) Evict() {
	s.EvictOlderThan(DefaultRetentionDays)
}

// EvictOlderThan removes partitions whose date is more than retentionDays
// old.
func (s *Store) EvictOlderThan(retentionDays int) {
	dir := filepath.Join(s.root, "articles")
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("cache: failed to list cache directory", "dir", dir, "error", err)
		return
	}

	cutoff := s.Clock().UTC().AddDate(0, 0, -retentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		dateStr := trimSuffix(entry.Name())
		if dateStr == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				logger.Warn("cache: failed to evict partition", "path", path, "error", err)
			}
		}
	}
}

func trimSuffix(name string) string {
	const prefix = "embeddings_"
	const suffix = ".jsonl"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return ""
	}
	if len(name) <= len(prefix)+len(suffix) {
		return ""
	}
	return name[len(prefix) : len(name)-len(suffix)]
}
