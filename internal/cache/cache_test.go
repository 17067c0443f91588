package cache

import (
	"testing"
	"time"

	"github.com/briefing-engine/briefing/internal/core"
)

func TestStoreAndLoadRecentRoundtrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	now := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	store.Clock = func() time.Time { return now }

	articles := []core.Article{
		{URL: "https://example.com/a", Title: "A", Summary: "summary a", Source: "feed", PublishedAt: now, Vector: []float64{0.6, 0.8}},
		{URL: "https://example.com/no-vector", Title: "B", Summary: "summary b", Source: "feed", PublishedAt: now},
	}
	store.Store(articles)

	loaded := store.LoadRecent(7)
	if len(loaded) != 1 {
		t.Fatalf("expected only the article with a vector to be persisted, got %d entries", len(loaded))
	}
	got, ok := loaded["https://example.com/a"]
	if !ok {
		t.Fatal("expected https://example.com/a to be present")
	}
	if got.Title != "A" || got.Summary != "summary a" || got.Source != "feed" {
		t.Errorf("roundtripped article fields do not match: %+v", got)
	}
	if len(got.Vector) != 2 || got.Vector[0] != 0.6 {
		t.Errorf("expected vector to roundtrip, got %v", got.Vector)
	}
}

func TestLoadRecentMostRecentDayWins(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	day1 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

	store.Clock = func() time.Time { return day1 }
	store.Store([]core.Article{{URL: "https://example.com/a", Title: "old title", PublishedAt: day1, Vector: []float64{1, 0}}})

	store.Clock = func() time.Time { return day2 }
	store.Store([]core.Article{{URL: "https://example.com/a", Title: "new title", PublishedAt: day2, Vector: []float64{0, 1}}})

	loaded := store.LoadRecent(7)
	got, ok := loaded["https://example.com/a"]
	if !ok {
		t.Fatal("expected article to be present")
	}
	if got.Title != "new title" {
		t.Errorf("expected most-recent-day-wins, got title %q", got.Title)
	}
}

func TestLoadRecentSkipsMissingPartitions(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	loaded := store.LoadRecent(7)
	if len(loaded) != 0 {
		t.Errorf("expected empty map for a fresh cache, got %d entries", len(loaded))
	}
}

func TestEvictOlderThanRemovesStalePartitions(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

	store.Clock = func() time.Time { return old }
	store.Store([]core.Article{{URL: "https://example.com/old", PublishedAt: old, Vector: []float64{1, 0}}})

	store.Clock = func() time.Time { return recent }
	store.Store([]core.Article{{URL: "https://example.com/recent", PublishedAt: recent, Vector: []float64{0, 1}}})
	store.EvictOlderThan(7)

	loaded := store.LoadRecent(30)
	if _, ok := loaded["https://example.com/old"]; ok {
		t.Error("expected old partition to be evicted")
	}
	if _, ok := loaded["https://example.com/recent"]; !ok {
		t.Error("expected recent partition to survive eviction")
	}
}
