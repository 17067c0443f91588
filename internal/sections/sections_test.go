package sections

import (
	"context"
	"testing"
	"time"

	"github.com/briefing-engine/briefing/internal/cache"
	"github.com/briefing-engine/briefing/internal/categorization"
	"github.com/briefing-engine/briefing/internal/citations"
	"github.com/briefing-engine/briefing/internal/clustering"
	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/pipeline"
	"github.com/briefing-engine/briefing/internal/ranker"
)

type stubGenerator struct {
	response string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

func newTestPipeline(t *testing.T, now time.Time, seeded []core.Article) *pipeline.Pipeline {
	t.Helper()
	store, err := cache.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	store.Clock = func() time.Time { return now }
	if len(seeded) > 0 {
		store.Store(seeded)
	}
	ta := clustering.NewThresholdAgglomerative(clustering.DefaultConfig(), nil)
	cat := categorization.New(categorization.DefaultConfig(), func() time.Time { return now })
	clock := func() time.Time { return now }
	return pipeline.New(store, nil, ta, cat, nil, pipeline.DefaultConfig(), clock)
}

func TestSectionBuildRanksClusters(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seeded := []core.Article{
		{URL: "https://ex.com/a", Title: "A", PublishedAt: now, Vector: []float64{1, 0}},
		{URL: "https://ex.com/b", Title: "B", PublishedAt: now, Vector: []float64{0, 1}},
	}
	pipe := newTestPipeline(t, now, seeded)
	rnk := ranker.New(&stubGenerator{response: "[0]"})

	section := NewNews(pipe, rnk, nil, BucketTopK{Singles: 1})
	result := section.Build(context.Background())

	if len(result.Clusters) != 1 {
		t.Fatalf("expected 1 ranked cluster, got %d: %+v", len(result.Clusters), result.Clusters)
	}
	if len(result.Corpus) != 2 {
		t.Errorf("expected corpus of 2 articles, got %d", len(result.Corpus))
	}
}

func TestSectionBuildWithNilRankerKeepsOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seeded := []core.Article{
		{URL: "https://ex.com/a", Title: "A", PublishedAt: now, Vector: []float64{1, 0}},
		{URL: "https://ex.com/b", Title: "B", PublishedAt: now.Add(-time.Hour), Vector: []float64{0, 1}},
	}
	pipe := newTestPipeline(t, now, seeded)
	section := NewTechNews(pipe, nil, nil, DefaultBucketTopK())
	result := section.Build(context.Background())
	if len(result.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(result.Clusters))
	}
	// The clusterer orders by publication time, newest first; a nil ranker
	// leaves that order unchanged.
	if result.Clusters[0].RepresentativeTitle != "A" || result.Clusters[1].RepresentativeTitle != "B" {
		t.Errorf("expected clusters in order A, B, got %q, %q", result.Clusters[0].RepresentativeTitle, result.Clusters[1].RepresentativeTitle)
	}
}

type stubRefFetcher struct {
	refs map[string][]string
}

func (s *stubRefFetcher) References(ctx context.Context, arxivID string) ([]string, error) {
	return s.refs[arxivID], nil
}

func TestResearchBuildMergesCitationTopN(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seeded := []core.Article{
		{URL: "https://arxiv.org/abs/2401.10001", Title: "Citing Paper", PublishedAt: now, Vector: []float64{1, 0}},
		{URL: "https://ex.com/unrelated", Title: "Unrelated", PublishedAt: now, Vector: []float64{0, 1}},
	}
	pipe := newTestPipeline(t, now, seeded)

	fetcher := &stubRefFetcher{refs: map[string][]string{
		"2401.10001": {"2401.00001", "2401.00002"},
	}}
	cfg := citations.DefaultConfig()
	cfg.MinCitations = 1
	analyzer := citations.NewAnalyzer(cfg, nil, fetcher, nil, func() time.Time { return now })

	research := NewResearch(pipe, nil, analyzer, nil, DefaultBucketTopK(), 5, true)
	result := research.Build(context.Background())

	if len(result.Clusters) == 0 {
		t.Fatal("expected at least one merged cluster")
	}
}
