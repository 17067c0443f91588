package clustering

import (
	"context"
	"testing"
	"time"

	"github.com/briefing-engine/briefing/internal/core"
)

func TestThresholdAgglomerativeEmptyInput(t *testing.T) {
	ta := NewThresholdAgglomerative(DefaultConfig(), nil)
	clusters := ta.Cluster(context.Background(), nil)
	if clusters != nil {
		t.Errorf("expected nil clusters for empty input, got %v", clusters)
	}
}

func TestThresholdAgglomerativeSingleton(t *testing.T) {
	ta := NewThresholdAgglomerative(DefaultConfig(), nil)
	articles := []core.Article{
		{Title: "Only One", Vector: []float64{1, 0}, PublishedAt: time.Now()},
	}
	clusters := ta.Cluster(context.Background(), articles)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].TotalCount != 1 {
		t.Errorf("expected singleton cluster, got %d members", clusters[0].TotalCount)
	}
}

func TestThresholdAgglomerativeGroupsSimilarArticles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 0.9
	ta := NewThresholdAgglomerative(cfg, nil)
	now := time.Now()
	articles := []core.Article{
		{Title: "A", Vector: []float64{1, 0}, PublishedAt: now},
		{Title: "B", Vector: []float64{1, 0.01}, PublishedAt: now.Add(-time.Minute)},
		{Title: "C", Vector: []float64{0, 1}, PublishedAt: now.Add(-2 * time.Minute)},
	}
	clusters := ta.Cluster(context.Background(), articles)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters (A+B merged, C separate), got %d", len(clusters))
	}
}

// TestThresholdAgglomerativeStability covers spec §8 property #10: running
// the same input through the clusterer twice yields the same grouping.
func TestThresholdAgglomerativeStability(t *testing.T) {
	cfg := DefaultConfig()
	ta := NewThresholdAgglomerative(cfg, nil)
	now := time.Now()
	articles := []core.Article{
		{Title: "A", Vector: []float64{1, 0}, PublishedAt: now},
		{Title: "B", Vector: []float64{0.9, 0.1}, PublishedAt: now.Add(-time.Minute)},
		{Title: "C", Vector: []float64{0, 1}, PublishedAt: now.Add(-2 * time.Minute)},
		{Title: "D", Vector: []float64{-1, 0}, PublishedAt: now.Add(-3 * time.Minute)},
	}
	first := ta.Cluster(context.Background(), articles)
	second := ta.Cluster(context.Background(), articles)
	if len(first) != len(second) {
		t.Fatalf("expected stable cluster count, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].TotalCount != second[i].TotalCount {
			t.Errorf("cluster %d: unstable membership count, %d vs %d", i, first[i].TotalCount, second[i].TotalCount)
		}
	}
}

func TestDBSCANLikeEmptyInput(t *testing.T) {
	d := NewDBSCANLike(DefaultConfig(), DBSCANVariant{}, nil)
	clusters := d.Cluster(context.Background(), nil)
	if clusters != nil {
		t.Errorf("expected nil clusters for empty input, got %v", clusters)
	}
}

func TestDBSCANLikeSingleton(t *testing.T) {
	d := NewDBSCANLike(DefaultConfig(), DBSCANVariant{}, nil)
	articles := []core.Article{
		{Title: "Only One", Vector: []float64{1, 0}}, // single point: no distance matrix needed
	}
	clusters := d.Cluster(context.Background(), articles)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
}

func TestDBSCANLikeGroupsDenseNeighbors(t *testing.T) {
	d := NewDBSCANLike(DefaultConfig(), DBSCANVariant{}, nil)
	articles := []core.Article{
		{Title: "A1", Vector: []float64{1, 0}},
		{Title: "A2", Vector: []float64{0.999, 0.001}},
		{Title: "A3", Vector: []float64{0.998, 0.002}},
		{Title: "B1", Vector: []float64{0, 1}},
	}
	clusters := d.Cluster(context.Background(), articles)
	if len(clusters) == 0 {
		t.Fatal("expected at least one cluster")
	}
	total := 0
	for _, c := range clusters {
		total += c.TotalCount
	}
	if total != len(articles) {
		t.Errorf("expected all %d articles accounted for, got %d", len(articles), total)
	}
}

func TestDBSCANLikeKeywordVariant(t *testing.T) {
	d := NewDBSCANLike(DefaultConfig(), DBSCANVariant{Keyword: true}, nil)
	articles := []core.Article{
		{Title: "A1", Keywords: []string{"golang", "concurrency"}},
		{Title: "A2", Keywords: []string{"golang", "concurrency", "channels"}},
		{Title: "B1", Keywords: []string{"cooking", "recipes"}},
	}
	clusters := d.Cluster(context.Background(), articles)
	total := 0
	for _, c := range clusters {
		total += c.TotalCount
	}
	if total != len(articles) {
		t.Errorf("expected all %d articles accounted for, got %d", len(articles), total)
	}
}

func TestRelabelNoiseAssignsUniqueIDs(t *testing.T) {
	labels := []int{0, -1, 0, -1}
	relabelNoise(labels)
	if labels[1] == labels[3] {
		t.Errorf("expected distinct ids for separate noise points, got %v", labels)
	}
	if labels[0] != 0 || labels[2] != 0 {
		t.Errorf("expected real cluster labels unaffected, got %v", labels)
	}
}
