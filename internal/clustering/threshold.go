package clustering

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/briefing-engine/briefing/internal/core"
)

// ThresholdAgglomerative is the default news-clustering algorithm (spec
// §4.4(a)): a single-pass agglomerative pass over articles sorted by
// publication time descending, each article joining the nearest centroid
// above threshold T or starting a new cluster. Deterministic given its
// inputs and complexity O(N*K).
type ThresholdAgglomerative struct {
	cfg     Config
	labeler Labeler
}

// NewThresholdAgglomerative returns a ThresholdAgglomerative clusterer. A
// nil labeler falls back to the first article's title for every cluster.
func NewThresholdAgglomerative(cfg Config, labeler Labeler) *ThresholdAgglomerative {
	return &ThresholdAgglomerative{cfg: cfg, labeler: labeler}
}

type runningCluster struct {
	articles []core.Article
	centroid []float64
	sum      []float64 // running sum of member vectors, for O(1) centroid update
}

// Cluster groups articles into story clusters. Empty input yields an empty
// cluster list; a single article yields one singleton cluster.
func (t *ThresholdAgglomerative) Cluster(ctx context.Context, articles []core.Article) []core.Cluster {
	if len(articles) == 0 {
		return nil
	}

	sorted := make([]core.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})

	var clusters []*runningCluster
	for _, a := range sorted {
		bestIdx := -1
		bestSim := -2.0
		for i, c := range clusters {
			sim := cosineSimilarity(a.Vector, c.centroid)
			if sim > bestSim {
				bestSim = sim
				bestIdx = i
			}
			// Tie-break: prefer the older (smaller-index) cluster, so a
			// strictly-greater similarity is required to displace it.
		}

		if bestIdx >= 0 && bestSim >= t.cfg.Threshold {
			c := clusters[bestIdx]
			c.articles = append(c.articles, a)
			c.sum = addVectors(c.sum, a.Vector)
			c.centroid = scale(c.sum, 1.0/float64(len(c.articles)))
			continue
		}

		clusters = append(clusters, &runningCluster{
			articles: []core.Article{a},
			centroid: append([]float64(nil), a.Vector...),
			sum:      append([]float64(nil), a.Vector...),
		})
	}

	result := make([]core.Cluster, 0, len(clusters))
	for i, c := range clusters {
		result = append(result, t.buildCluster(ctx, i, c.articles, c.centroid))
	}
	return result
}

func (t *ThresholdAgglomerative) buildCluster(ctx context.Context, idx int, articles []core.Article, centroid []float64) core.Cluster {
	label := articles[0].Title
	if len(articles) >= 2 && t.labeler != nil {
		titles := make([]string, len(articles))
		for i, a := range articles {
			titles[i] = a.Title
		}
		if generated, err := t.labeler.Label(ctx, titles); err == nil && generated != "" {
			label = generated
		}
	}

	return core.Cluster{
		ID:             clusterID(idx),
		Label:          label,
		Articles:       articles,
		Centroid:       centroid,
		TotalCount:     len(articles),
		Representative: articles[0],
	}
}

func clusterID(idx int) string {
	return fmt.Sprintf("cluster-%d", idx)
}

func addVectors(a, b []float64) []float64 {
	if len(a) == 0 {
		return append([]float64(nil), b...)
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func scale(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1.0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return -1.0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
