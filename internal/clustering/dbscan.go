package clustering

import (
	"context"
	"sort"

	"github.com/briefing-engine/briefing/internal/core"
)

// DBSCANLike is the alternative clustering algorithm (spec §4.4(b)): a
// density-based sweep over a precomputed distance matrix, choosing the eps
// in a small candidate set that maximizes the silhouette score. Grounded on
// original_source/cluster.py's cluster_vectors_similarity (cosine-distance
// variant) and cluster_jaccard_similarity (keyword variant).
type DBSCANLike struct {
	cfg     Config
	variant DBSCANVariant
	labeler Labeler
}

// NewDBSCANLike returns a DBSCANLike clusterer for the given variant.
func NewDBSCANLike(cfg Config, variant DBSCANVariant, labeler Labeler) *DBSCANLike {
	return &DBSCANLike{cfg: cfg, variant: variant, labeler: labeler}
}

// Cluster groups articles by sweeping eps over {EpsStep*k, k=1..EpsCount}
// and keeping the labeling with the highest average silhouette score. Noise
// points (label -1) are relabeled to unique singleton ids so every article
// ends up in some cluster.
func (d *DBSCANLike) Cluster(ctx context.Context, articles []core.Article) []core.Cluster {
	n := len(articles)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []core.Cluster{d.buildCluster(ctx, 0, articles)}
	}

	var distances [][]float64
	if d.variant.Keyword {
		distances = DistanceMatrix(keywordVectors(articles), jaccardDistance)
	} else {
		vectors := make([][]float64, n)
		for i, a := range articles {
			vectors[i] = a.Vector
		}
		distances = DistanceMatrix(vectors, CosineDistance)
	}

	bestLabels := defaultLabels(n)
	bestScore := -2.0
	for k := 1; k <= d.cfg.EpsCount; k++ {
		eps := d.cfg.EpsStep * float64(k)
		labels := dbscan(distances, eps, d.cfg.MinSamples)
		relabelNoise(labels)
		if !hasAtLeastTwoClusters(labels) {
			continue
		}
		score := AverageSilhouetteScore(labels, distances)
		if score > bestScore {
			bestScore = score
			bestLabels = labels
		}
	}

	groups := make(map[int][]int) // label -> article indices
	var order []int
	for i, label := range bestLabels {
		if _, ok := groups[label]; !ok {
			order = append(order, label)
		}
		groups[label] = append(groups[label], i)
	}
	sort.Ints(order)

	result := make([]core.Cluster, 0, len(order))
	for idx, label := range order {
		members := make([]core.Article, len(groups[label]))
		for j, i := range groups[label] {
			members[j] = articles[i]
		}
		result = append(result, d.buildClusterFrom(ctx, idx, members))
	}
	return result
}

func (d *DBSCANLike) buildCluster(ctx context.Context, idx int, articles []core.Article) core.Cluster {
	return d.buildClusterFrom(ctx, idx, articles)
}

func (d *DBSCANLike) buildClusterFrom(ctx context.Context, idx int, articles []core.Article) core.Cluster {
	label := articles[0].Title
	if len(articles) >= 2 && d.labeler != nil {
		titles := make([]string, len(articles))
		for i, a := range articles {
			titles[i] = a.Title
		}
		if generated, err := d.labeler.Label(ctx, titles); err == nil && generated != "" {
			label = generated
		}
	}

	var centroid []float64
	for _, a := range articles {
		centroid = addVectors(centroid, a.Vector)
	}
	if len(articles) > 0 && len(centroid) > 0 {
		centroid = scale(centroid, 1.0/float64(len(articles)))
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

// dbscan is a minimal DBSCAN over a precomputed distance matrix: every
// point starts unvisited; core points (those with >= minSamples neighbors
// within eps) seed a new cluster that absorbs all density-reachable
// neighbors. Points that never join a cluster are left labeled -1 (noise).
func dbscan(distances [][]float64, eps float64, minSamples int) []int {
	n := len(distances)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	visited := make([]bool, n)
	nextLabel := 0

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := regionQuery(distances, i, eps)
		if len(neighbors) < minSamples {
			continue // stays noise, may be absorbed later by another core point
		}

		labels[i] = nextLabel
		queue := append([]int(nil), neighbors...)
		for qi := 0; qi < len(queue); qi++ {
			j := queue[qi]
			if !visited[j] {
				visited[j] = true
				jNeighbors := regionQuery(distances, j, eps)
				if len(jNeighbors) >= minSamples {
					queue = append(queue, jNeighbors...)
				}
			}
			if labels[j] < 0 {
				labels[j] = nextLabel
			}
		}
		nextLabel++
	}
	return labels
}

func regionQuery(distances [][]float64, i int, eps float64) []int {
	var out []int
	for j, dist := range distances[i] {
		if j != i && dist <= eps {
			out = append(out, j)
		}
	}
	return out
}

// relabelNoise gives every noise point (-1) its own singleton cluster id,
// distinct from any real cluster label, per original_source/cluster.py's
// `labels[ii] = 999-ii` convention.
func relabelNoise(labels []int) {
	maxLabel := -1
	for _, l := range labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	next := maxLabel + 1
	for i, l := range labels {
		if l < 0 {
			labels[i] = next
			next++
		}
	}
}

func hasAtLeastTwoClusters(labels []int) bool {
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
		if len(seen) >= 2 {
			return true
		}
	}
	return false
}

// defaultLabels is the fallback labeling when no eps candidate produces a
// usable (>=2 cluster) silhouette score: every article is its own cluster.
func defaultLabels(n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}
	return labels
}

// keywordVectors builds a multi-hot encoding of each article's keywords
// over the corpus-wide keyword vocabulary, for the Jaccard-distance variant.
func keywordVectors(articles []core.Article) [][]float64 {
	vocab := make(map[string]int)
	for _, a := range articles {
		for _, k := range a.Keywords {
			if _, ok := vocab[k]; !ok {
				vocab[k] = len(vocab)
			}
		}
	}
	vectors := make([][]float64, len(articles))
	for i, a := range articles {
		v := make([]float64, len(vocab))
		for _, k := range a.Keywords {
			v[vocab[k]] = 1
		}
		vectors[i] = v
	}
	return vectors
}

// jaccardDistance treats each vector as a multi-hot keyword set: distance
// is 1 - |intersection|/|union|. Two empty sets are defined as maximally
// distant (no evidence of similarity).
func jaccardDistance(a, b []float64) float64 {
	var intersection, union float64
	for i := range a {
		if a[i] != 0 || b[i] != 0 {
			union++
			if a[i] != 0 && b[i] != 0 {
				intersection++
			}
		}
	}
	if union == 0 {
		return 1.0
	}
	return 1.0 - intersection/union
}
