package clustering

import (
	"context"

	"github.com/briefing-engine/briefing/internal/core"
)

// Config holds the Clusterer's tunables, exposed per spec §9's Open
// Question resolution: threshold T and the DBSCAN eps sweep are
// configuration, never hard-coded constants.
type Config struct {
	// Threshold is T for the threshold-agglomerative algorithm (default 0.575).
	Threshold float64
	// EpsStep and EpsCount define the DBSCAN eps sweep {EpsStep*k} for
	// k=1..EpsCount (defaults 0.01, 30). Both DBSCANLike variants sweep
	// with this same EpsStep; DBSCANVariant{Keyword: true} does not switch
	// to a different step.
	EpsStep  float64
	EpsCount int
	// MinSamples is DBSCAN's min_samples (default 2).
	MinSamples int
}

// DefaultConfig returns spec §4.4's defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:  0.575,
		EpsStep:    0.01,
		EpsCount:   30,
		MinSamples: 2,
	}
}

// DBSCANVariant selects between the cosine-distance-over-vectors variant
// (default) and the keyword-Jaccard-distance variant from
// original_source/cluster.py's cluster_jaccard_similarity (SPEC_FULL §10
// supplemented feature).
type DBSCANVariant struct {
	Keyword bool
}

// Labeler is the C6 capability the Clusterer asks for a short cluster
// label; on any failure the Clusterer keeps the first article's title
// instead (spec §4.4).
type Labeler interface {
	Label(ctx context.Context, titles []string) (string, error)
}

// Clusterer is the capability C8 fans articles into: both
// ThresholdAgglomerative and DBSCANLike satisfy it.
type Clusterer interface {
	Cluster(ctx context.Context, articles []core.Article) []core.Cluster
}
