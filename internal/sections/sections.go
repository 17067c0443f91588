// Package sections implements the Section Adapters (C9): thin typed
// wrappers around a configured Ingest Pipeline (C8) and Ranker (C6) that
// own no novel logic beyond composition, per spec.md §4.9. Grounded on
// internal/services/research.go's constructor-injected-collaborators
// shape (NewResearchService holding an llm.Client and a search.Provider,
// exposing orchestration methods over them).
package sections

import (
	"context"
	"fmt"
	"strings"

	"github.com/briefing-engine/briefing/internal/citations"
	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/pipeline"
	"github.com/briefing-engine/briefing/internal/ranker"
)

// Result is a briefing section's output: each status bucket the pipeline
// produced, independently ranked down to its own top-k, plus a flattened
// Clusters listing (continuing, new, dormant, singles, in that order) for
// callers that just want one ranked list, and the flat corpus the
// pipeline built them from.
type Result struct {
	New        []core.Cluster
	Continuing []core.Cluster
	Dormant    []core.Cluster
	Singles    []core.Cluster
	Clusters   []core.Cluster
	Corpus     []core.Article
}

// BucketTopK is the per-status-bucket top-k policy C8 step 8 calls for
// ("typical: 3 continuing, 5 new, 2 dormant").
type BucketTopK struct {
	New        int
	Continuing int
	Dormant    int
	Singles    int
}

// DefaultBucketTopK returns spec §4.8 step 8's typical per-bucket top-k.
func DefaultBucketTopK() BucketTopK {
	return BucketTopK{New: 5, Continuing: 3, Dormant: 2, Singles: 5}
}

// Section composes an Ingest Pipeline with a source list, a ranking prompt
// template, and a per-bucket top-k/batch-size policy. It owns no novel
// logic: Build just calls pipeline.BuildCorpus then ranker.RankItems over
// each status bucket's representative titles.
type Section struct {
	Name           string
	Sources        []core.SourceConfig
	Pipeline       *pipeline.Pipeline
	Ranker         *ranker.Ranker
	PromptTemplate string
	TopK           BucketTopK
	BatchSize      int
}

// Build runs the section's pipeline and ranks each status bucket down to
// its own top-k, per spec §4.8 step 8 / §4.9's composition-only contract.
func (s *Section) Build(ctx context.Context) Result {
	corpus := s.Pipeline.BuildCorpus(ctx, s.Sources)
	result := Result{
		Continuing: rankClusters(ctx, s.Ranker, s.PromptTemplate, s.TopK.Continuing, s.BatchSize, corpus.Continuing),
		New:        rankClusters(ctx, s.Ranker, s.PromptTemplate, s.TopK.New, s.BatchSize, corpus.New),
		Dormant:    rankClusters(ctx, s.Ranker, s.PromptTemplate, s.TopK.Dormant, s.BatchSize, corpus.Dormant),
		Singles:    rankClusters(ctx, s.Ranker, s.PromptTemplate, s.TopK.Singles, s.BatchSize, corpus.Singles),
		Corpus:     corpus.Articles,
	}
	result.Clusters = concatClusters(result.Continuing, result.New, result.Dormant, result.Singles)
	return result
}

// concatClusters joins ranked buckets into one display-ready listing.
func concatClusters(buckets ...[]core.Cluster) []core.Cluster {
	var total int
	for _, b := range buckets {
		total += len(b)
	}
	out := make([]core.Cluster, 0, total)
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out
}

// rankClusters renders each cluster as a numbered listing line and asks
// ranker.RankItems to select the top k, falling back to the clusters'
// existing (categorizer-assigned) order when ranker is nil.
func rankClusters(ctx context.Context, r *ranker.Ranker, promptTemplate string, k, batchSize int, clusters []core.Cluster) []core.Cluster {
	if r == nil || k <= 0 || len(clusters) <= k {
		if k > 0 && len(clusters) > k {
			return clusters[:k]
		}
		return clusters
	}

	var b strings.Builder
	for i, c := range clusters {
		title := c.RepresentativeTitle
		if title == "" {
			title = c.Label
		}
		fmt.Fprintf(&b, "[%d] %s\n", i, title)
	}

	indices := r.RankItems(ctx, b.String(), promptTemplate, k, batchSize)
	selected := make([]core.Cluster, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(clusters) {
			selected = append(selected, clusters[idx])
		}
	}
	return selected
}

// News prompt ranks general daily-news clusters for broad-audience
// relevance.
const NewsPromptTemplate = `Rank these news story clusters by how broadly relevant and newsworthy they are today. Return only a JSON array of the top item indices, most relevant first.

%s`

// TechNews prompt ranks technology-focused clusters for a technical reader.
const TechNewsPromptTemplate = `Rank these technology news clusters by how significant they are to a software engineer following industry developments. Return only a JSON array of the top item indices, most relevant first.

%s`

// Research prompt ranks arXiv paper clusters for a research audience.
const ResearchPromptTemplate = `Rank these research paper clusters by novelty and relevance to an AI/ML researcher. Return only a JSON array of the top item indices, most relevant first.

%s`

// NewNews returns the News section (spec §4.9): general sources, the
// default clustering/ranking policy already configured on pipe.
func NewNews(pipe *pipeline.Pipeline, rnk *ranker.Ranker, sources []core.SourceConfig, topK BucketTopK) *Section {
	return &Section{
		Name:           "news",
		Sources:        sources,
		Pipeline:       pipe,
		Ranker:         rnk,
		PromptTemplate: NewsPromptTemplate,
		TopK:           topK,
		BatchSize:      ranker.DefaultBatchSize,
	}
}

// NewTechNews returns the TechNews section: the same composition as News,
// over a technology-focused source list and prompt.
func NewTechNews(pipe *pipeline.Pipeline, rnk *ranker.Ranker, sources []core.SourceConfig, topK BucketTopK) *Section {
	return &Section{
		Name:           "tech-news",
		Sources:        sources,
		Pipeline:       pipe,
		Ranker:         rnk,
		PromptTemplate: TechNewsPromptTemplate,
		TopK:           topK,
		BatchSize:      ranker.DefaultBatchSize,
	}
}

// Research composes the Research section's hybrid policy (spec §4.9's last
// bullet): C7's citation top-N plus C6's ranking of the remainder. Owns no
// novel logic beyond merging the two results.
type Research struct {
	Section
	Analyzer      *citations.Analyzer
	HybridTopN    int
	HybridEnabled bool
}

// NewResearch returns the Research section, wired to run arXiv clustering
// through pipe and, when hybridEnabled, to blend in the Citation
// Analyzer's top-N (capped at hybridTopN) ahead of the Ranker's pick of
// the remainder.
func NewResearch(pipe *pipeline.Pipeline, rnk *ranker.Ranker, analyzer *citations.Analyzer, sources []core.SourceConfig, topK BucketTopK, hybridTopN int, hybridEnabled bool) *Research {
	return &Research{
		Section: Section{
			Name:           "research",
			Sources:        sources,
			Pipeline:       pipe,
			Ranker:         rnk,
			PromptTemplate: ResearchPromptTemplate,
			TopK:           topK,
			BatchSize:      ranker.DefaultBatchSize,
		},
		Analyzer:      analyzer,
		HybridTopN:    hybridTopN,
		HybridEnabled: hybridEnabled,
	}
}

// Build runs the base pipeline+ranker composition; when hybrid ranking is
// enabled it additionally runs the Citation Analyzer over the corpus and
// merges its top-N ahead of the Ranker's pick of the remainder (the
// clusters across all buckets that cite none of the top-N papers), per
// spec §4.9's hybrid policy bullet.
func (r *Research) Build(ctx context.Context) Result {
	result := r.Section.Build(ctx)
	if !r.HybridEnabled || r.Analyzer == nil {
		return result
	}

	ranked, err := r.Analyzer.AnalyzeCitations(ctx, result.Corpus)
	if err != nil || len(ranked) == 0 {
		return result
	}
	if r.HybridTopN > 0 && len(ranked) > r.HybridTopN {
		ranked = ranked[:r.HybridTopN]
	}

	cited := make(map[string]bool, len(ranked))
	for _, p := range ranked {
		cited[p.Paper.ArxivID] = true
	}

	remainder := make([]core.Cluster, 0, len(result.Clusters))
	for _, c := range result.Clusters {
		if !clusterCitesAny(c, cited) {
			remainder = append(remainder, c)
		}
	}

	merged := make([]core.Cluster, 0, len(ranked)+len(remainder))
	for _, p := range ranked {
		merged = append(merged, citationCluster(p))
	}
	if r.HybridTopN > 0 && len(merged) < r.HybridTopN {
		remaining := r.HybridTopN - len(merged)
		if remaining > len(remainder) {
			remaining = len(remainder)
		}
		merged = append(merged, remainder[:remaining]...)
	} else if r.HybridTopN <= 0 {
		merged = append(merged, remainder...)
	}

	result.Clusters = merged
	return result
}

// clusterCitesAny reports whether c's representative or any of its
// articles is one of arxivIDs — checked via Representative too since a
// dormant cluster's Articles has already been cleared (spec §4.5).
func clusterCitesAny(c core.Cluster, arxivIDs map[string]bool) bool {
	if arxivIDs[citations.ExtractArxivID(c.Representative.URL)] {
		return true
	}
	for _, a := range c.Articles {
		if arxivIDs[citations.ExtractArxivID(a.URL)] {
			return true
		}
	}
	return false
}

// citationCluster wraps a single ranked paper as a single-article,
// already-ranked cluster so it can be merged into the section's result
// listing alongside the Ranker's clusters.
func citationCluster(p core.RankedPaper) core.Cluster {
	article := core.Article{
		URL:         p.Paper.URL,
		Title:       p.Paper.Title,
		Summary:     p.Paper.Summary,
		PublishedAt: p.Paper.Published,
	}
	return core.Cluster{
		ID:                  p.Paper.ArxivID,
		Label:               p.Paper.Title,
		Articles:            []core.Article{article},
		TotalCount:          p.InDegree,
		TodayCount:          0,
		Status:              core.StatusSingle,
		Representative:      article,
		RepresentativeTitle: p.Paper.Title,
	}
}
