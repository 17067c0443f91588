package citations

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/logger"
)

// ReferenceFetcher resolves an arXiv ID to the arXiv IDs it references, via
// an external citation service (e.g. Semantic Scholar). Implementations
// must respect ctx's deadline; the analyzer itself also enforces a
// per-call timeout so a hung upstream never stalls the whole run (spec §9:
// "signal-based timeout... replace with per-call deadline contexts").
type ReferenceFetcher interface {
	References(ctx context.Context, arxivID string) ([]string, error)
}

// PaperFetcher resolves an arXiv ID to its full metadata for the
// enrichment step (spec §4.7 step 5).
type PaperFetcher interface {
	Paper(ctx context.Context, arxivID string) (core.PaperInfo, error)
}

// Config holds the Citation Analyzer's tunables.
type Config struct {
	Days          int           // how far back to consider citing papers
	TopN          int           // papers to return (default 10)
	MinCitations  int           // in-degree floor (default 2)
	CallTimeout   time.Duration // per-call deadline (default 30s)
	CallDelay     time.Duration // inter-call delay to respect rate limits (default 500ms)
	CacheMaxAge   time.Duration // cache freshness window (default 30 days)
}

// DefaultConfig returns spec §4.7's defaults.
func DefaultConfig() Config {
	return Config{
		Days:         1,
		TopN:         10,
		MinCitations: 2,
		CallTimeout:  30 * time.Second,
		CallDelay:    500 * time.Millisecond,
		CacheMaxAge:  30 * 24 * time.Hour,
	}
}

// Analyzer builds a citation graph over recently-seen arXiv papers and
// surfaces the most-cited ones, backed by a Cache, a circuit breaker, and
// a rate limiter around the upstream ReferenceFetcher/PaperFetcher.
type Analyzer struct {
	cfg      Config
	cache    *Cache
	refs     ReferenceFetcher
	papers   PaperFetcher
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	clock    func() time.Time
}

// NewAnalyzer returns an Analyzer. A nil clock defaults to time.Now.
func NewAnalyzer(cfg Config, cache *Cache, refs ReferenceFetcher, papers PaperFetcher, clock func() time.Time) *Analyzer {
	if clock == nil {
		clock = time.Now
	}
	settings := gobreaker.Settings{
		Name:        "citation-upstream",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("citations: circuit breaker state change", "circuit", name, "from", from.String(), "to", to.String())
		},
	}
	return &Analyzer{
		cfg:     cfg,
		cache:   cache,
		refs:    refs,
		papers:  papers,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Every(cfg.CallDelay), 1),
		clock:   clock,
	}
}

var arxivIDPattern = regexp.MustCompile(`(\d{4}\.\d{4,5})`)

// ExtractArxivID pulls a clean arXiv identifier (e.g. "2101.12345",
// version suffix stripped) out of a URL or raw ID string, or returns ""
// if none is found.
func ExtractArxivID(urlOrID string) string {
	return arxivIDPattern.FindString(urlOrID)
}

// AnalyzeCitations runs spec §4.7's full pipeline over citingArticles
// (already collected by C1/C8): build the citation graph, select the
// top-N cited papers with in_degree >= min_citations, and enrich their
// metadata. It never panics or returns a partial-graph error: upstream
// failures degrade individual papers to empty reference lists or
// placeholder/cached metadata (spec §8 scenario S6).
func (a *Analyzer) AnalyzeCitations(ctx context.Context, citingArticles []core.Article) ([]core.RankedPaper, error) {
	graph := core.NewCitationGraph()

	for _, article := range citingArticles {
		arxivID := ExtractArxivID(article.URL)
		if arxivID == "" {
			continue
		}

		graph.Metadata[arxivID] = core.PaperInfo{
			ArxivID:   arxivID,
			Title:     article.Title,
			Summary:   article.Summary,
			URL:       article.URL,
			Published: article.PublishedAt,
		}

		refs, err := a.resolveReferences(ctx, arxivID)
		if err != nil {
			logger.Warn("citations: references unavailable, skipping paper", "arxiv_id", arxivID, "error", err)
			continue
		}

		for _, cited := range refs {
			graph.AddEdge(arxivID, cited, a.clock())
			if _, ok := graph.Metadata[cited]; !ok {
				graph.Metadata[cited] = core.PaperInfo{
					ArxivID:     cited,
					Title:       "Unknown",
					URL:         fmt.Sprintf("https://arxiv.org/abs/%s", cited),
					Placeholder: true,
				}
			}
		}
	}

	ranked := a.rankTopN(graph)
	a.enrich(ctx, ranked)
	return ranked, nil
}

// resolveReferences consults the cache first; on a miss it calls through
// the circuit breaker and rate limiter, with a per-call deadline, and
// persists the result on success.
func (a *Analyzer) resolveReferences(ctx context.Context, arxivID string) ([]string, error) {
	now := a.clock()
	if a.cache != nil {
		state, err := a.cache.State(arxivID, a.cfg.CacheMaxAge, now)
		if err == nil && state == core.CacheFresh {
			return a.cache.GetCitations(arxivID, a.cfg.CacheMaxAge, now)
		}
	}

	if a.refs == nil {
		return nil, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.refs.References(callCtx, arxivID)
	})
	if err != nil {
		return nil, err
	}
	refs, _ := result.([]string)

	if a.cache != nil {
		if err := a.cache.PutCitations(arxivID, refs, now); err != nil {
			logger.Warn("citations: failed to persist citations", "arxiv_id", arxivID, "error", err)
		}
	}
	return refs, nil
}

// rankTopN selects papers with in_degree >= min_citations, sorted by
// in-degree descending with arXiv-ID ascending ties (spec §8 property #8).
func (a *Analyzer) rankTopN(graph *core.CitationGraph) []core.RankedPaper {
	seen := make(map[string]bool)
	var candidates []core.RankedPaper
	for _, edge := range graph.Edges {
		if seen[edge.Cited] {
			continue
		}
		seen[edge.Cited] = true
		inDegree := graph.InDegree(edge.Cited)
		if inDegree < a.cfg.MinCitations {
			continue
		}
		candidates = append(candidates, core.RankedPaper{
			Paper:    graph.Metadata[edge.Cited],
			InDegree: inDegree,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].InDegree != candidates[j].InDegree {
			return candidates[i].InDegree > candidates[j].InDegree
		}
		return candidates[i].Paper.ArxivID < candidates[j].Paper.ArxivID
	})

	topN := a.cfg.TopN
	if topN > len(candidates) {
		topN = len(candidates)
	}
	return candidates[:topN]
}

// AnalyzeFromCache reproduces steps 4-5 of spec §4.7 (rank + enrich) from
// the persisted SQLite cache alone, with no fresh RSS fetch and no call
// to ReferenceFetcher: the citation graph is the cache's own edge table,
// aggregated the same way original_source/citation_cache.py's
// get_most_cited does. Still-missing paper metadata is enriched through
// PaperFetcher with the same timeout/breaker/rate-limit discipline as
// AnalyzeCitations. minCitations/topN of 0 fall back to the Analyzer's
// configured defaults.
func (a *Analyzer) AnalyzeFromCache(ctx context.Context, minCitations, topN int) ([]core.RankedPaper, error) {
	if a.cache == nil {
		return nil, fmt.Errorf("citations: rebuild-from-cache requires a cache")
	}
	if minCitations <= 0 {
		minCitations = a.cfg.MinCitations
	}
	if topN <= 0 {
		topN = a.cfg.TopN
	}

	ranked, err := a.cache.GetMostCited(minCitations, topN)
	if err != nil {
		return nil, fmt.Errorf("citations: rebuild from cache: %w", err)
	}
	a.enrich(ctx, ranked)
	return ranked, nil
}

// enrich fetches full metadata for the top-N papers, replacing their
// placeholder info in place. Any failure or timeout leaves the existing
// cache/placeholder info untouched (spec §4.7 step 5).
func (a *Analyzer) enrich(ctx context.Context, ranked []core.RankedPaper) {
	if a.papers == nil {
		return
	}
	for i := range ranked {
		arxivID := ranked[i].Paper.ArxivID

		if a.cache != nil {
			if cached, ok, err := a.cache.GetPaper(arxivID); err == nil && ok && !cached.Placeholder {
				ranked[i].Paper = cached
				continue
			}
		}

		if err := a.limiter.Wait(ctx); err != nil {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
		result, err := a.breaker.Execute(func() (interface{}, error) {
			return a.papers.Paper(callCtx, arxivID)
		})
		cancel()
		if err != nil {
			logger.Warn("citations: enrichment failed, keeping placeholder", "arxiv_id", arxivID, "error", err)
			continue
		}
		info, ok := result.(core.PaperInfo)
		if !ok {
			continue
		}
		ranked[i].Paper = info
		if a.cache != nil {
			if err := a.cache.PutPaper(info, a.clock()); err != nil {
				logger.Warn("citations: failed to persist enriched paper", "arxiv_id", arxivID, "error", err)
			}
		}
	}
}
