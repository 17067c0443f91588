// Package pipeline implements the Ingest Pipeline (C8): it fans the
// configured sources out to their Fetchers, merges with the cached
// corpus, embeds anything missing a vector, clusters, categorizes, and
// persists the result back to the cache. Grounded on
// internal/pipeline/pipeline.go's constructor-injected-interfaces shape,
// with the bounded-fanout idiom from
// Tsuchiya2-catchup-feed-backend/internal/usecase/fetch/service.go's
// errgroup.WithContext use.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/briefing-engine/briefing/internal/cache"
	"github.com/briefing-engine/briefing/internal/categorization"
	"github.com/briefing-engine/briefing/internal/clustering"
	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/fetch"
	"github.com/briefing-engine/briefing/internal/logger"
)

// Embedder is the capability the pipeline uses to vectorize any cached or
// freshly-fetched article that is missing its Vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Config holds the Ingest Pipeline's tunables.
type Config struct {
	// FetchConcurrency bounds how many sources are fetched at once
	// (default 8, per spec §4.8).
	FetchConcurrency int
	// CorpusDays is how many days of cached articles feed clustering
	// (default 3).
	CorpusDays int
	// MinArticleAge drops freshly fetched articles younger than this
	// (spec §4.8 step 3's `min_article_age_hours`, default 0/disabled).
	MinArticleAge time.Duration
}

// DefaultConfig returns spec §4.8's defaults.
func DefaultConfig() Config {
	return Config{FetchConcurrency: 8, CorpusDays: 3}
}

// Corpus is BuildCorpus's structured result (spec §4.8 step 9 and §6's
// abstract `BuildCorpus(sources, cfg) -> {new, continuing, dormant,
// singles}`): clusters partitioned by the Temporal Categorizer's status,
// plus the flat article set that produced them.
type Corpus struct {
	New        []core.Cluster
	Continuing []core.Cluster
	Dormant    []core.Cluster
	Singles    []core.Cluster
	Articles   []core.Article
}

// Pipeline orchestrates C1 (Fetchers) -> C2 (Cache) -> C3 (Embedder) ->
// C4 (Clusterer) -> C5 (Categorizer) into the BuildCorpus operation.
type Pipeline struct {
	store       *cache.Store
	embedder    Embedder
	clusterer   clustering.Clusterer
	categorizer *categorization.Categorizer
	metrics     *Metrics
	cfg         Config
	clock       func() time.Time
}

// New returns a Pipeline. metrics may be nil to disable instrumentation.
// A nil clock defaults to time.Now.
func New(store *cache.Store, embedder Embedder, clusterer clustering.Clusterer, categorizer *categorization.Categorizer, metrics *Metrics, cfg Config, clock func() time.Time) *Pipeline {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = DefaultConfig().FetchConcurrency
	}
	if cfg.CorpusDays <= 0 {
		cfg.CorpusDays = DefaultConfig().CorpusDays
	}
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{store: store, embedder: embedder, clusterer: clusterer, categorizer: categorizer, metrics: metrics, cfg: cfg, clock: clock}
}

// BuildCorpus runs the ingest pipeline's single external operation (spec
// §4.8): fetch every configured source (bounded fan-out, each fetcher's
// own failures absorbed per C1's contract), drop articles younger than
// the configured age floor, merge with the cached corpus by URL, embed
// anything still missing a vector, persist the merged corpus back to the
// cache, cluster, categorize, and partition the result into the
// {new, continuing, dormant, singles} buckets step 9 returns.
func (p *Pipeline) BuildCorpus(ctx context.Context, sources []core.SourceConfig) Corpus {
	fetched := p.fetchAll(ctx, sources)
	fetched = filterByAge(fetched, p.cfg.MinArticleAge, p.clock())

	cached := p.store.LoadRecent(p.cfg.CorpusDays)
	merged := mergeByURL(cached, fetched)

	p.embedMissing(ctx, merged)

	corpus := make([]core.Article, 0, len(merged))
	for _, a := range merged {
		corpus = append(corpus, a)
	}

	p.store.Store(corpus)

	clusters := p.clusterer.Cluster(ctx, corpus)
	if p.metrics != nil {
		p.metrics.ClustersBuilt.Add(float64(len(clusters)))
	}

	categorized := p.categorizer.Categorize(clusters)
	return partitionByStatus(categorized, corpus)
}

// filterByAge drops articles published more recently than minAge before
// now (spec §4.8 step 3). A zero/negative minAge disables the floor.
func filterByAge(articles []core.Article, minAge time.Duration, now time.Time) []core.Article {
	if minAge <= 0 {
		return articles
	}
	cutoff := now.Add(-minAge)
	kept := make([]core.Article, 0, len(articles))
	for _, a := range articles {
		if a.PublishedAt.After(cutoff) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// partitionByStatus splits the Categorizer's single ordered listing into
// the four status buckets, preserving the within-bucket order Categorize
// already established.
func partitionByStatus(categorized []core.Cluster, articles []core.Article) Corpus {
	result := Corpus{Articles: articles}
	for _, c := range categorized {
		switch c.Status {
		case core.StatusNew:
			result.New = append(result.New, c)
		case core.StatusContinuing:
			result.Continuing = append(result.Continuing, c)
		case core.StatusDormant:
			result.Dormant = append(result.Dormant, c)
		default:
			result.Singles = append(result.Singles, c)
		}
	}
	return result
}

// fetchAll dispatches every source to its Fetcher concurrently, bounded
// by cfg.FetchConcurrency. A single source's failure cannot fail the
// whole run — Fetcher.Fetch never returns an error, only a (possibly
// empty) article slice, per spec §4.1's contract.
func (p *Pipeline) fetchAll(ctx context.Context, sources []core.SourceConfig) []core.Article {
	sem := make(chan struct{}, p.cfg.FetchConcurrency)
	eg, egCtx := errgroup.WithContext(ctx)

	results := make([][]core.Article, len(sources))
	for i, src := range sources {
		i, src := i, src
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			fetcher := fetch.ForSource(src)
			articles := fetcher.Fetch(egCtx, src, p.cfg.CorpusDays)
			results[i] = articles
			if p.metrics != nil {
				p.metrics.ArticlesFetched.WithLabelValues(src.Name).Add(float64(len(articles)))
			}
			return nil
		})
	}
	// Every goroutine above always returns nil, so Wait only blocks until
	// all of them complete; there is no error path to check.
	_ = eg.Wait()

	var all []core.Article
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// mergeByURL combines the cached corpus with freshly fetched articles,
// with fresh data winning on URL collision (a re-fetch may have refreshed
// the summary), but the cached Vector is preserved when the fresh article
// doesn't carry one yet (spec §4.2's cache-first dedup semantics).
func mergeByURL(cached map[string]core.Article, fetched []core.Article) map[string]core.Article {
	merged := make(map[string]core.Article, len(cached)+len(fetched))
	for url, a := range cached {
		merged[url] = a
	}
	for _, a := range fetched {
		if existing, ok := merged[a.URL]; ok && len(a.Vector) == 0 {
			a.Vector = existing.Vector
		}
		merged[a.URL] = a
	}
	return merged
}

// embedMissing vectorizes every article in merged that has no Vector yet,
// in place. A failure of the embedding backend (spec's
// ErrEmbedderUnavailable) is logged once and leaves those articles
// vector-less — downstream clustering degrades to singleton clusters for
// them rather than the whole run failing.
func (p *Pipeline) embedMissing(ctx context.Context, merged map[string]core.Article) {
	if p.embedder == nil {
		return
	}

	var urls []string
	var texts []string
	for url, a := range merged {
		if len(a.Vector) == 0 {
			urls = append(urls, url)
			texts = append(texts, a.Title+"\n"+a.Summary)
		}
	}
	if len(texts) == 0 {
		return
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		logger.Warn("pipeline: embedding unavailable, proceeding without vectors", "error", err)
		return
	}
	for i, url := range urls {
		if i >= len(vectors) {
			break
		}
		a := merged[url]
		a.Vector = vectors[i]
		merged[url] = a
	}
}
