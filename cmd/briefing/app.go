package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/briefing-engine/briefing/internal/cache"
	"github.com/briefing-engine/briefing/internal/categorization"
	"github.com/briefing-engine/briefing/internal/citations"
	"github.com/briefing-engine/briefing/internal/clustering"
	"github.com/briefing-engine/briefing/internal/config"
	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/embed"
	"github.com/briefing-engine/briefing/internal/llm"
	"github.com/briefing-engine/briefing/internal/pipeline"
	"github.com/briefing-engine/briefing/internal/ranker"
	"github.com/briefing-engine/briefing/internal/sections"
)

// llmLabeler adapts *llm.Client's Generate to clustering.Labeler, the same
// "wrap Generate in a domain-specific prompt" idiom the teacher's
// internal/llm/llm.go uses in its GenerateWhyItMattersSingle.
type llmLabeler struct {
	gen *llm.Client
}

func (l llmLabeler) Label(ctx context.Context, titles []string) (string, error) {
	prompt := fmt.Sprintf("Write a short (<= 8 word) headline summarizing these related article titles:\n%s", strings.Join(titles, "\n"))
	return l.gen.Generate(ctx, prompt)
}

// sectionBuilder is the capability cmd/briefing's corpus command dispatches
// through, satisfied by both *sections.Section and *sections.Research
// (whose Build override runs the hybrid citation merge).
type sectionBuilder interface {
	Build(ctx context.Context) sections.Result
}

// app holds every component New*Cmd's RunE needs, built once from the
// loaded configuration. Grounded on cmd/handlers/root.go's pattern of a
// command tree sharing one configuration instance via initConfig/config.Get.
type app struct {
	cfg      *config.Config
	store    *cache.Store
	llm      *llm.Client
	pipe     *pipeline.Pipeline
	ranker   *ranker.Ranker
	citeDB   *citations.Cache
	analyzer *citations.Analyzer
	registry *prometheus.Registry

	news     *sections.Section
	techNews *sections.Section
	research *sections.Research
}

// section returns the named Section Adapter (C9), or nil if name matches
// none of "news", "tech-news", "research".
func (a *app) section(name string) sectionBuilder {
	switch name {
	case "news":
		return a.news
	case "tech-news":
		return a.techNews
	case "research":
		return a.research
	default:
		return nil
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := cache.NewStore(cfg.App.DataDir)
	if err != nil {
		return nil, fmt.Errorf("briefing: open article cache: %w", err)
	}

	var llmClient *llm.Client
	var generator ranker.Generator
	var embedder pipeline.Embedder
	if cfg.AI.Gemini.APIKey != "" {
		c, err := llm.NewClient(ctx, llm.Config{
			APIKey:         cfg.AI.Gemini.APIKey,
			Model:          cfg.AI.Gemini.Model,
			EmbeddingModel: cfg.AI.Gemini.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("briefing: create llm client: %w", err)
		}
		llmClient = c
		generator = c
		embedder = embed.New(c, cfg.AI.Gemini.EmbeddingDimension).WithBatchSize(cfg.AI.Gemini.BatchSize)
	}

	var labeler clustering.Labeler
	if llmClient != nil {
		labeler = llmLabeler{gen: llmClient}
	}
	clusterer := newClusterer(cfg.Clustering, labeler)
	categorizer := categorization.New(categorization.Config{
		CorpusDays: cfg.Clustering.CorpusDays,
		TodayDays:  cfg.Clustering.TodayDays,
	}, nil)

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)

	pipe := pipeline.New(store, embedder, clusterer, categorizer, metrics, pipeline.Config{
		CorpusDays:    cfg.Clustering.CorpusDays,
		MinArticleAge: time.Duration(cfg.ContentPreferences.MinArticleAgeHours) * time.Hour,
	}, nil)

	rnk := ranker.New(generator)

	citeDB, err := citations.NewCache(filepath.Dir(cfg.Citations.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("briefing: open citation cache: %w", err)
	}
	s2 := citations.NewSemanticScholarClient("")
	analyzer := citations.NewAnalyzer(citations.Config{
		TopN:         cfg.Citations.TopN,
		MinCitations: cfg.Citations.MinCitations,
		CallTimeout:  cfg.Citations.CallTimeout,
		CallDelay:    cfg.Citations.InterCallDelay,
		CacheMaxAge:  durationDays(cfg.Citations.MaxAgeDays),
	}, citeDB, s2, s2, nil)

	allSources := sourcesFromConfig(cfg.Sources)
	topK := sections.DefaultBucketTopK()
	news := sections.NewNews(pipe, rnk, allSources, topK)
	techNews := sections.NewTechNews(pipe, rnk, allSources, topK)
	research := sections.NewResearch(pipe, rnk, analyzer, allSources, topK,
		cfg.ResearchPreferences.MaxResearchPapers, cfg.ContentPreferences.HybridResearchRanking)

	return &app{
		cfg:      cfg,
		store:    store,
		llm:      llmClient,
		pipe:     pipe,
		ranker:   rnk,
		citeDB:   citeDB,
		analyzer: analyzer,
		registry: registry,
		news:     news,
		techNews: techNews,
		research: research,
	}, nil
}

func (a *app) close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.citeDB != nil {
		_ = a.citeDB.Close()
	}
}

func newClusterer(cfg config.Clustering, labeler clustering.Labeler) clustering.Clusterer {
	cc := clustering.Config{
		Threshold:  cfg.Threshold,
		EpsStep:    cfg.EpsStep,
		EpsCount:   cfg.EpsCount,
		MinSamples: cfg.MinSamples,
	}
	if cfg.Algorithm == "dbscan" {
		return clustering.NewDBSCANLike(cc, clustering.DBSCANVariant{}, labeler)
	}
	return clustering.NewThresholdAgglomerative(cc, labeler)
}

func durationDays(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

func sourcesFromConfig(entries []config.SourceEntry) []core.SourceConfig {
	sources := make([]core.SourceConfig, len(entries))
	for i, e := range entries {
		sources[i] = core.SourceConfig{Name: e.Name, URL: e.URL, Type: core.SourceType(e.Type)}
	}
	return sources
}
