package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/briefing-engine/briefing/internal/config"
	"github.com/briefing-engine/briefing/internal/core"
)

// newCitationsCmd runs the Citation Analyzer (C7), either over the
// currently cached article corpus (live mode, spec §4.7 steps 1-5) or,
// with --from-cache, purely from the persisted SQLite citation graph
// (rebuild-from-cache mode: "given only the SQLite cache, reproduce step
// 4 and step 5 without any fresh RSS fetch").
func newCitationsCmd() *cobra.Command {
	var days int
	var fromCache bool

	cmd := &cobra.Command{
		Use:   "citations",
		Short: "Rank the most-cited recent arXiv papers referenced by the cached corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			if fromCache {
				ranked, err := a.analyzer.AnalyzeFromCache(cmd.Context(), cfg.Citations.MinCitations, cfg.Citations.TopN)
				if err != nil {
					return fmt.Errorf("briefing: rebuild citations from cache: %w", err)
				}
				return json.NewEncoder(os.Stdout).Encode(ranked)
			}

			if days <= 0 {
				days = cfg.Clustering.CorpusDays
			}
			cached := a.store.LoadRecent(days)
			var citing []core.Article
			for _, article := range cached {
				citing = append(citing, article)
			}

			ranked, err := a.analyzer.AnalyzeCitations(cmd.Context(), citing)
			if err != nil {
				return fmt.Errorf("briefing: analyze citations: %w", err)
			}

			return json.NewEncoder(os.Stdout).Encode(ranked)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "days of cached articles to analyze (default: clustering.corpus_days)")
	cmd.Flags().BoolVar(&fromCache, "from-cache", false, "rebuild the ranking from the persisted citation cache alone, with no fresh fetch")
	return cmd
}
