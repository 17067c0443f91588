package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/briefing-engine/briefing/internal/config"
)

// newCorpusCmd runs one Section Adapter's (C9) Build operation end to end:
// the Ingest Pipeline (C8) fetches, merges, embeds, clusters, and
// categorizes every configured source, then the section ranks each status
// bucket per spec §4.8 step 8 (and, for research, blends in the Citation
// Analyzer's top-N). It prints the structured {new, continuing, dormant,
// singles} result as JSON.
func newCorpusCmd() *cobra.Command {
	var sectionName string

	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Build today's ranked briefing section from configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			sec := a.section(sectionName)
			if sec == nil {
				return fmt.Errorf("briefing: unknown section %q (want news, tech-news, or research)", sectionName)
			}

			result := sec.Build(cmd.Context())
			fmt.Fprintf(os.Stderr, "%s: %d articles, %d new, %d continuing, %d dormant, %d singles\n",
				sectionName, len(result.Corpus), len(result.New), len(result.Continuing), len(result.Dormant), len(result.Singles))
			return json.NewEncoder(os.Stdout).Encode(result)
		},
	}

	cmd.Flags().StringVar(&sectionName, "section", "news", "section to build: news, tech-news, or research")
	return cmd
}
