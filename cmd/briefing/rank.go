package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/briefing-engine/briefing/internal/config"
	"github.com/briefing-engine/briefing/internal/ranker"
)

// newRankCmd exposes the Ranker's (C6) RankItems contract directly (spec
// §6's `func RankItems(...)` external interface) for scripting/testing a
// prompt template against a numbered item listing read from a file.
func newRankCmd() *cobra.Command {
	var itemsFile, promptFile string
	var k, batchSize int

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Select the top-k items from a numbered listing using the configured LLM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := os.ReadFile(itemsFile)
			if err != nil {
				return fmt.Errorf("briefing: read items file: %w", err)
			}
			prompt, err := os.ReadFile(promptFile)
			if err != nil {
				return fmt.Errorf("briefing: read prompt template file: %w", err)
			}

			indices := a.ranker.RankItems(cmd.Context(), string(items), string(prompt), k, batchSize)
			return json.NewEncoder(os.Stdout).Encode(indices)
		},
	}

	cmd.Flags().StringVar(&itemsFile, "items", "", "path to a newline-delimited [N] item listing")
	cmd.Flags().StringVar(&promptFile, "prompt", "", "path to a prompt template file containing one %s verb")
	cmd.Flags().IntVar(&k, "k", 10, "number of top items to select")
	cmd.Flags().IntVar(&batchSize, "batch-size", ranker.DefaultBatchSize, "items per LLM call")
	cmd.MarkFlagRequired("items")
	cmd.MarkFlagRequired("prompt")

	return cmd
}
