package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/briefing-engine/briefing/internal/config"
	"github.com/briefing-engine/briefing/internal/logger"
)

var cfgFile string

// newRootCmd builds the briefing CLI's command tree, grounded on
// cmd/handlers/root.go's cobra.OnInitialize + persistent --config flag
// shape, trimmed to this spec's three operations.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "briefing",
		Short: "Daily briefing engine: ingest, cluster, rank, and analyze citations",
		Long: `briefing builds a categorized, ranked daily briefing from configured
news and research sources, caching articles across days and optionally
surfacing the most-cited recent arXiv papers.`,
	}

	cobra.OnInitialize(initConfig)
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.briefing.yaml or $HOME/.briefing.yaml)")

	root.AddCommand(newCorpusCmd())
	root.AddCommand(newRankCmd())
	root.AddCommand(newCitationsCmd())

	return root
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Logging.Level)
	logger.Init()
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
