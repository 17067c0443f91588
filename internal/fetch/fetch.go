// Package fetch implements the Source Fetchers (C1): polymorphic fetchers
// (RSS/Atom, TLDR, HN-daily and single-page scrape) over the capability
// set {Fetch(source, days) -> []Article}, per
// spec §4.1. Every fetcher is independently cancellable, applies a
// per-request timeout, and never propagates an error upward — a failed
// fetch returns an empty slice and logs at Warn.
package fetch

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/logger"
)

// DefaultTimeout is the per-request timeout applied by every fetcher when
// the caller does not already carry a deadline, per spec §4.1.
const DefaultTimeout = 10 * time.Second

// Fetcher is the capability C8 fans out over.
type Fetcher interface {
	Fetch(ctx context.Context, src core.SourceConfig, days int) []core.Article
}

// ForSource returns the Fetcher implementation for a source's type.
func ForSource(src core.SourceConfig) Fetcher {
	switch src.Type {
	case core.SourceRSS:
		return NewRSSFetcher()
	case core.SourceTLDR:
		return NewTLDRFetcher()
	case core.SourceHNDaily:
		return NewHNDailyFetcher()
	case core.SourceScrape:
		return NewScrapeFetcher()
	default:
		return noopFetcher{}
	}
}

type noopFetcher struct{}

func (noopFetcher) Fetch(ctx context.Context, src core.SourceConfig, days int) []core.Article {
	logger.Warn("fetch: unknown source type", "source", src.Name, "type", src.Type)
	return nil
}

var sanitizeRegexp = regexp.MustCompile(`[<>]`)

// sanitizeTitle strips angle brackets from a title, per spec §4.1.
func sanitizeTitle(title string) string {
	return sanitizeRegexp.ReplaceAllString(title, "")
}

// stripHTML renders an HTML fragment down to its visible text, the same
// goquery idiom the teacher's internal/fetch/fetch.go uses for its
// extractTitle/ParseArticleContent.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

// withTimeout applies the timeout d to ctx unless ctx already carries a
// deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
