package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/logger"
)

// RSSFetcher parses an RSS/Atom/RDF feed with gofeed, the idiom adopted
// from the wider example pack in place of the teacher's hand-rolled
// encoding/xml parser (see DESIGN.md).
type RSSFetcher struct {
	client *http.Client
}

// NewRSSFetcher returns a ready-to-use RSSFetcher.
func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{client: &http.Client{Timeout: DefaultTimeout}}
}

// Fetch keeps entries with a publication (or update) timestamp within the
// last `days` days, strips HTML from summaries, drops empty-summary
// entries, sanitizes titles, and preserves the feed-level keyword set.
func (f *RSSFetcher) Fetch(ctx context.Context, src core.SourceConfig, days int) []core.Article {
	ctx, cancel := withTimeout(ctx, DefaultTimeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.UserAgent = "briefing-engine/1.0"
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		logger.Warn("fetch: rss parse failed", "source", src.Name, "url", src.URL, "error", err)
		return nil
	}

	var keywords []string
	for _, cat := range feed.Categories {
		keywords = append(keywords, cat)
	}

	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	var articles []core.Article
	for _, item := range feed.Items {
		publishedAt := item.PublishedParsed
		if publishedAt == nil {
			publishedAt = item.UpdatedParsed
		}
		unparseable := publishedAt == nil
		var pub time.Time
		if unparseable {
			pub = time.Now().UTC()
		} else {
			pub = *publishedAt
		}
		if !unparseable && pub.Before(cutoff) {
			continue
		}

		summary := stripHTML(item.Description)
		if summary == "" {
			summary = stripHTML(item.Content)
		}
		if summary == "" {
			continue
		}

		articles = append(articles, core.Article{
			URL:             item.Link,
			Title:           sanitizeTitle(item.Title),
			Summary:         summary,
			Source:          src.Name,
			PublishedAt:     pub,
			Keywords:        keywords,
			DateUnparseable: unparseable,
		})
	}
	return articles
}
