package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/logger"
)

// ScrapeFetcher treats src.URL as a single web page with no feed of its
// own: the page itself becomes one Article, per spec §4.1's "scrape"
// source type. Title prefers the page's <h1>, falling back to <title>;
// summary is the first non-empty paragraph inside article/main/body. The
// page carries no machine-readable publish date, so PublishedAt is set to
// fetch time and the article is flagged unparseable.
type ScrapeFetcher struct {
	client *http.Client
}

// NewScrapeFetcher returns a ready-to-use ScrapeFetcher.
func NewScrapeFetcher() *ScrapeFetcher {
	return &ScrapeFetcher{client: &http.Client{Timeout: DefaultTimeout}}
}

func (f *ScrapeFetcher) Fetch(ctx context.Context, src core.SourceConfig, days int) []core.Article {
	ctx, cancel := withTimeout(ctx, DefaultTimeout)
	defer cancel()

	if src.URL == "" {
		logger.Warn("fetch: scrape source missing url", "source", src.Name)
		return nil
	}

	doc, err := fetchDocument(ctx, f.client, src.URL)
	if err != nil {
		logger.Warn("fetch: scrape page failed", "source", src.Name, "url", src.URL, "error", err)
		return nil
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		logger.Warn("fetch: scrape page has no title", "source", src.Name, "url", src.URL)
		return nil
	}

	summary := strings.TrimSpace(doc.Find("article p, main p, body p").First().Text())

	return []core.Article{{
		URL:             src.URL,
		Title:           sanitizeTitle(title),
		Summary:         summary,
		Source:          src.Name,
		PublishedAt:     time.Now().UTC(),
		DateUnparseable: true,
	}}
}
