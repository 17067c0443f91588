package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/logger"
)

// HNDailyFetcher scrapes a Hacker-News-daily-digest-style page, per
// spec §4.1: every anchor whose visible text is not "comments" and does
// not mention "hacker news" becomes an Article with an empty summary.
type HNDailyFetcher struct {
	client *http.Client
}

// NewHNDailyFetcher returns a ready-to-use HNDailyFetcher.
func NewHNDailyFetcher() *HNDailyFetcher {
	return &HNDailyFetcher{client: &http.Client{Timeout: DefaultTimeout}}
}

func (f *HNDailyFetcher) Fetch(ctx context.Context, src core.SourceConfig, days int) []core.Article {
	ctx, cancel := withTimeout(ctx, DefaultTimeout)
	defer cancel()

	url := src.URL
	if url == "" {
		url = hnDailyURLForToday()
	}

	doc, err := fetchDocument(ctx, f.client, url)
	if err != nil {
		logger.Warn("fetch: hn-daily page failed", "source", src.Name, "url", url, "error", err)
		return nil
	}

	now := time.Now().UTC()
	var articles []core.Article
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		text := strings.TrimSpace(a.Text())
		lower := strings.ToLower(text)
		if text == "" || lower == "comments" || strings.Contains(lower, "hacker news") {
			return
		}
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		articles = append(articles, core.Article{
			URL:         href,
			Title:       sanitizeTitle(text),
			Summary:     "",
			Source:      src.Name,
			PublishedAt: now,
		})
	})
	return articles
}

func hnDailyURLForToday() string {
	return "https://hckrnews.com/" + time.Now().UTC().Format("2006-01-02") + ".html"
}
