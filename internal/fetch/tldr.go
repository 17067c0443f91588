package fetch

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/logger"
)

// TLDRFetcher scrapes a TLDR-style daily HTML page: each "article block" on
// the page becomes an Article, per spec §4.1.
type TLDRFetcher struct {
	client *http.Client
}

// NewTLDRFetcher returns a ready-to-use TLDRFetcher.
func NewTLDRFetcher() *TLDRFetcher {
	return &TLDRFetcher{client: &http.Client{Timeout: DefaultTimeout}}
}

var minuteReadPrefix = regexp.MustCompile(`(?i)^\(\s*\d+\s*minute\s*read\s*\)\s*`)

// Fetch skips blocks containing "(Sponsor)", trims a leading "(N minute
// read)" prefix from the summary, and extracts the block's primary link as
// the article URL. Any single block's parse failure is skipped; other
// blocks continue.
func (f *TLDRFetcher) Fetch(ctx context.Context, src core.SourceConfig, days int) []core.Article {
	ctx, cancel := withTimeout(ctx, DefaultTimeout)
	defer cancel()

	url := src.URL
	if url == "" {
		url = tldrURLForToday()
	}

	doc, err := fetchDocument(ctx, f.client, url)
	if err != nil {
		logger.Warn("fetch: tldr page failed", "source", src.Name, "url", url, "error", err)
		return nil
	}

	var articles []core.Article
	doc.Find("article, .article, [data-testid='article']").Each(func(_ int, block *goquery.Selection) {
		text := block.Text()
		if strings.Contains(text, "(Sponsor)") {
			return
		}

		link, ok := block.Find("a[href]").First().Attr("href")
		if !ok || link == "" {
			return
		}

		title := strings.TrimSpace(block.Find("h1, h2, h3").First().Text())
		summary := strings.TrimSpace(block.Find("p").First().Text())
		summary = minuteReadPrefix.ReplaceAllString(summary, "")

		articles = append(articles, core.Article{
			URL:         link,
			Title:       sanitizeTitle(title),
			Summary:     summary,
			Source:      src.Name,
			PublishedAt: time.Now().UTC(),
		})
	})
	return articles
}

func tldrURLForToday() string {
	return "https://tldr.tech/tech/" + time.Now().UTC().Format("2006-01-02")
}

func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return goquery.NewDocumentFromReader(resp.Body)
}
