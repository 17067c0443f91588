package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/briefing-engine/briefing/internal/core"
)

func TestSanitizeTitle(t *testing.T) {
	got := sanitizeTitle("Go <1.23> released")
	if strings.ContainsAny(got, "<>") {
		t.Errorf("expected angle brackets stripped, got %q", got)
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Hello <b>world</b></p>")
	if got != "Hello world" {
		t.Errorf("expected 'Hello world', got %q", got)
	}
}

func TestForSourceUnknownTypeReturnsNoop(t *testing.T) {
	f := ForSource(core.SourceConfig{Name: "mystery", Type: "carrier-pigeon"})
	articles := f.Fetch(context.Background(), core.SourceConfig{Name: "mystery"}, 3)
	if articles != nil {
		t.Errorf("expected nil articles from unknown source type, got %v", articles)
	}
}

func TestRSSFetcherParsesFeedAndFiltersByAge(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-1 * time.Hour).Format(time.RFC1123Z)
	old := now.Add(-30 * 24 * time.Hour).Format(time.RFC1123Z)

	feedXML := `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Test Feed</title>
<item><title>Recent &lt;Item&gt;</title><link>https://example.com/recent</link><description>&lt;p&gt;Recent summary&lt;/p&gt;</description><pubDate>` + recent + `</pubDate></item>
<item><title>Old Item</title><link>https://example.com/old</link><description>&lt;p&gt;Old summary&lt;/p&gt;</description><pubDate>` + old + `</pubDate></item>
<item><title>No Summary</title><link>https://example.com/empty</link><description></description><pubDate>` + recent + `</pubDate></item>
</channel></rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer server.Close()

	fetcher := NewRSSFetcher()
	articles := fetcher.Fetch(context.Background(), core.SourceConfig{Name: "test", URL: server.URL, Type: core.SourceRSS}, 1)

	if len(articles) != 1 {
		t.Fatalf("expected 1 article within the age window and with a non-empty summary, got %d: %+v", len(articles), articles)
	}
	if articles[0].URL != "https://example.com/recent" {
		t.Errorf("expected recent article, got %s", articles[0].URL)
	}
	if strings.ContainsAny(articles[0].Title, "<>") {
		t.Errorf("expected title sanitized of angle brackets, got %q", articles[0].Title)
	}
	if articles[0].Summary != "Recent summary" {
		t.Errorf("expected HTML-stripped summary, got %q", articles[0].Summary)
	}
}

func TestRSSFetcherInvalidURLReturnsEmpty(t *testing.T) {
	fetcher := NewRSSFetcher()
	articles := fetcher.Fetch(context.Background(), core.SourceConfig{Name: "bad", URL: "://not-a-url", Type: core.SourceRSS}, 3)
	if articles != nil {
		t.Errorf("expected nil articles on fetch failure, got %v", articles)
	}
}

func TestTLDRFetcherSkipsSponsorsAndTrimsReadTime(t *testing.T) {
	html := `<html><body>
<article>
  <h3>Big Launch</h3>
  <p>(5 minute read) Something happened in tech today.</p>
  <a href="https://example.com/big-launch">read more</a>
</article>
<article>
  <h3>Ad Block (Sponsor)</h3>
  <p>Buy our thing</p>
  <a href="https://example.com/ad">buy</a>
</article>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	fetcher := NewTLDRFetcher()
	articles := fetcher.Fetch(context.Background(), core.SourceConfig{Name: "tldr", URL: server.URL, Type: core.SourceTLDR}, 1)

	if len(articles) != 1 {
		t.Fatalf("expected 1 non-sponsor article, got %d: %+v", len(articles), articles)
	}
	if articles[0].URL != "https://example.com/big-launch" {
		t.Errorf("expected primary link extracted, got %s", articles[0].URL)
	}
	if strings.Contains(articles[0].Summary, "minute read") {
		t.Errorf("expected minute-read prefix trimmed, got %q", articles[0].Summary)
	}
}

func TestHNDailyFetcherSkipsCommentsAndHNLinks(t *testing.T) {
	html := `<html><body>
<a href="https://example.com/story">Interesting story title</a>
<a href="https://news.ycombinator.com/item?id=1">comments</a>
<a href="https://news.ycombinator.com/">Hacker News</a>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	fetcher := NewHNDailyFetcher()
	articles := fetcher.Fetch(context.Background(), core.SourceConfig{Name: "hn", URL: server.URL, Type: core.SourceHNDaily}, 1)

	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d: %+v", len(articles), articles)
	}
	if articles[0].URL != "https://example.com/story" {
		t.Errorf("expected story link, got %s", articles[0].URL)
	}
	if articles[0].Summary != "" {
		t.Errorf("expected empty summary for hn-daily article, got %q", articles[0].Summary)
	}
}
