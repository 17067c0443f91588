package citations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/briefing-engine/briefing/internal/core"
)

// baseURL is the Semantic Scholar Graph API root, the same REST surface
// original_source/arxiv_citations.py's `semanticscholar` SDK wraps. A var,
// not a const, so tests can point it at an httptest server.
var baseURL = "https://api.semanticscholar.org/graph/v1"

// SemanticScholarClient resolves arXiv IDs to references and metadata via
// the Semantic Scholar Graph API, grounded on
// internal/search/serpapi.go's net/http + encoding/json REST-call idiom
// (no pack dependency wraps this API, so the ambient stdlib HTTP client is
// the correct tool here — see DESIGN.md).
type SemanticScholarClient struct {
	apiKey string
	client *http.Client
}

// NewSemanticScholarClient returns a client. apiKey may be empty to use the
// API's unauthenticated (lower) rate limit, matching the Python original's
// optional api_key.
func NewSemanticScholarClient(apiKey string) *SemanticScholarClient {
	return &SemanticScholarClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type s2ExternalIDs struct {
	ArXiv string `json:"ArXiv"`
}

type s2Reference struct {
	ExternalIDs s2ExternalIDs `json:"externalIds"`
}

type s2Author struct {
	Name string `json:"name"`
}

type s2Paper struct {
	Title                    string        `json:"title"`
	Abstract                 string        `json:"abstract"`
	PublicationDate          string        `json:"publicationDate"`
	CitationCount            int           `json:"citationCount"`
	InfluentialCitationCount int           `json:"influentialCitationCount"`
	Authors                  []s2Author    `json:"authors"`
	References               []s2Reference `json:"references"`
}

func (s *SemanticScholarClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	fullURL := baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("citations: build request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("citations: semantic scholar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("citations: semantic scholar returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("citations: decode response: %w", err)
	}
	return nil
}

// References implements ReferenceFetcher: it returns the arXiv IDs this
// paper cites, following the Python original's get_paper_references
// (ignore references whose externalIds carry no ArXiv identifier).
func (s *SemanticScholarClient) References(ctx context.Context, arxivID string) ([]string, error) {
	var paper s2Paper
	params := url.Values{"fields": {"references.externalIds"}}
	if err := s.get(ctx, "/paper/ARXIV:"+arxivID, params, &paper); err != nil {
		return nil, err
	}

	var refs []string
	for _, ref := range paper.References {
		if id := ExtractArxivID(ref.ExternalIDs.ArXiv); id != "" {
			refs = append(refs, id)
		}
	}
	return refs, nil
}

// Paper implements PaperFetcher: it returns a paper's full metadata,
// matching the Python original's enrich_paper_info.
func (s *SemanticScholarClient) Paper(ctx context.Context, arxivID string) (core.PaperInfo, error) {
	var paper s2Paper
	params := url.Values{"fields": {"title,abstract,authors,publicationDate,citationCount,influentialCitationCount"}}
	if err := s.get(ctx, "/paper/ARXIV:"+arxivID, params, &paper); err != nil {
		return core.PaperInfo{}, err
	}

	authors := make([]string, 0, len(paper.Authors))
	for _, a := range paper.Authors {
		authors = append(authors, a.Name)
	}

	published, _ := time.Parse("2006-01-02", paper.PublicationDate)

	title := paper.Title
	if title == "" {
		title = "Unknown"
	}

	return core.PaperInfo{
		ArxivID:        arxivID,
		Title:          title,
		Authors:        authors,
		Published:      published,
		Summary:        paper.Abstract,
		URL:            fmt.Sprintf("https://arxiv.org/abs/%s", arxivID),
		TotalCitations: paper.CitationCount,
	}, nil
}
