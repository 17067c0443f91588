package core

import "time"

// Article is an immutable-once-published record produced by a Fetcher and
// enriched through the pipeline. URL is its canonical identity: two
// Articles are the same iff their URL matches after trimming whitespace.
type Article struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Keywords    []string  `json:"keywords,omitempty"`
	Vector      []float64 `json:"vector,omitempty"`
	Cluster     string    `json:"cluster,omitempty"`
	// DateUnparseable records that PublishedAt was defaulted to "now"
	// because the source gave no usable timestamp, per spec invariant 3.
	DateUnparseable bool `json:"date_unparseable,omitempty"`
}

// ClusterStatus is the temporal classification a Cluster receives from the
// Temporal Categorizer (C5).
type ClusterStatus string

const (
	StatusNew        ClusterStatus = "new"
	StatusContinuing ClusterStatus = "continuing"
	StatusDormant    ClusterStatus = "dormant"
	StatusSingle     ClusterStatus = "single"
)

// Cluster is a set of Articles grouped by the Clusterer (C4) and classified
// by the Temporal Categorizer (C5).
type Cluster struct {
	ID             string        `json:"id"`
	Label          string        `json:"label"`
	Articles       []Article     `json:"articles"`
	Centroid       []float64     `json:"centroid,omitempty"`
	TotalCount     int           `json:"total_count"`
	TodayCount     int           `json:"today_count"`
	Status         ClusterStatus `json:"status"`
	Representative Article       `json:"representative"`
	// RepresentativeTitle survives even when Articles has been cleared
	// for a dormant cluster (spec §4.5).
	RepresentativeTitle string `json:"representative_title,omitempty"`
}

// PaperInfo is the metadata the Citation Analyzer (C7) tracks per arXiv
// identifier, for both citing and cited papers.
type PaperInfo struct {
	ArxivID         string    `json:"arxiv_id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Published       time.Time `json:"published"`
	Summary         string    `json:"summary"`
	URL             string    `json:"url"`
	TotalCitations  int       `json:"total_citations"`
	LastUpdated     time.Time `json:"last_updated"`
	// Placeholder marks minimal metadata recorded for a cited paper before
	// it has been enriched with full details (spec §4.7 step 3).
	Placeholder bool `json:"placeholder,omitempty"`
}

// CitationEdge is one directed (cited ← citing) edge in a CitationGraph.
type CitationEdge struct {
	Citing      string    `json:"citing"`
	Cited       string    `json:"cited"`
	LastUpdated time.Time `json:"last_updated"`
}

// CitationGraph is the triple (P, R, M) of spec §3: citing papers, directed
// edges, and a metadata map keyed by arXiv ID.
type CitationGraph struct {
	CitingPapers map[string]bool
	Edges        []CitationEdge
	Metadata     map[string]PaperInfo
}

// NewCitationGraph returns an empty, ready-to-use CitationGraph.
func NewCitationGraph() *CitationGraph {
	return &CitationGraph{
		CitingPapers: make(map[string]bool),
		Edges:        make([]CitationEdge, 0),
		Metadata:     make(map[string]PaperInfo),
	}
}

// AddEdge records a citing->cited edge and marks citing as a seen citing
// paper.
func (g *CitationGraph) AddEdge(citing, cited string, at time.Time) {
	g.CitingPapers[citing] = true
	g.Edges = append(g.Edges, CitationEdge{Citing: citing, Cited: cited, LastUpdated: at})
}

// InDegree returns the number of distinct citing papers pointing at arxivID.
func (g *CitationGraph) InDegree(arxivID string) int {
	citers := make(map[string]bool)
	for _, e := range g.Edges {
		if e.Cited == arxivID {
			citers[e.Citing] = true
		}
	}
	return len(citers)
}

// RankedPaper pairs a PaperInfo with its in-degree for AnalyzeCitations
// results.
type RankedPaper struct {
	Paper    PaperInfo `json:"paper"`
	InDegree int       `json:"in_degree"`
}

// SourceType enumerates the Fetch capabilities offered by C1, replacing the
// Python original's dynamic source dicts with a closed sum type.
type SourceType string

const (
	SourceRSS     SourceType = "rss"
	SourceScrape  SourceType = "scrape"
	SourceTLDR    SourceType = "tldr"
	SourceHNDaily SourceType = "hn-daily"
)

// SourceConfig describes one configured ingest source. URL may be empty for
// tldr/hn-daily sources, whose URL is constructed internally from today's
// date.
type SourceConfig struct {
	Name string     `json:"name" mapstructure:"name"`
	URL  string     `json:"url" mapstructure:"url"`
	Type SourceType `json:"type" mapstructure:"type"`
}

// CacheState is the freshness state machine for a citation cache row
// (spec §4.7).
type CacheState string

const (
	CacheAbsent CacheState = "absent"
	CacheFresh  CacheState = "fresh"
	CacheStale  CacheState = "stale"
)
