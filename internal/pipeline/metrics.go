package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Ingest Pipeline's Prometheus instrumentation, grounded
// on PureCypher-Information-Broker/metrics.go's CounterVec-per-concern
// shape.
type Metrics struct {
	ArticlesFetched *prometheus.CounterVec
	ClustersBuilt   prometheus.Counter
}

// NewMetrics creates and registers the pipeline's metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ArticlesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefing_articles_fetched_total",
			Help: "Articles returned by a source fetcher, labeled by source name.",
		}, []string{"source"}),
		ClustersBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "briefing_clusters_built_total",
			Help: "Clusters produced by the Clusterer across all runs.",
		}),
	}
	reg.MustRegister(m.ArticlesFetched, m.ClustersBuilt)
	return m
}
