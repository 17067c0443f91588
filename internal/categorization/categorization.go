// Package categorization implements the Temporal Categorizer (C5): it
// classifies each Clusterer output into new/continuing/dormant/single (or
// drops it) based on how many of its articles were published today versus
// earlier, per spec §4.5. Grounded on original_source/cluster_news.py's
// cluster() function.
package categorization

import (
	"sort"
	"time"

	"github.com/briefing-engine/briefing/internal/core"
)

// Config holds the Categorizer's tunables.
type Config struct {
	// CorpusDays is how many days of cached articles feed a cluster
	// (default 3). Categorize does not read it — the cache layer already
	// bounds what articles a cluster can contain.
	CorpusDays int
	// TodayDays is how far back "today" reaches (default 1): an article is
	// "today" if PublishedAt >= now - TodayDays.
	TodayDays int
}

// DefaultConfig returns spec §4.5's defaults.
func DefaultConfig() Config {
	return Config{CorpusDays: 3, TodayDays: 1}
}

// Categorizer classifies clusters by recency.
type Categorizer struct {
	cfg   Config
	clock func() time.Time
}

// New returns a Categorizer. A nil clock defaults to time.Now.
func New(cfg Config, clock func() time.Time) *Categorizer {
	if clock == nil {
		clock = time.Now
	}
	return &Categorizer{cfg: cfg, clock: clock}
}

// categorized pairs a classified Cluster with the most recent published_at
// across its original (pre-partition) articles, used only to break sort
// ties — kept out of core.Cluster since it has no meaning past this pass.
type categorized struct {
	cluster    core.Cluster
	mostRecent time.Time
}

// Categorize classifies every cluster and returns only those that survive
// (clusters classified as "drop" per spec §4.5 are omitted). Continuing
// stories are sorted by total_count*today_count descending; new and
// dormant stories sort by total_count descending; ties break on the most
// recent published_at across the cluster's original articles, descending.
func (c *Categorizer) Categorize(clusters []core.Cluster) []core.Cluster {
	cutoff := c.clock().Add(-time.Duration(c.cfg.TodayDays) * 24 * time.Hour)

	var newStories, continuingStories, dormantStories []categorized
	var singleStories []core.Cluster

	for _, cluster := range clusters {
		mostRecent := mostRecentPublished(cluster.Articles)

		var today, older []core.Article
		for _, a := range cluster.Articles {
			if a.DateUnparseable || !a.PublishedAt.Before(cutoff) {
				today = append(today, a)
			} else {
				older = append(older, a)
			}
		}

		total := len(today) + len(older)
		if total == 0 {
			continue
		}
		cluster.RepresentativeTitle = cluster.Representative.Title

		switch {
		case len(today) > 0 && len(older) == 0:
			cluster.Articles = today
			cluster.TotalCount = total
			cluster.TodayCount = len(today)
			if total >= 2 {
				cluster.Status = core.StatusNew
				newStories = append(newStories, categorized{cluster, mostRecent})
			} else {
				cluster.Status = core.StatusSingle
				singleStories = append(singleStories, cluster)
			}

		case len(today) > 0 && len(older) > 0:
			cluster.Articles = today
			cluster.TotalCount = total
			cluster.TodayCount = len(today)
			if total >= 2 {
				cluster.Status = core.StatusContinuing
				continuingStories = append(continuingStories, categorized{cluster, mostRecent})
			} else {
				cluster.Status = core.StatusSingle
				singleStories = append(singleStories, cluster)
			}

		case len(today) == 0 && len(older) >= 2:
			cluster.Status = core.StatusDormant
			cluster.TotalCount = total
			cluster.TodayCount = 0
			cluster.Articles = nil // dormant clusters retain only the representative title
			dormantStories = append(dormantStories, categorized{cluster, mostRecent})

		default:
			// today == 0, older == 1: a lone stale article, dropped per
			// spec §4.5's "drop" row.
		}
	}

	sortByKeyDesc(continuingStories, func(cc categorized) int {
		return cc.cluster.TotalCount * cc.cluster.TodayCount
	})
	sortByKeyDesc(newStories, func(cc categorized) int { return cc.cluster.TotalCount })
	sortByKeyDesc(dormantStories, func(cc categorized) int { return cc.cluster.TotalCount })

	result := make([]core.Cluster, 0, len(continuingStories)+len(newStories)+len(dormantStories)+len(singleStories))
	result = append(result, unwrap(continuingStories)...)
	result = append(result, unwrap(newStories)...)
	result = append(result, unwrap(dormantStories)...)
	result = append(result, singleStories...)
	return result
}

func sortByKeyDesc(items []categorized, key func(categorized) int) {
	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := key(items[i]), key(items[j])
		if ki != kj {
			return ki > kj
		}
		return items[i].mostRecent.After(items[j].mostRecent)
	})
}

func unwrap(items []categorized) []core.Cluster {
	out := make([]core.Cluster, len(items))
	for i, cc := range items {
		out[i] = cc.cluster
	}
	return out
}

func mostRecentPublished(articles []core.Article) time.Time {
	var latest time.Time
	for _, a := range articles {
		if a.PublishedAt.After(latest) {
			latest = a.PublishedAt
		}
	}
	return latest
}
