package ranking

import (
	"sort"

	"github.com/hyperjump/florafind/internal/models"
)

// Ranker orders scored results and caps how many are returned.
type Ranker struct {
	limit int
}

// NewRanker creates a Ranker that keeps at most limit results. A non-positive
// limit uses the default.
func NewRanker(limit int) *Ranker {
	if limit <= 0 {
		limit = DefaultScoringConfig().ResultLimit
	}
	return &Ranker{limit: limit}
}

// Rank deduplicates results by record id (first wins), sorts them by relevance
// descending and truncates to the limit. Equal relevance keeps input order.
func (r *Ranker) Rank(results []*models.ScoredResult) []*models.ScoredResult {
	return Rank(results, r.limit)
}

// Rank is the stateless form of Ranker.Rank. A non-positive limit returns every result.
func Rank(results []*models.ScoredResult, limit int) []*models.ScoredResult {
	ranked := dedupe(results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func dedupe(results []*models.ScoredResult) []*models.ScoredResult {
	out := make([]*models.ScoredResult, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, res := range results {
		if res == nil || res.Record == nil {
			continue
		}
		if seen[res.Record.ID] {
			continue
		}
		seen[res.Record.ID] = true
		out = append(out, res)
	}
	return out
}
