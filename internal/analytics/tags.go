package analytics

import (
	"sort"
	"strings"

	"trade-journal/internal/models"
)

// TagStats rolls closed trades up by tag. A trade with k distinct tags
// counts once in each of its k groups. Groups are ordered by descending
// count, then alphabetically.
func TagStats(trades []NormalizedTrade) []models.TagStat {
	type agg struct {
		count int
		wins  int
		pnl   float64
	}
	groups := make(map[string]*agg)

	for _, t := range trades {
		seen := make(map[string]struct{}, len(t.Trade.Tags))
		for _, raw := range t.Trade.Tags {
			tag := strings.TrimSpace(raw)
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}

			g, ok := groups[tag]
			if !ok {
				g = &agg{}
				groups[tag] = g
			}
			g.count++
			g.pnl += t.PnL
			if t.Win {
				g.wins++
			}
		}
	}

	out := make([]models.TagStat, 0, len(groups))
	for tag, g := range groups {
		out = append(out, models.TagStat{
			Tag:     tag,
			PnL:     g.pnl,
			WinRate: float64(g.wins) / float64(g.count) * 100,
			Count:   g.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
