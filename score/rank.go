package score

import (
	"sort"

	"toolscout/model"
)

// Rank orders scored tools by total score, highest first, without mutating
// the input. The sort is stable, so equal totals keep their scoring order.
func Rank(scored []model.ScoredTool) []model.ScoredTool {
	out := make([]model.ScoredTool, len(scored))
	copy(out, scored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.TotalScore > out[j].Score.TotalScore
	})
	return out
}
