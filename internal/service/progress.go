package service

import "journeybot/internal/model"

// CalculateProgress returns the overall completion percentage across
// modules, in [0,100]. Sums use the original per-module totals so the
// figure reflects lifetime completion, not just the current run.
func CalculateProgress(modules []*model.Module) float64 {
	var answered, total int
	for _, m := range modules {
		answered += m.AnsweredCount
		total += m.TotalCount
	}
	if total == 0 {
		return 0
	}
	pct := 100 * float64(answered) / float64(total)
	if pct > 100 {
		pct = 100
	}
	return pct
}
