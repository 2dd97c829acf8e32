package service

import "journeybot/internal/model"

// ResumePosition points at the module/question an interrupted
// conversation should continue from
type ResumePosition struct {
	ModuleIndex   int
	QuestionIndex int
	AllComplete   bool
}

// FilterAnswered removes questions that already have a stored response
// from freshly fetched modules and locates the resume position. The
// relative order of remaining questions is preserved, and the counters
// are recomputed from the original totals so progress reflects lifetime
// completion. Applying the filter twice with the same responses yields
// the same result as applying it once.
func FilterAnswered(modules []*model.Module, responses []*model.Response) ([]*model.Module, ResumePosition) {
	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		answered[r.QuestionID] = true
	}

	filtered := make([]*model.Module, 0, len(modules))
	resume := ResumePosition{AllComplete: true}

	for i, m := range modules {
		// Original total: TotalCount survives re-filtering of an
		// already-filtered module, otherwise it is the question count.
		originalTotal := m.TotalCount
		if originalTotal == 0 {
			originalTotal = len(m.Questions)
		}

		remaining := make([]model.Question, 0, len(m.Questions))
		for _, q := range m.Questions {
			if !answered[q.ID] {
				remaining = append(remaining, q)
			}
		}

		fm := *m
		fm.Questions = remaining
		fm.TotalCount = originalTotal
		fm.AnsweredCount = originalTotal - len(remaining)
		fm.IsCompleted = len(remaining) == 0
		filtered = append(filtered, &fm)

		if resume.AllComplete && len(remaining) > 0 {
			resume = ResumePosition{ModuleIndex: i, QuestionIndex: 0}
		}
	}

	// Unlock every module up to and including the resume point;
	// completed modules stay unlocked.
	for i, m := range filtered {
		m.IsUnlocked = i == 0 || filtered[i-1].IsCompleted
	}

	return filtered, resume
}
