package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journeybot/internal/model"
)

func catalogModules() []*model.Module {
	return []*model.Module{
		{
			ID:    "m1",
			Order: 1,
			Questions: []model.Question{
				{ID: "q1", Prompt: "one"},
				{ID: "q2", Prompt: "two"},
				{ID: "q3", Prompt: "three"},
			},
		},
		{
			ID:    "m2",
			Order: 2,
			Questions: []model.Question{
				{ID: "q4", Prompt: "four"},
				{ID: "q5", Prompt: "five"},
			},
		},
	}
}

func responsesFor(ids ...string) []*model.Response {
	out := make([]*model.Response, len(ids))
	for i, id := range ids {
		out[i] = &model.Response{ChildID: "child1", QuestionID: id, Value: 1}
	}
	return out
}

func TestFilterAnswered(t *testing.T) {
	t.Run("no responses keeps everything", func(t *testing.T) {
		filtered, resume := FilterAnswered(catalogModules(), nil)

		require.Len(t, filtered, 2)
		assert.Len(t, filtered[0].Questions, 3)
		assert.Equal(t, 3, filtered[0].TotalCount)
		assert.Equal(t, 0, filtered[0].AnsweredCount)
		assert.False(t, filtered[0].IsCompleted)
		assert.Equal(t, 0, resume.ModuleIndex)
		assert.Equal(t, 0, resume.QuestionIndex)
		assert.False(t, resume.AllComplete)
	})

	t.Run("removes answered questions preserving order", func(t *testing.T) {
		filtered, resume := FilterAnswered(catalogModules(), responsesFor("q2"))

		require.Len(t, filtered[0].Questions, 2)
		assert.Equal(t, "q1", filtered[0].Questions[0].ID)
		assert.Equal(t, "q3", filtered[0].Questions[1].ID)
		assert.Equal(t, 3, filtered[0].TotalCount)
		assert.Equal(t, 1, filtered[0].AnsweredCount)
		assert.Equal(t, 0, resume.ModuleIndex)
	})

	t.Run("resume lands on the first module with remaining questions", func(t *testing.T) {
		filtered, resume := FilterAnswered(catalogModules(), responsesFor("q1", "q2", "q3"))

		assert.True(t, filtered[0].IsCompleted)
		assert.Empty(t, filtered[0].Questions)
		assert.Equal(t, 1, resume.ModuleIndex)
		assert.Equal(t, 0, resume.QuestionIndex)
		assert.False(t, resume.AllComplete)
	})

	t.Run("all answered reports completion", func(t *testing.T) {
		filtered, resume := FilterAnswered(catalogModules(), responsesFor("q1", "q2", "q3", "q4", "q5"))

		assert.True(t, resume.AllComplete)
		for _, m := range filtered {
			assert.True(t, m.IsCompleted)
			assert.Empty(t, m.Questions)
		}
		assert.Equal(t, float64(100), CalculateProgress(filtered))
	})

	t.Run("filtering twice equals filtering once", func(t *testing.T) {
		responses := responsesFor("q1", "q4")
		once, resumeOnce := FilterAnswered(catalogModules(), responses)
		twice, resumeTwice := FilterAnswered(once, responses)

		require.Len(t, twice, len(once))
		for i := range once {
			assert.Equal(t, once[i].TotalCount, twice[i].TotalCount)
			assert.Equal(t, once[i].AnsweredCount, twice[i].AnsweredCount)
			assert.Len(t, twice[i].Questions, len(once[i].Questions))
		}
		assert.Equal(t, resumeOnce, resumeTwice)
	})

	t.Run("unknown question ids are ignored", func(t *testing.T) {
		filtered, _ := FilterAnswered(catalogModules(), responsesFor("q99"))
		assert.Len(t, filtered[0].Questions, 3)
		assert.Equal(t, 0, filtered[0].AnsweredCount)
	})

	t.Run("does not mutate the input modules", func(t *testing.T) {
		input := catalogModules()
		FilterAnswered(input, responsesFor("q1", "q2"))

		assert.Len(t, input[0].Questions, 3)
		assert.Equal(t, 0, input[0].AnsweredCount)
	})

	t.Run("unlocks modules up to the resume point", func(t *testing.T) {
		filtered, _ := FilterAnswered(catalogModules(), responsesFor("q1", "q2", "q3"))
		assert.True(t, filtered[0].IsUnlocked)
		assert.True(t, filtered[1].IsUnlocked)

		fresh, _ := FilterAnswered(catalogModules(), nil)
		assert.True(t, fresh[0].IsUnlocked)
		assert.False(t, fresh[1].IsUnlocked)
	})
}
