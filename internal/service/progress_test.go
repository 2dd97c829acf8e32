package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"journeybot/internal/model"
)

func TestCalculateProgress(t *testing.T) {
	tests := []struct {
		name    string
		modules []*model.Module
		want    float64
	}{
		{
			name:    "no modules",
			modules: nil,
			want:    0,
		},
		{
			name: "zero totals",
			modules: []*model.Module{
				{AnsweredCount: 0, TotalCount: 0},
			},
			want: 0,
		},
		{
			name: "halfway across modules",
			modules: []*model.Module{
				{AnsweredCount: 2, TotalCount: 3},
				{AnsweredCount: 1, TotalCount: 3},
			},
			want: 50,
		},
		{
			name: "complete",
			modules: []*model.Module{
				{AnsweredCount: 3, TotalCount: 3},
				{AnsweredCount: 2, TotalCount: 2},
			},
			want: 100,
		},
		{
			name: "overshoot is capped",
			modules: []*model.Module{
				{AnsweredCount: 5, TotalCount: 3},
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateProgress(tt.modules))
		})
	}
}

func TestCalculateProgressMonotonic(t *testing.T) {
	modules := []*model.Module{
		{TotalCount: 3},
		{TotalCount: 2},
	}

	prev := CalculateProgress(modules)
	for i := 0; i < 5; i++ {
		if modules[0].AnsweredCount < 3 {
			modules[0].AnsweredCount++
		} else {
			modules[1].AnsweredCount++
		}
		cur := CalculateProgress(modules)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	assert.Equal(t, float64(100), prev)
}
