package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journeybot/internal/model"
)

func TestCatalogCache(t *testing.T) {
	c := NewCatalogCache(newTestRedis(t))
	ctx := context.Background()

	modules := []*model.Module{
		{ID: "m1", Title: "First Half Year", MinMonths: 0, MaxMonths: 6, Order: 1,
			Questions: []model.Question{{ID: "q1", Prompt: "one"}}},
		{ID: "m2", Title: "Second Half Year", MinMonths: 6, MaxMonths: 12, Order: 2},
	}

	t.Run("miss returns nil without error", func(t *testing.T) {
		out, err := c.GetForAge(ctx, 8)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("round trip per age bucket", func(t *testing.T) {
		require.NoError(t, c.SetForAge(ctx, 8, modules))

		out, err := c.GetForAge(ctx, 8)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "m1", out[0].ID)
		assert.Len(t, out[0].Questions, 1)

		other, err := c.GetForAge(ctx, 3)
		require.NoError(t, err)
		assert.Nil(t, other, "buckets are independent")
	})

	t.Run("invalidate drops every bucket", func(t *testing.T) {
		require.NoError(t, c.SetForAge(ctx, 8, modules))
		require.NoError(t, c.SetForAge(ctx, 14, modules))

		require.NoError(t, c.Invalidate(ctx))

		for _, age := range []int{8, 14} {
			out, err := c.GetForAge(ctx, age)
			require.NoError(t, err)
			assert.Nil(t, out)
		}
	})
}
