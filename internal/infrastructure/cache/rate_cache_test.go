package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRateCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss on empty cache", func(t *testing.T) {
		c := NewInMemoryRateCache()

		_, ok, err := c.GetRates(ctx, "USD")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		c := NewInMemoryRateCache()
		rates := map[string]decimal.Decimal{
			"EUR": decimal.NewFromFloat(0.92),
			"INR": decimal.NewFromFloat(83.10),
		}

		require.NoError(t, c.SetRates(ctx, "USD", rates, time.Hour))

		got, ok, err := c.GetRates(ctx, "USD")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, rates["EUR"].Equal(got["EUR"]))
		assert.True(t, rates["INR"].Equal(got["INR"]))
	})

	t.Run("bases are independent", func(t *testing.T) {
		c := NewInMemoryRateCache()
		require.NoError(t, c.SetRates(ctx, "USD", map[string]decimal.Decimal{"EUR": decimal.NewFromFloat(0.92)}, time.Hour))

		_, ok, err := c.GetRates(ctx, "EUR")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		c := NewInMemoryRateCache()
		require.NoError(t, c.SetRates(ctx, "USD", map[string]decimal.Decimal{"EUR": decimal.NewFromFloat(0.92)}, -time.Second))

		_, ok, err := c.GetRates(ctx, "USD")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("overwrite replaces rates", func(t *testing.T) {
		c := NewInMemoryRateCache()
		require.NoError(t, c.SetRates(ctx, "USD", map[string]decimal.Decimal{"EUR": decimal.NewFromFloat(0.92)}, time.Hour))
		require.NoError(t, c.SetRates(ctx, "USD", map[string]decimal.Decimal{"EUR": decimal.NewFromFloat(0.95)}, time.Hour))

		got, ok, err := c.GetRates(ctx, "USD")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, decimal.NewFromFloat(0.95).Equal(got["EUR"]))
	})
}
