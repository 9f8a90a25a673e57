package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	entries := []domain.CatalogEntry{
		{ID: 1, Name: "Whole Milk", ExpiryDate: "2025-01-10"},
		{ID: 2, Name: "Salted Butter", ExpiryDate: "2025-02-14"},
	}

	t.Run("set and get round trip", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "catalog", entries, time.Minute))

		got, err := c.Get(ctx, "catalog")
		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("missing key returns cache miss", func(t *testing.T) {
		c := NewMemoryCache()
		_, err := c.Get(ctx, "catalog")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("expired snapshot returns cache miss", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "catalog", entries, -time.Second))

		_, err := c.Get(ctx, "catalog")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("delete removes the snapshot", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "catalog", entries, time.Minute))
		require.NoError(t, c.Delete(ctx, "catalog"))

		_, err := c.Get(ctx, "catalog")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
		assert.Equal(t, 0, c.Size())
	})

	t.Run("callers cannot mutate the cached snapshot", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "catalog", entries, time.Minute))

		first, err := c.Get(ctx, "catalog")
		require.NoError(t, err)
		first[0].Name = "mutated"

		second, err := c.Get(ctx, "catalog")
		require.NoError(t, err)
		assert.Equal(t, "Whole Milk", second[0].Name)
	})
}
