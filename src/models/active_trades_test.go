package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveTradeSet(t *testing.T) {
	t.Run("arm is idempotent", func(t *testing.T) {
		armed := NewActiveTradeSet()

		armed.Arm("xyz")
		armed.Arm("XYZ")

		assert.True(t, armed.IsArmed("XYZ"))
		assert.Equal(t, []string{"XYZ"}, armed.Armed())
	})

	t.Run("disarm closes matching accounts and always removes the ticker", func(t *testing.T) {
		watchlist := NewWatchlistTracker()
		_, err := watchlist.Add("XYZ", "2025-01-01")
		require.NoError(t, err)
		require.NoError(t, watchlist.MarkPurchase("XYZ", "bbae:1"))
		require.NoError(t, watchlist.MarkPurchase("XYZ", "webull:2"))

		armed := NewActiveTradeSet()
		armed.Arm("XYZ")

		closed := armed.DisarmAll("bbae", watchlist)
		assert.Equal(t, map[string][]string{"XYZ": {"bbae:1"}}, closed)
		assert.False(t, armed.IsArmed("XYZ"))

		entry := watchlist.Snapshot("XYZ")
		assert.Contains(t, entry.Closeouts, "bbae:1")
		assert.NotContains(t, entry.Closeouts, "webull:2")
	})

	t.Run("disarm with no armed tickers is a no-op", func(t *testing.T) {
		watchlist := NewWatchlistTracker()
		armed := NewActiveTradeSet()

		closed := armed.DisarmAll("bbae", watchlist)
		assert.Empty(t, closed)
	})

	t.Run("disarm tolerates armed tickers missing from the watchlist", func(t *testing.T) {
		watchlist := NewWatchlistTracker()
		armed := NewActiveTradeSet()
		armed.Arm("GHOST")

		closed := armed.DisarmAll("bbae", watchlist)
		assert.Empty(t, closed)
		assert.False(t, armed.IsArmed("GHOST"))
	})
}
