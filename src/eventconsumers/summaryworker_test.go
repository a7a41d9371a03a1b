package eventconsumers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryWorkerShouldPush(t *testing.T) {
	var wg sync.WaitGroup

	at := func(day string, clock string) time.Time {
		ts, err := time.Parse("2006-01-02 15:04", day+" "+clock)
		require.NoError(t, err)
		return ts
	}

	t.Run("fires at a configured time", func(t *testing.T) {
		w := NewSummaryWorker(&wg, []string{"08:45", "16:30"})

		assert.True(t, w.shouldPush(at("2026-08-30", "08:45")))
		assert.True(t, w.shouldPush(at("2026-08-30", "16:30")))
	})

	t.Run("skips other minutes", func(t *testing.T) {
		w := NewSummaryWorker(&wg, []string{"08:45"})

		assert.False(t, w.shouldPush(at("2026-08-30", "08:44")))
		assert.False(t, w.shouldPush(at("2026-08-30", "08:46")))
	})

	t.Run("fires once per slot per day", func(t *testing.T) {
		w := NewSummaryWorker(&wg, []string{"08:45"})

		assert.True(t, w.shouldPush(at("2026-08-30", "08:45")))
		assert.False(t, w.shouldPush(at("2026-08-30", "08:45")))

		// next day the slot re-arms
		assert.True(t, w.shouldPush(at("2026-08-31", "08:45")))
	})
}
