package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTracker(t *testing.T) {
	roster := []string{"bbae", "dspac", "fennel"}

	t.Run("start session requires a non-empty roster", func(t *testing.T) {
		tracker := NewSessionTracker()

		err := tracker.StartSession("u1", nil)
		require.ErrorIs(t, err, NoExpectedBrokersErr)

		_, err = tracker.GetStatus("u1")
		require.ErrorIs(t, err, NoActiveSessionErr)
	})

	t.Run("operations on unknown user fail with NoActiveSessionErr", func(t *testing.T) {
		tracker := NewSessionTracker()

		require.ErrorIs(t, tracker.MarkBrokerComplete("nouser", "bbae"), NoActiveSessionErr)
		require.ErrorIs(t, tracker.MarkError("nouser", "bbae", "raw"), NoActiveSessionErr)

		_, err := tracker.MarkAllDone("nouser")
		require.ErrorIs(t, err, NoActiveSessionErr)
	})

	t.Run("mark broker complete is idempotent", func(t *testing.T) {
		tracker := NewSessionTracker()
		require.NoError(t, tracker.StartSession("u1", roster))

		require.NoError(t, tracker.MarkBrokerComplete("u1", "bbae"))
		require.NoError(t, tracker.MarkBrokerComplete("u1", "BBAE"))

		status, err := tracker.GetStatus("u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"bbae"}, status.Completed)
	})

	t.Run("all done computes missing and unexpected sets", func(t *testing.T) {
		tracker := NewSessionTracker()
		require.NoError(t, tracker.StartSession("u1", []string{"A", "B", "C"}))

		require.NoError(t, tracker.MarkBrokerComplete("u1", "A"))
		require.NoError(t, tracker.MarkBrokerComplete("u1", "D"))

		status, err := tracker.MarkAllDone("u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, status.Missing)
		assert.Equal(t, []string{"d"}, status.Unexpected)
		assert.True(t, status.Finalized)
	})

	t.Run("status is available mid-session", func(t *testing.T) {
		tracker := NewSessionTracker()
		require.NoError(t, tracker.StartSession("u1", roster))
		require.NoError(t, tracker.MarkBrokerComplete("u1", "fennel"))

		status, err := tracker.GetStatus("u1")
		require.NoError(t, err)
		assert.False(t, status.Finalized)
		assert.Equal(t, []string{"fennel"}, status.Completed)
		assert.Equal(t, []string{"bbae", "dspac"}, status.Missing)
	})

	t.Run("errors are appended in order and do not unmark pending", func(t *testing.T) {
		tracker := NewSessionTracker()
		require.NoError(t, tracker.StartSession("u1", roster))

		require.NoError(t, tracker.MarkError("u1", "dspac", "error placing order on dspac"))
		require.NoError(t, tracker.MarkError("u1", "dspac", "error placing order on dspac (retry)"))
		require.NoError(t, tracker.MarkBrokerComplete("u1", "dspac"))

		status, err := tracker.GetStatus("u1")
		require.NoError(t, err)
		require.Len(t, status.Errors, 2)
		assert.Equal(t, "error placing order on dspac", status.Errors[0].Message)
		assert.Contains(t, status.Completed, "dspac")
	})

	t.Run("a later start fully replaces the session", func(t *testing.T) {
		tracker := NewSessionTracker()
		require.NoError(t, tracker.StartSession("u1", roster))
		require.NoError(t, tracker.MarkBrokerComplete("u1", "bbae"))
		require.NoError(t, tracker.MarkError("u1", "bbae", "boom"))

		require.NoError(t, tracker.StartSession("u1", []string{"webull"}))

		status, err := tracker.GetStatus("u1")
		require.NoError(t, err)
		assert.Empty(t, status.Completed)
		assert.Empty(t, status.Errors)
		assert.Equal(t, []string{"webull"}, status.Missing)
		assert.False(t, status.Finalized)
	})
}
