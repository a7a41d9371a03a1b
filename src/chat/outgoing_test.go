package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessage(t *testing.T) {
	t.Run("short message is returned whole", func(t *testing.T) {
		chunks := SplitMessage("hello")

		require.Len(t, chunks, 1)
		assert.Equal(t, "hello", chunks[0])
	})

	t.Run("message at the limit is not split", func(t *testing.T) {
		msg := strings.Repeat("a", MaxMessageLength)

		chunks := SplitMessage(msg)

		require.Len(t, chunks, 1)
	})

	t.Run("long message splits into limit-sized chunks", func(t *testing.T) {
		msg := strings.Repeat("a", MaxMessageLength*2+10)

		chunks := SplitMessage(msg)

		require.Len(t, chunks, 3)
		assert.Len(t, chunks[0], MaxMessageLength)
		assert.Len(t, chunks[1], MaxMessageLength)
		assert.Len(t, chunks[2], 10)
		assert.Equal(t, msg, strings.Join(chunks, ""))
	})

	t.Run("multi-byte runes are never cut", func(t *testing.T) {
		msg := strings.Repeat("日", MaxMessageLength+1)

		chunks := SplitMessage(msg)

		require.Len(t, chunks, 2)
		assert.Equal(t, MaxMessageLength, len([]rune(chunks[0])))
		assert.Equal(t, 1, len([]rune(chunks[1])))
		assert.Equal(t, msg, strings.Join(chunks, ""))
	})
}
