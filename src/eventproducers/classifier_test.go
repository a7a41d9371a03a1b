package eventproducers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
)

func newTestClassifier() *ChatClassifier {
	var wg sync.WaitGroup
	return NewChatClassifier(&wg, []string{"fidelity", "schwab", "tasty"})
}

func TestClassify(t *testing.T) {
	c := newTestClassifier()

	msg := func(text string) eventmodels.ChatMessage {
		return eventmodels.ChatMessage{UserID: "U123", Text: text}
	}

	t.Run("session start", func(t *testing.T) {
		topic, ev, ok := c.Classify(msg("!rsa"))

		require.True(t, ok)
		assert.Equal(t, pubsub.SessionStartEvent, topic)

		start := ev.(*eventmodels.SessionStartEvent)
		assert.Equal(t, "U123", start.UserID)
		assert.Equal(t, []string{"fidelity", "schwab", "tasty"}, start.ExpectedBrokers)
	})

	t.Run("arm trade takes precedence over session start", func(t *testing.T) {
		topic, ev, ok := c.Classify(msg("!rsa buy 5 GNS"))

		require.True(t, ok)
		assert.Equal(t, pubsub.TradeArmedEvent, topic)
		assert.Equal(t, "GNS", ev.(*eventmodels.TradeArmedEvent).Ticker)
	})

	t.Run("arm trade without quantity", func(t *testing.T) {
		topic, ev, ok := c.Classify(msg("!rsa sell COSM"))

		require.True(t, ok)
		assert.Equal(t, pubsub.TradeArmedEvent, topic)
		assert.Equal(t, "COSM", ev.(*eventmodels.TradeArmedEvent).Ticker)
	})

	t.Run("split date announcement", func(t *testing.T) {
		topic, ev, ok := c.Classify(msg("**| GNS** reverse split effective 2026-09-02"))

		require.True(t, ok)
		assert.Equal(t, pubsub.WatchlistAddEvent, topic)

		add := ev.(*eventmodels.WatchlistAddEvent)
		assert.Equal(t, "GNS", add.Ticker)
		assert.Equal(t, "2026-09-02", add.SplitDate)
	})

	t.Run("purchase observation builds account id", func(t *testing.T) {
		topic, ev, ok := c.Classify(msg("schwab 2: buying 1 share of GNS"))

		require.True(t, ok)
		assert.Equal(t, pubsub.PurchaseObservedEvent, topic)

		purchase := ev.(*eventmodels.PurchaseObservedEvent)
		assert.Equal(t, "GNS", purchase.Ticker)
		assert.Equal(t, "schwab:2", purchase.AccountID)
	})

	t.Run("broker batch complete", func(t *testing.T) {
		topic, ev, ok := c.Classify(msg("all schwab transactions complete"))

		require.True(t, ok)
		assert.Equal(t, pubsub.CloseoutBatchEvent, topic)
		assert.Equal(t, "schwab", ev.(*eventmodels.CloseoutBatchEvent).Broker)
	})

	t.Run("all brokers done", func(t *testing.T) {
		topic, ev, ok := c.Classify(msg("All commands complete in all brokers"))

		require.True(t, ok)
		assert.Equal(t, pubsub.AllDoneEvent, topic)
		assert.Equal(t, "U123", ev.(*eventmodels.AllDoneEvent).UserID)
	})

	t.Run("broker error", func(t *testing.T) {
		topic, ev, ok := c.Classify(msg("Error placing order for tasty: insufficient funds"))

		require.True(t, ok)
		assert.Equal(t, pubsub.BrokerErrorEvent, topic)

		brokerErr := ev.(*eventmodels.BrokerErrorEvent)
		assert.Equal(t, "tasty", brokerErr.Broker)
		assert.Contains(t, brokerErr.RawMessage, "insufficient funds")
	})

	t.Run("status commands", func(t *testing.T) {
		topic, ev, ok := c.Classify(msg("..status"))
		require.True(t, ok)
		assert.Equal(t, pubsub.StatusQueryEvent, topic)
		assert.Equal(t, eventmodels.StatusQuerySession, ev.(*eventmodels.StatusQueryEvent).Kind)

		_, ev, ok = c.Classify(msg("..watchlist GNS"))
		require.True(t, ok)
		query := ev.(*eventmodels.StatusQueryEvent)
		assert.Equal(t, eventmodels.StatusQueryWatchlist, query.Kind)
		assert.Equal(t, "GNS", query.Ticker)

		_, ev, ok = c.Classify(msg("..summary"))
		require.True(t, ok)
		assert.Equal(t, eventmodels.StatusQuerySummary, ev.(*eventmodels.StatusQueryEvent).Kind)
	})

	t.Run("watchlist command without ticker does not match", func(t *testing.T) {
		_, _, ok := c.Classify(msg("..watchlist"))
		assert.False(t, ok)
	})

	t.Run("unrelated chatter does not match", func(t *testing.T) {
		_, _, ok := c.Classify(msg("good morning everyone"))
		assert.False(t, ok)
	})
}
