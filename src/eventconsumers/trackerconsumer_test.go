package eventconsumers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
	"github.com/jiaming2012/rsa-tracker/src/models"
)

func newTestTrackerConsumer() *TrackerConsumer {
	pubsub.Init()

	var wg sync.WaitGroup
	return NewTrackerConsumer(
		&wg,
		models.NewSessionTracker(),
		models.NewWatchlistTracker(),
		models.NewActiveTradeSet(),
		models.NewMemoryBuffer(40),
	)
}

func meta() *eventmodels.MetaData {
	return eventmodels.NewMetaData("test")
}

func TestTrackerConsumerSessions(t *testing.T) {
	t.Run("session start then broker completions", func(t *testing.T) {
		c := newTestTrackerConsumer()

		c.sessionStartHandler(&eventmodels.SessionStartEvent{Meta: meta(), UserID: "U1", ExpectedBrokers: []string{"fidelity", "schwab"}})
		c.brokerCompleteHandler(&eventmodels.BrokerCompleteEvent{Meta: meta(), UserID: "U1", Broker: "fidelity"})

		status, err := c.sessions.GetStatus("U1")
		require.NoError(t, err)
		assert.Equal(t, []string{"fidelity"}, status.Completed)
		assert.Equal(t, []string{"schwab"}, status.Missing)
	})

	t.Run("broker error is recorded", func(t *testing.T) {
		c := newTestTrackerConsumer()

		c.sessionStartHandler(&eventmodels.SessionStartEvent{Meta: meta(), UserID: "U1", ExpectedBrokers: []string{"fidelity"}})
		c.brokerErrorHandler(&eventmodels.BrokerErrorEvent{Meta: meta(), UserID: "U1", Broker: "fidelity", RawMessage: "error placing order for fidelity"})

		status, err := c.sessions.GetStatus("U1")
		require.NoError(t, err)
		require.Len(t, status.Errors, 1)
		assert.Equal(t, "fidelity", status.Errors[0].Broker)
	})

	t.Run("all done finalizes the session", func(t *testing.T) {
		c := newTestTrackerConsumer()

		c.sessionStartHandler(&eventmodels.SessionStartEvent{Meta: meta(), UserID: "U1", ExpectedBrokers: []string{"fidelity"}})
		c.brokerCompleteHandler(&eventmodels.BrokerCompleteEvent{Meta: meta(), UserID: "U1", Broker: "fidelity"})
		c.allDoneHandler(&eventmodels.AllDoneEvent{Meta: meta(), UserID: "U1"})

		status, err := c.sessions.GetStatus("U1")
		require.NoError(t, err)
		assert.True(t, status.Finalized)
	})
}

func TestTrackerConsumerWatchlist(t *testing.T) {
	t.Run("purchases are dropped unless the ticker is armed", func(t *testing.T) {
		c := newTestTrackerConsumer()

		c.watchlistAddHandler(&eventmodels.WatchlistAddEvent{Meta: meta(), Ticker: "GNS", SplitDate: "2026-09-02"})

		// not armed yet
		c.purchaseObservedHandler(&eventmodels.PurchaseObservedEvent{Meta: meta(), Ticker: "GNS", AccountID: "schwab:1"})

		entry := c.watchlist.Snapshot("GNS")
		require.NotNil(t, entry)
		assert.Empty(t, entry.Purchases)

		c.tradeArmedHandler(&eventmodels.TradeArmedEvent{Meta: meta(), UserID: "U1", Ticker: "GNS"})
		c.purchaseObservedHandler(&eventmodels.PurchaseObservedEvent{Meta: meta(), Ticker: "GNS", AccountID: "schwab:1"})

		entry = c.watchlist.Snapshot("GNS")
		require.NotNil(t, entry)
		assert.Equal(t, []string{"schwab:1"}, entry.Purchases)
	})

	t.Run("closeout batch disarms and closes matching accounts", func(t *testing.T) {
		c := newTestTrackerConsumer()

		c.sessionStartHandler(&eventmodels.SessionStartEvent{Meta: meta(), UserID: "U1", ExpectedBrokers: []string{"schwab", "fidelity"}})
		c.watchlistAddHandler(&eventmodels.WatchlistAddEvent{Meta: meta(), Ticker: "GNS", SplitDate: "2026-09-02"})
		c.tradeArmedHandler(&eventmodels.TradeArmedEvent{Meta: meta(), UserID: "U1", Ticker: "GNS"})
		c.purchaseObservedHandler(&eventmodels.PurchaseObservedEvent{Meta: meta(), Ticker: "GNS", AccountID: "schwab:1"})
		c.purchaseObservedHandler(&eventmodels.PurchaseObservedEvent{Meta: meta(), Ticker: "GNS", AccountID: "fidelity:1"})

		c.closeoutBatchHandler(&eventmodels.CloseoutBatchEvent{Meta: meta(), UserID: "U1", Broker: "schwab"})

		// the broker counts as complete in the session
		status, err := c.sessions.GetStatus("U1")
		require.NoError(t, err)
		assert.Equal(t, []string{"schwab"}, status.Completed)

		// schwab's purchase closed out, fidelity's remains open
		entry := c.watchlist.Snapshot("GNS")
		require.NotNil(t, entry)
		assert.Contains(t, entry.Closeouts, "schwab:1")
		assert.NotContains(t, entry.Closeouts, "fidelity:1")

		// the set drained even though fidelity's account is still open
		assert.False(t, c.armed.IsArmed("GNS"))
	})

	t.Run("summary query records the audit marker", func(t *testing.T) {
		c := newTestTrackerConsumer()

		c.watchlistAddHandler(&eventmodels.WatchlistAddEvent{Meta: meta(), Ticker: "GNS", SplitDate: "2026-09-02"})
		require.True(t, c.watchlist.LastSummarizedAt().IsZero())

		c.statusQueryHandler(&eventmodels.StatusQueryEvent{Meta: meta(), Kind: eventmodels.StatusQuerySummary})

		assert.False(t, c.watchlist.LastSummarizedAt().IsZero())
	})

	t.Run("duplicate watchlist add keeps the original split date", func(t *testing.T) {
		c := newTestTrackerConsumer()

		c.watchlistAddHandler(&eventmodels.WatchlistAddEvent{Meta: meta(), Ticker: "GNS", SplitDate: "2026-09-02"})
		c.watchlistAddHandler(&eventmodels.WatchlistAddEvent{Meta: meta(), Ticker: "GNS", SplitDate: "2026-10-15"})

		entry := c.watchlist.Snapshot("GNS")
		require.NotNil(t, entry)
		assert.Equal(t, "2026-09-02", entry.SplitDate)
	})
}
