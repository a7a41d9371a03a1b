package eventconsumers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	log "github.com/sirupsen/logrus"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
	"github.com/jiaming2012/rsa-tracker/src/eventservices"
	"github.com/jiaming2012/rsa-tracker/src/eventstore"
	"github.com/jiaming2012/rsa-tracker/src/models"
	"github.com/jiaming2012/rsa-tracker/src/sheets"
)

const auditStreamName = "rsa-tracker-audit"

// TrackerConsumer owns the tracker state. It is the only writer: every
// mutation arrives as a bus event, is applied to the trackers, and fans out
// as notification and audit events.
type TrackerConsumer struct {
	wg        *sync.WaitGroup
	sessions  *models.SessionTracker
	watchlist *models.WatchlistTracker
	armed     *models.ActiveTradeSet
	memory    *models.MemoryBuffer

	// optional integrations, nil when not configured
	assist        *eventservices.AssistClient
	esdbClient    *esdb.Client
	sheetsSrv     *sheetsapi.Service
	spreadsheetId string
}

func (c *TrackerConsumer) notify(text string) {
	pubsub.Publish("TrackerConsumer", pubsub.NotificationEvent, &eventmodels.NotificationEvent{
		Meta: eventmodels.NewMetaData("TrackerConsumer"),
		Text: text,
	})
}

func (c *TrackerConsumer) audit(event string, userID string, ticker string, detail string) {
	record := &eventmodels.AuditRecord{
		Timestamp: time.Now().UTC(),
		Event:     event,
		UserID:    userID,
		Ticker:    ticker,
		Detail:    detail,
	}

	pubsub.Publish("TrackerConsumer", pubsub.AuditEvent, record)

	if c.esdbClient != nil {
		data, err := json.Marshal(record)
		if err != nil {
			log.Errorf("TrackerConsumer.audit: failed to marshal record: %v", err)
			return
		}

		if err := eventstore.InsertEvent(context.Background(), event, auditStreamName, data, c.esdbClient); err != nil {
			log.Errorf("TrackerConsumer.audit: failed to append to stream: %v", err)
		}
	}
}

func (c *TrackerConsumer) sessionStartHandler(ev *eventmodels.SessionStartEvent) {
	log.Debugf("TrackerConsumer.sessionStartHandler <- %v", ev)

	if err := c.sessions.StartSession(ev.UserID, ev.ExpectedBrokers); err != nil {
		pubsub.PublishError("TrackerConsumer.sessionStartHandler", err)
		return
	}

	c.notify(fmt.Sprintf("Started execution session for %s: expecting %d brokers", ev.UserID, len(ev.ExpectedBrokers)))
	c.audit("SessionStart", ev.UserID, "", strings.Join(ev.ExpectedBrokers, ","))
}

func (c *TrackerConsumer) brokerCompleteHandler(ev *eventmodels.BrokerCompleteEvent) {
	log.Debugf("TrackerConsumer.brokerCompleteHandler <- %v", ev)

	if err := c.sessions.MarkBrokerComplete(ev.UserID, ev.Broker); err != nil {
		pubsub.PublishError("TrackerConsumer.brokerCompleteHandler", err)
		return
	}

	c.audit("BrokerComplete", ev.UserID, "", ev.Broker)
}

func (c *TrackerConsumer) brokerErrorHandler(ev *eventmodels.BrokerErrorEvent) {
	log.Debugf("TrackerConsumer.brokerErrorHandler <- %v", ev)

	if err := c.sessions.MarkError(ev.UserID, ev.Broker, ev.RawMessage); err != nil {
		pubsub.PublishError("TrackerConsumer.brokerErrorHandler", err)
		return
	}

	c.notify(fmt.Sprintf("Recorded error on %s for %s", ev.Broker, ev.UserID))
	c.audit("BrokerError", ev.UserID, "", fmt.Sprintf("%s: %s", ev.Broker, ev.RawMessage))
}

func (c *TrackerConsumer) allDoneHandler(ev *eventmodels.AllDoneEvent) {
	log.Debugf("TrackerConsumer.allDoneHandler <- %v", ev)

	status, err := c.sessions.MarkAllDone(ev.UserID)
	if err != nil {
		pubsub.PublishError("TrackerConsumer.allDoneHandler", err)
		return
	}

	c.notify(status.String())
	c.audit("AllDone", ev.UserID, "", fmt.Sprintf("completed=%d missing=%d errors=%d", len(status.Completed), len(status.Missing), len(status.Errors)))

	if c.assist != nil && len(status.Missing) > 0 {
		prompt := fmt.Sprintf("The user reported all brokers done, but these brokers never completed: %s. Write a one-line reminder.", strings.Join(status.Missing, ", "))

		reply, assistErr := c.assist.QueryChatCompletion(c.memory.Recent(ev.UserID), prompt)
		if assistErr != nil {
			log.Errorf("TrackerConsumer.allDoneHandler: assist query failed: %v", assistErr)
			return
		}

		c.memory.Append(ev.UserID, "assistant", reply)
		c.notify(reply)
	}
}

func (c *TrackerConsumer) watchlistAddHandler(ev *eventmodels.WatchlistAddEvent) {
	log.Debugf("TrackerConsumer.watchlistAddHandler <- %v", ev)

	added, err := c.watchlist.Add(ev.Ticker, ev.SplitDate)
	if err != nil {
		pubsub.PublishError("TrackerConsumer.watchlistAddHandler", err)
		return
	}

	if !added {
		log.Debugf("TrackerConsumer.watchlistAddHandler: %s already tracked, keeping original split date", ev.Ticker)
		return
	}

	c.notify(fmt.Sprintf("Watching %s, reverse split on %s", models.CanonicalTicker(ev.Ticker), ev.SplitDate))
	c.audit("WatchlistAdd", "", models.CanonicalTicker(ev.Ticker), ev.SplitDate)
}

func (c *TrackerConsumer) tradeArmedHandler(ev *eventmodels.TradeArmedEvent) {
	log.Debugf("TrackerConsumer.tradeArmedHandler <- %v", ev)

	c.armed.Arm(ev.Ticker)

	c.notify(fmt.Sprintf("Armed %s: correlating purchase fills", models.CanonicalTicker(ev.Ticker)))
	c.audit("TradeArmed", ev.UserID, models.CanonicalTicker(ev.Ticker), "")
}

func (c *TrackerConsumer) purchaseObservedHandler(ev *eventmodels.PurchaseObservedEvent) {
	log.Debugf("TrackerConsumer.purchaseObservedHandler <- %v", ev)

	if !c.armed.IsArmed(ev.Ticker) {
		log.Debugf("TrackerConsumer.purchaseObservedHandler: %s not armed, ignoring purchase from %s", ev.Ticker, ev.AccountID)
		return
	}

	if err := c.watchlist.MarkPurchase(ev.Ticker, ev.AccountID); err != nil {
		pubsub.PublishError("TrackerConsumer.purchaseObservedHandler", err)
		return
	}

	c.audit("PurchaseObserved", "", models.CanonicalTicker(ev.Ticker), ev.AccountID)
}

func (c *TrackerConsumer) closeoutBatchHandler(ev *eventmodels.CloseoutBatchEvent) {
	log.Debugf("TrackerConsumer.closeoutBatchHandler <- %v", ev)

	// a batch completion doubles as the broker's session completion
	if err := c.sessions.MarkBrokerComplete(ev.UserID, ev.Broker); err != nil {
		log.Debugf("TrackerConsumer.closeoutBatchHandler: %v", err)
	}

	closed := c.armed.DisarmAll(ev.Broker, c.watchlist)

	for ticker, accounts := range closed {
		c.notify(fmt.Sprintf("%s: closed out %d accounts via %s", ticker, len(accounts), models.CanonicalBroker(ev.Broker)))
		c.audit("CloseoutBatch", ev.UserID, ticker, strings.Join(accounts, ","))

		entry := c.watchlist.Snapshot(ticker)
		if entry == nil || entry.Active() {
			continue
		}

		c.notify(fmt.Sprintf("%s fully closed out across %d accounts", ticker, len(entry.Purchases)))

		if c.sheetsSrv != nil {
			if err := sheets.AppendResolvedEntry(context.Background(), c.sheetsSrv, c.spreadsheetId, ticker, entry); err != nil {
				log.Errorf("TrackerConsumer.closeoutBatchHandler: failed to append resolved entry: %v", err)
			}
		}
	}
}

func (c *TrackerConsumer) statusQueryHandler(ev *eventmodels.StatusQueryEvent) {
	log.Debugf("TrackerConsumer.statusQueryHandler <- %v", ev)

	switch ev.Kind {
	case eventmodels.StatusQuerySession:
		status, err := c.sessions.GetStatus(ev.UserID)
		if err != nil {
			pubsub.PublishError("TrackerConsumer.statusQueryHandler", err)
			return
		}
		c.notify(status.String())
	case eventmodels.StatusQueryWatchlist:
		status, err := c.watchlist.GetStatus(ev.Ticker)
		if err != nil {
			pubsub.PublishError("TrackerConsumer.statusQueryHandler", err)
			return
		}
		c.notify(status)
	case eventmodels.StatusQuerySummary:
		lines := c.watchlist.LogAndGetSummary()

		pubsub.Publish("TrackerConsumer", pubsub.SummaryEvent, &eventmodels.SummaryEvent{
			Meta:  eventmodels.NewMetaData("TrackerConsumer"),
			Lines: lines,
		})

		c.audit("Summary", "", "", fmt.Sprintf("entries=%d lastSummarizedAt=%s", len(lines), c.watchlist.LastSummarizedAt().Format(time.RFC3339)))
	default:
		pubsub.PublishError("TrackerConsumer.statusQueryHandler", fmt.Errorf("unknown status query kind %s", ev.Kind))
	}
}

func (c *TrackerConsumer) Start(ctx context.Context) {
	c.wg.Add(1)

	pubsub.Subscribe("TrackerConsumer", pubsub.SessionStartEvent, c.sessionStartHandler)
	pubsub.Subscribe("TrackerConsumer", pubsub.BrokerCompleteEvent, c.brokerCompleteHandler)
	pubsub.Subscribe("TrackerConsumer", pubsub.BrokerErrorEvent, c.brokerErrorHandler)
	pubsub.Subscribe("TrackerConsumer", pubsub.AllDoneEvent, c.allDoneHandler)
	pubsub.Subscribe("TrackerConsumer", pubsub.WatchlistAddEvent, c.watchlistAddHandler)
	pubsub.Subscribe("TrackerConsumer", pubsub.TradeArmedEvent, c.tradeArmedHandler)
	pubsub.Subscribe("TrackerConsumer", pubsub.PurchaseObservedEvent, c.purchaseObservedHandler)
	pubsub.Subscribe("TrackerConsumer", pubsub.CloseoutBatchEvent, c.closeoutBatchHandler)
	pubsub.Subscribe("TrackerConsumer", pubsub.StatusQueryEvent, c.statusQueryHandler)

	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				log.Info("stopping TrackerConsumer")
				return
			}
		}
	}()
}

type TrackerConsumerOption func(*TrackerConsumer)

func WithAssistClient(client *eventservices.AssistClient) TrackerConsumerOption {
	return func(c *TrackerConsumer) {
		c.assist = client
	}
}

func WithEventStore(client *esdb.Client) TrackerConsumerOption {
	return func(c *TrackerConsumer) {
		c.esdbClient = client
	}
}

func WithSheets(srv *sheetsapi.Service, spreadsheetId string) TrackerConsumerOption {
	return func(c *TrackerConsumer) {
		c.sheetsSrv = srv
		c.spreadsheetId = spreadsheetId
	}
}

func NewTrackerConsumer(wg *sync.WaitGroup, sessions *models.SessionTracker, watchlist *models.WatchlistTracker, armed *models.ActiveTradeSet, memory *models.MemoryBuffer, opts ...TrackerConsumerOption) *TrackerConsumer {
	c := &TrackerConsumer{
		wg:        wg,
		sessions:  sessions,
		watchlist: watchlist,
		armed:     armed,
		memory:    memory,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}
