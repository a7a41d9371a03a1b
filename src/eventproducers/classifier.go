package eventproducers

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/kataras/go-events"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
	"github.com/jiaming2012/rsa-tracker/src/models"
)

// Message shapes recognized by the classifier. Order matters: commands and
// the armed-trade form are checked before the bare session-start trigger.
var (
	armTradeRegex     = regexp.MustCompile(`^!rsa (buy|sell) (\d+)? ?([A-Z]+)`)
	sessionStartRegex = regexp.MustCompile(`^!rsa\b`)
	splitDateRegex    = regexp.MustCompile(`\*\*\|\s*([A-Z]+)\*\*.*?(\d{4}-\d{2}-\d{2})`)
	purchaseRegex     = regexp.MustCompile(`(\w+)\s+(\d): buying .* of ([A-Z]+)`)
	batchDoneRegex    = regexp.MustCompile(`all (\w+) transactions complete`)
	brokerErrorRegex  = regexp.MustCompile(`(?i)error.*order.*(?:for|on) (\w+)`)
)

const allDonePhrase = "all commands complete in all brokers"

// ChatClassifier turns raw inbound chat messages into typed tracker events
// and publishes them on the bus.
type ChatClassifier struct {
	wg     *sync.WaitGroup
	roster []string
}

// Classify maps a chat message to a bus topic and event. The second return
// is false when the message matches no recognized shape.
func (c *ChatClassifier) Classify(msg eventmodels.ChatMessage) (string, interface{}, bool) {
	text := strings.TrimSpace(msg.Text)
	meta := eventmodels.NewMetaData("ChatClassifier")

	switch {
	case strings.HasPrefix(text, "..summary"):
		return pubsub.StatusQueryEvent, &eventmodels.StatusQueryEvent{Meta: meta, Kind: eventmodels.StatusQuerySummary}, true
	case strings.HasPrefix(text, "..watchlist"):
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return "", nil, false
		}
		return pubsub.StatusQueryEvent, &eventmodels.StatusQueryEvent{Meta: meta, Kind: eventmodels.StatusQueryWatchlist, Ticker: fields[1]}, true
	case strings.HasPrefix(text, "..status"):
		return pubsub.StatusQueryEvent, &eventmodels.StatusQueryEvent{Meta: meta, Kind: eventmodels.StatusQuerySession, UserID: msg.UserID}, true
	}

	if m := armTradeRegex.FindStringSubmatch(text); m != nil {
		return pubsub.TradeArmedEvent, &eventmodels.TradeArmedEvent{Meta: meta, UserID: msg.UserID, Ticker: m[3]}, true
	}

	if sessionStartRegex.MatchString(text) {
		return pubsub.SessionStartEvent, &eventmodels.SessionStartEvent{Meta: meta, UserID: msg.UserID, ExpectedBrokers: c.roster}, true
	}

	if m := splitDateRegex.FindStringSubmatch(text); m != nil {
		return pubsub.WatchlistAddEvent, &eventmodels.WatchlistAddEvent{Meta: meta, Ticker: m[1], SplitDate: m[2]}, true
	}

	if m := purchaseRegex.FindStringSubmatch(text); m != nil {
		accountID := m[1] + ":" + m[2]
		return pubsub.PurchaseObservedEvent, &eventmodels.PurchaseObservedEvent{Meta: meta, Ticker: m[3], AccountID: accountID}, true
	}

	if strings.Contains(strings.ToLower(text), allDonePhrase) {
		return pubsub.AllDoneEvent, &eventmodels.AllDoneEvent{Meta: meta, UserID: msg.UserID}, true
	}

	if m := batchDoneRegex.FindStringSubmatch(text); m != nil {
		return pubsub.CloseoutBatchEvent, &eventmodels.CloseoutBatchEvent{Meta: meta, UserID: msg.UserID, Broker: m[1]}, true
	}

	if m := brokerErrorRegex.FindStringSubmatch(text); m != nil {
		return pubsub.BrokerErrorEvent, &eventmodels.BrokerErrorEvent{Meta: meta, UserID: msg.UserID, Broker: m[1], RawMessage: text}, true
	}

	return "", nil, false
}

func (c *ChatClassifier) inboundHandler(payload ...interface{}) {
	msg, ok := payload[0].(eventmodels.ChatMessage)
	if !ok {
		log.Errorf("ChatClassifier.inboundHandler: unexpected payload %T", payload[0])
		return
	}

	topic, ev, matched := c.Classify(msg)
	if !matched {
		log.Debugf("ChatClassifier: no match for message from %s", msg.UserID)
		return
	}

	pubsub.Publish("ChatClassifier", topic, ev)
}

func (c *ChatClassifier) Start(ctx context.Context) {
	c.wg.Add(1)

	events.On(models.InboundChatMessage, c.inboundHandler)

	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				log.Info("stopping ChatClassifier producer")
				return
			}
		}
	}()
}

func NewChatClassifier(wg *sync.WaitGroup, roster []string) *ChatClassifier {
	return &ChatClassifier{
		wg:     wg,
		roster: roster,
	}
}
