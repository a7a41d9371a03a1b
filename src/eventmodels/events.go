package eventmodels

import "time"

// ChatMessage is a raw inbound chat message as delivered by the gateway
// worker or the webhook handler, before classification.
type ChatMessage struct {
	UserID     string    `json:"user_id" schema:"user_id"`
	Text       string    `json:"text" schema:"text"`
	ReceivedAt time.Time `json:"received_at" schema:"-"`
}

// The closed set of tracker events produced by the classification stage.
// Each variant maps to exactly one tracker operation.

type SessionStartEvent struct {
	Meta            *MetaData `json:"meta"`
	UserID          string    `json:"user_id"`
	ExpectedBrokers []string  `json:"expected_brokers"`
}

type BrokerCompleteEvent struct {
	Meta   *MetaData `json:"meta"`
	UserID string    `json:"user_id"`
	Broker string    `json:"broker"`
}

type BrokerErrorEvent struct {
	Meta       *MetaData `json:"meta"`
	UserID     string    `json:"user_id"`
	Broker     string    `json:"broker"`
	RawMessage string    `json:"raw_message"`
}

type AllDoneEvent struct {
	Meta   *MetaData `json:"meta"`
	UserID string    `json:"user_id"`
}

type WatchlistAddEvent struct {
	Meta      *MetaData `json:"meta"`
	Ticker    string    `json:"ticker"`
	SplitDate string    `json:"split_date"`
}

type TradeArmedEvent struct {
	Meta   *MetaData `json:"meta"`
	UserID string    `json:"user_id"`
	Ticker string    `json:"ticker"`
}

type PurchaseObservedEvent struct {
	Meta      *MetaData `json:"meta"`
	Ticker    string    `json:"ticker"`
	AccountID string    `json:"account_id"`
}

// CloseoutBatchEvent fires when a broker announces that all of its
// transactions are complete: the user's session marks the broker done and
// every armed ticker is disarmed, closing out matching purchase accounts.
type CloseoutBatchEvent struct {
	Meta   *MetaData `json:"meta"`
	UserID string    `json:"user_id"`
	Broker string    `json:"broker"`
}

type StatusQueryKind string

const (
	StatusQuerySession   StatusQueryKind = "session"
	StatusQueryWatchlist StatusQueryKind = "watchlist"
	StatusQuerySummary   StatusQueryKind = "summary"
)

type StatusQueryEvent struct {
	Meta   *MetaData       `json:"meta"`
	Kind   StatusQueryKind `json:"kind"`
	UserID string          `json:"user_id,omitempty"`
	Ticker string          `json:"ticker,omitempty"`
}
