package eventpubsub

const (
	SessionStartEvent     = "SessionStartEvent"
	BrokerCompleteEvent   = "BrokerCompleteEvent"
	BrokerErrorEvent      = "BrokerErrorEvent"
	AllDoneEvent          = "AllDoneEvent"
	WatchlistAddEvent     = "WatchlistAddEvent"
	TradeArmedEvent       = "TradeArmedEvent"
	PurchaseObservedEvent = "PurchaseObservedEvent"
	CloseoutBatchEvent    = "CloseoutBatchEvent"
	StatusQueryEvent      = "StatusQueryEvent"
	NotificationEvent     = "NotificationEvent"
	SummaryEvent          = "SummaryEvent"
	AuditEvent            = "AuditEvent"
	Error                 = "DefaultError"
)
