package eventmodels

// NotificationEvent carries human-readable text destined for the chat
// channel. Producers publish it; the notifier client owns delivery.
type NotificationEvent struct {
	Meta *MetaData `json:"meta"`
	Text string    `json:"text"`
}

// SummaryEvent carries the per-ticker watchlist summary lines produced by
// the scheduled push or an explicit ..summary command.
type SummaryEvent struct {
	Meta  *MetaData `json:"meta"`
	Lines []string  `json:"lines"`
}
