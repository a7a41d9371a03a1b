package eventmodels

import "time"

// AuditRecord is the flattened form of a tracker event, written as a JSON
// line by the audit writer and exported to csv by the exportaudit tool.
type AuditRecord struct {
	Timestamp time.Time `json:"timestamp" csv:"timestamp"`
	Event     string    `json:"event" csv:"event"`
	UserID    string    `json:"user_id,omitempty" csv:"user_id"`
	Ticker    string    `json:"ticker,omitempty" csv:"ticker"`
	Detail    string    `json:"detail,omitempty" csv:"detail"`
}
