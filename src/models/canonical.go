package models

import "strings"

// Canonicalization happens at the tracker boundary: callers pass whatever the
// chat layer extracted and the trackers fold case before storing or matching.

func CanonicalBroker(broker string) string {
	return strings.ToLower(strings.TrimSpace(broker))
}

func CanonicalTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// CanonicalAccount folds an account identifier of the broker:accountNumber
// shape to lower case so closeout matching is case-insensitive.
func CanonicalAccount(accountID string) string {
	return strings.ToLower(strings.TrimSpace(accountID))
}
