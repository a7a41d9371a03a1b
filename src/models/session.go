package models

import (
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// BrokerError is one broker-reported failure, kept in arrival order.
type BrokerError struct {
	Broker  string
	Message string
}

// Session records one user's progress through a multi-broker trading task.
// A broker may report completion without being on the expected roster; such
// completions are kept and surfaced as unexpected rather than dropped.
type Session struct {
	StartedAt        time.Time
	ExpectedBrokers  map[string]struct{}
	CompletedBrokers map[string]struct{}
	Errors           []BrokerError
	Finalized        bool
}

func newSession(expectedBrokers []string) *Session {
	expected := make(map[string]struct{}, len(expectedBrokers))
	for _, b := range expectedBrokers {
		expected[CanonicalBroker(b)] = struct{}{}
	}

	return &Session{
		StartedAt:        time.Now().UTC(),
		ExpectedBrokers:  expected,
		CompletedBrokers: make(map[string]struct{}),
		Errors:           make([]BrokerError, 0),
	}
}

func (s *Session) status() SessionStatus {
	status := SessionStatus{
		Completed: make([]string, 0, len(s.CompletedBrokers)),
		Finalized: s.Finalized,
	}

	for broker := range s.CompletedBrokers {
		status.Completed = append(status.Completed, broker)
		if _, ok := s.ExpectedBrokers[broker]; !ok {
			status.Unexpected = append(status.Unexpected, broker)
		}
	}

	for broker := range s.ExpectedBrokers {
		if _, ok := s.CompletedBrokers[broker]; !ok {
			status.Missing = append(status.Missing, broker)
		}
	}

	status.Errors = append(status.Errors, s.Errors...)

	sort.Strings(status.Completed)
	sort.Strings(status.Missing)
	sort.Strings(status.Unexpected)

	return status
}

// SessionStatus is a point-in-time summary of a session. Completed holds
// every broker that reported done; Missing = expected - completed;
// Unexpected = completed - expected.
type SessionStatus struct {
	Completed  []string
	Missing    []string
	Unexpected []string
	Errors     []BrokerError
	Finalized  bool
}

func (status SessionStatus) String() string {
	display := &strings.Builder{}

	table := tablewriter.NewWriter(display)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("")
	display.WriteString("Broker status:\n")

	for _, broker := range status.Completed {
		state := "done"
		for _, unexpected := range status.Unexpected {
			if broker == unexpected {
				state = "done (unexpected)"
				break
			}
		}
		table.Append([]string{broker, state})
	}
	for _, broker := range status.Missing {
		table.Append([]string{broker, "missing"})
	}

	table.Render()

	if len(status.Errors) > 0 {
		display.WriteString("Errors:\n")
		for _, brokerErr := range status.Errors {
			display.WriteString("  - " + brokerErr.Broker + ": " + brokerErr.Message + "\n")
		}
	}

	if status.Finalized {
		display.WriteString("All brokers marked complete.\n")
	}

	return display.String()
}
