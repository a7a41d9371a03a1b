package models

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// SessionTracker owns the mapping from user ID to the user's single active
// session. All mutations are serialized behind one mutex; the expected event
// rate is a handful of chat messages per minute.
type SessionTracker struct {
	mutex    sync.Mutex
	sessions map[string]*Session
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		sessions: make(map[string]*Session),
	}
}

// StartSession replaces any prior session for userID with a fresh one.
func (t *SessionTracker) StartSession(userID string, expectedBrokers []string) error {
	if len(expectedBrokers) == 0 {
		return fmt.Errorf("SessionTracker.StartSession: %w", NoExpectedBrokersErr)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.sessions[userID] = newSession(expectedBrokers)

	log.Infof("started session for user %v with %d expected brokers", userID, len(expectedBrokers))
	return nil
}

// MarkBrokerComplete records that broker reported done. Repeat calls for the
// same broker are no-ops. Completions outside the expected roster are kept.
func (t *SessionTracker) MarkBrokerComplete(userID string, broker string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	session, ok := t.sessions[userID]
	if !ok {
		return fmt.Errorf("SessionTracker.MarkBrokerComplete: user %v: %w", userID, NoActiveSessionErr)
	}

	session.CompletedBrokers[CanonicalBroker(broker)] = struct{}{}
	return nil
}

// MarkError appends a broker-reported failure. The broker stays pending: an
// errored broker may still report completion later.
func (t *SessionTracker) MarkError(userID string, broker string, rawMessage string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	session, ok := t.sessions[userID]
	if !ok {
		return fmt.Errorf("SessionTracker.MarkError: user %v: %w", userID, NoActiveSessionErr)
	}

	session.Errors = append(session.Errors, BrokerError{
		Broker:  CanonicalBroker(broker),
		Message: rawMessage,
	})
	return nil
}

// MarkAllDone finalizes the session and returns the resulting status,
// including the missing and unexpected broker sets. Idempotent.
func (t *SessionTracker) MarkAllDone(userID string) (SessionStatus, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	session, ok := t.sessions[userID]
	if !ok {
		return SessionStatus{}, fmt.Errorf("SessionTracker.MarkAllDone: user %v: %w", userID, NoActiveSessionErr)
	}

	session.Finalized = true
	return session.status(), nil
}

// GetStatus returns the current status at any point in the session, not only
// after MarkAllDone.
func (t *SessionTracker) GetStatus(userID string) (SessionStatus, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	session, ok := t.sessions[userID]
	if !ok {
		return SessionStatus{}, fmt.Errorf("SessionTracker.GetStatus: user %v: %w", userID, NoActiveSessionErr)
	}

	return session.status(), nil
}
