package models

import (
	"errors"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ActiveTradeSet is the coordination gate between the two trackers: a ticker
// is armed when a buy/sell order is issued and disarmed when a broker reports
// all transactions complete. Purchase events are only forwarded to the
// watchlist for armed tickers; disarming always removes the ticker, even when
// no matching purchase was correlated yet.
type ActiveTradeSet struct {
	mutex sync.Mutex
	armed map[string]struct{}
}

func NewActiveTradeSet() *ActiveTradeSet {
	return &ActiveTradeSet{
		armed: make(map[string]struct{}),
	}
}

// Arm inserts ticker into the set. Idempotent.
func (s *ActiveTradeSet) Arm(ticker string) {
	ticker = CanonicalTicker(ticker)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.armed[ticker] = struct{}{}
}

func (s *ActiveTradeSet) IsArmed(ticker string) bool {
	ticker = CanonicalTicker(ticker)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, ok := s.armed[ticker]
	return ok
}

// Armed returns a sorted snapshot of the armed tickers.
func (s *ActiveTradeSet) Armed() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tickers := make([]string, 0, len(s.armed))
	for ticker := range s.armed {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// DisarmAll handles a broker-level "all transactions complete" event: every
// armed ticker whose watchlist entry has a purchase account prefixed with the
// broker's name gets those accounts closed out, and every armed ticker is
// removed regardless of whether a match was found. Returns closed accounts
// keyed by ticker.
func (s *ActiveTradeSet) DisarmAll(broker string, watchlist *WatchlistTracker) map[string][]string {
	s.mutex.Lock()
	tickers := make([]string, 0, len(s.armed))
	for ticker := range s.armed {
		tickers = append(tickers, ticker)
	}
	s.armed = make(map[string]struct{})
	s.mutex.Unlock()

	sort.Strings(tickers)

	closed := make(map[string][]string)
	for _, ticker := range tickers {
		matched, _, err := watchlist.CloseoutByBroker(ticker, broker)
		if err != nil {
			// an armed ticker may not be on the watchlist yet; still disarm
			if !errors.Is(err, UnknownTickerErr) {
				log.Errorf("ActiveTradeSet.DisarmAll: %v", err)
			}
			continue
		}

		if len(matched) > 0 {
			closed[ticker] = matched
		}
	}

	return closed
}
