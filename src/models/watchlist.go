package models

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const splitDateLayout = "2006-01-02"

// WatchlistEntry tracks one ticker with a known reverse-split date: the
// accounts that purchased ahead of the split, in arrival order, and the
// accounts that have since closed out. Closeouts may arrive before the
// matching purchase; they are stored either way and reconciled later.
type WatchlistEntry struct {
	SplitDate string
	Purchases []string
	Closeouts map[string]struct{}
	AddedAt   time.Time
}

// Active reports whether the entry still belongs in scheduled summaries. An
// entry resolves exactly when it has at least one purchase and every
// purchased account has closed out.
func (e *WatchlistEntry) Active() bool {
	if len(e.Purchases) == 0 {
		return true
	}

	for _, account := range e.Purchases {
		if _, ok := e.Closeouts[account]; !ok {
			return true
		}
	}

	return false
}

func (e *WatchlistEntry) openAccounts() []string {
	open := make([]string, 0)
	for _, account := range e.Purchases {
		if _, ok := e.Closeouts[account]; !ok {
			open = append(open, account)
		}
	}
	return open
}

func (e *WatchlistEntry) closedCount() int {
	n := 0
	for _, account := range e.Purchases {
		if _, ok := e.Closeouts[account]; ok {
			n++
		}
	}
	return n
}

// WatchlistTracker owns the mapping from ticker to watchlist entry. Entries
// are never hard-deleted; a resolved entry drops out of summaries but stays
// queryable.
type WatchlistTracker struct {
	mutex            sync.Mutex
	entries          map[string]*WatchlistEntry
	lastSummarizedAt time.Time
}

func NewWatchlistTracker() *WatchlistTracker {
	return &WatchlistTracker{
		entries: make(map[string]*WatchlistEntry),
	}
}

// Add puts ticker on the watchlist. First write wins: re-adding an existing
// ticker returns added=false and leaves the stored split date untouched.
func (t *WatchlistTracker) Add(ticker string, splitDate string) (bool, error) {
	if _, err := time.Parse(splitDateLayout, splitDate); err != nil {
		return false, fmt.Errorf("WatchlistTracker.Add: %v: %w", splitDate, InvalidSplitDateErr)
	}

	ticker = CanonicalTicker(ticker)

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.entries[ticker]; ok {
		return false, nil
	}

	t.entries[ticker] = &WatchlistEntry{
		SplitDate: splitDate,
		Purchases: make([]string, 0),
		Closeouts: make(map[string]struct{}),
		AddedAt:   time.Now().UTC(),
	}

	log.Infof("added %v to watchlist, split on %v", ticker, splitDate)
	return true, nil
}

// MarkPurchase appends accountID to the ticker's purchase list. Duplicate
// purchases are no-ops.
func (t *WatchlistTracker) MarkPurchase(ticker string, accountID string) error {
	ticker = CanonicalTicker(ticker)
	accountID = CanonicalAccount(accountID)

	t.mutex.Lock()
	defer t.mutex.Unlock()

	entry, ok := t.entries[ticker]
	if !ok {
		return fmt.Errorf("WatchlistTracker.MarkPurchase: %v: %w", ticker, UnknownTickerErr)
	}

	for _, existing := range entry.Purchases {
		if existing == accountID {
			return nil
		}
	}

	entry.Purchases = append(entry.Purchases, accountID)
	log.Infof("purchase recorded for %v by %v", ticker, accountID)
	return nil
}

// MarkCloseout records that accountID exited its position, whether or not a
// purchase was seen first. Returns resolved=true when this closeout completes
// the entry (all purchased accounts closed out).
func (t *WatchlistTracker) MarkCloseout(ticker string, accountID string) (bool, error) {
	ticker = CanonicalTicker(ticker)
	accountID = CanonicalAccount(accountID)

	t.mutex.Lock()
	defer t.mutex.Unlock()

	entry, ok := t.entries[ticker]
	if !ok {
		return false, fmt.Errorf("WatchlistTracker.MarkCloseout: %v: %w", ticker, UnknownTickerErr)
	}

	entry.Closeouts[accountID] = struct{}{}
	log.Infof("closeout recorded for %v by %v", ticker, accountID)

	return !entry.Active(), nil
}

// CloseoutByBroker marks a closeout for every purchase account of ticker that
// carries the broker: prefix. Returns the matched accounts and whether the
// entry resolved as a result.
func (t *WatchlistTracker) CloseoutByBroker(ticker string, broker string) ([]string, bool, error) {
	ticker = CanonicalTicker(ticker)
	prefix := CanonicalBroker(broker) + ":"

	t.mutex.Lock()
	defer t.mutex.Unlock()

	entry, ok := t.entries[ticker]
	if !ok {
		return nil, false, fmt.Errorf("WatchlistTracker.CloseoutByBroker: %v: %w", ticker, UnknownTickerErr)
	}

	var matched []string
	for _, account := range entry.Purchases {
		if strings.HasPrefix(account, prefix) {
			entry.Closeouts[account] = struct{}{}
			matched = append(matched, account)
		}
	}

	if len(matched) > 0 {
		log.Infof("closeout recorded for %v by broker %v: %v", ticker, broker, matched)
	}

	return matched, !entry.Active(), nil
}

// GetStatus returns the full tracked history for ticker as formatted text,
// including resolved entries.
func (t *WatchlistTracker) GetStatus(ticker string) (string, error) {
	ticker = CanonicalTicker(ticker)

	t.mutex.Lock()
	defer t.mutex.Unlock()

	entry, ok := t.entries[ticker]
	if !ok {
		return "", fmt.Errorf("WatchlistTracker.GetStatus: %v: %w", ticker, UnknownTickerErr)
	}

	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	splitDate, _ := time.Parse(splitDateLayout, entry.SplitDate)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	if !today.Before(splitDate) {
		display.WriteString(p.Sprintf("%v split date: %v (passed)\n", ticker, entry.SplitDate))
	} else {
		daysLeft := int(splitDate.Sub(today).Hours() / 24)
		display.WriteString(p.Sprintf("%v split date: %v (%d day(s) left)\n", ticker, entry.SplitDate, daysLeft))
	}

	table := tablewriter.NewWriter(display)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("")

	closeouts := make(map[string]struct{}, len(entry.Closeouts))
	for account := range entry.Closeouts {
		closeouts[account] = struct{}{}
	}

	for _, account := range entry.Purchases {
		state := "open"
		if _, ok := entry.Closeouts[account]; ok {
			state = "closed out"
		}
		delete(closeouts, account)
		table.Append([]string{account, state})
	}

	// closeouts reported before any purchase was correlated
	unmatched := make([]string, 0, len(closeouts))
	for account := range closeouts {
		unmatched = append(unmatched, account)
	}
	sort.Strings(unmatched)
	for _, account := range unmatched {
		table.Append([]string{account, "closed out (no purchase recorded)"})
	}

	table.Render()

	if open := entry.openAccounts(); len(open) > 0 {
		display.WriteString("Still open: " + strings.Join(open, ", ") + "\n")
	} else if len(entry.Purchases) > 0 {
		display.WriteString("All positions closed.\n")
	}

	return display.String(), nil
}

// LogAndGetSummary returns one line per active entry and logs each. It is
// safe to call repeatedly, on a schedule or on demand; the only state change
// is the audit marker of when the last summary ran.
func (t *WatchlistTracker) LogAndGetSummary() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	tickers := make([]string, 0, len(t.entries))
	for ticker := range t.entries {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	summaries := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		entry := t.entries[ticker]
		if !entry.Active() {
			continue
		}

		line := fmt.Sprintf("%v splits %v: %d of %d accounts closed out", ticker, entry.SplitDate, entry.closedCount(), len(entry.Purchases))
		log.Info(line)
		summaries = append(summaries, line)
	}

	t.lastSummarizedAt = time.Now().UTC()
	return summaries
}

// LastSummarizedAt returns when the last summary ran (zero if never).
func (t *WatchlistTracker) LastSummarizedAt() time.Time {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.lastSummarizedAt
}

// Snapshot returns a copy of the entry for ticker, or nil if absent. Used by
// egress components that need entry fields without holding the lock.
func (t *WatchlistTracker) Snapshot(ticker string) *WatchlistEntry {
	ticker = CanonicalTicker(ticker)

	t.mutex.Lock()
	defer t.mutex.Unlock()

	entry, ok := t.entries[ticker]
	if !ok {
		return nil
	}

	snapshot := &WatchlistEntry{
		SplitDate: entry.SplitDate,
		Purchases: append([]string(nil), entry.Purchases...),
		Closeouts: make(map[string]struct{}, len(entry.Closeouts)),
		AddedAt:   entry.AddedAt,
	}
	for account := range entry.Closeouts {
		snapshot.Closeouts[account] = struct{}{}
	}

	return snapshot
}
