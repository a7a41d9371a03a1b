package models

import (
	"sync"
	"time"

	"github.com/kataras/go-events"
)

// InboundChatMessage is the go-events topic the gateway worker and the HTTP
// webhook emit raw chat messages on; the classifier listens here.
const InboundChatMessage events.EventName = "InboundChatMessage"

type ChatEntry struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// MemoryBuffer keeps a fixed-capacity window of recent chat entries per user,
// evicting the oldest entry on insert once full.
type MemoryBuffer struct {
	mutex    sync.Mutex
	capacity int
	entries  map[string][]ChatEntry
}

func NewMemoryBuffer(capacity int) *MemoryBuffer {
	if capacity <= 0 {
		capacity = 1
	}

	return &MemoryBuffer{
		capacity: capacity,
		entries:  make(map[string][]ChatEntry),
	}
}

func (b *MemoryBuffer) Append(userID string, role string, content string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	buf := b.entries[userID]
	if len(buf) == b.capacity {
		copy(buf, buf[1:])
		buf = buf[:len(buf)-1]
	}

	b.entries[userID] = append(buf, ChatEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// Recent returns a copy of the user's buffered entries, oldest first.
func (b *MemoryBuffer) Recent(userID string) []ChatEntry {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return append([]ChatEntry(nil), b.entries[userID]...)
}
