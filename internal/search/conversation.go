package search

import (
	"sync"

	"github.com/hyperjump/florafind/internal/models"
)

// ConversationLog is a bounded in-memory log of answered queries. When it grows
// past its capacity only the most recent entries are kept.
type ConversationLog struct {
	mu       sync.Mutex
	entries  []models.ConversationEntry
	capacity int
	keep     int
}

// NewConversationLog creates a log holding at most capacity entries and trimming to
// the last keep entries on overflow. Non-positive values use 50 and 25.
func NewConversationLog(capacity, keep int) *ConversationLog {
	if capacity <= 0 {
		capacity = 50
	}
	if keep <= 0 || keep > capacity {
		keep = capacity / 2
	}
	return &ConversationLog{capacity: capacity, keep: keep}
}

// Append records entry.
func (l *ConversationLog) Append(entry models.ConversationEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if len(l.entries) > l.capacity {
		trimmed := make([]models.ConversationEntry, l.keep)
		copy(trimmed, l.entries[len(l.entries)-l.keep:])
		l.entries = trimmed
	}
}

// Entries returns a copy of the log, oldest first.
func (l *ConversationLog) Entries() []models.ConversationEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.ConversationEntry{}, l.entries...)
}

// Len returns the number of entries.
func (l *ConversationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear removes every entry.
func (l *ConversationLog) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
