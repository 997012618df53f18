package usage

import (
	"sync"

	"outreach-engine/internal/domain"
)

// RingLog is a bounded in-memory action log. Once full, new entries
// overwrite the oldest. Diagnostics only, never a system of record.
type RingLog struct {
	mu      sync.Mutex
	entries []domain.ActionLogEntry
	next    int
	full    bool
}

// NewRingLog creates a log holding at most size entries.
func NewRingLog(size int) *RingLog {
	if size <= 0 {
		size = 1
	}
	return &RingLog{entries: make([]domain.ActionLogEntry, size)}
}

// Append implements domain.ActionLog.
func (l *RingLog) Append(entry domain.ActionLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = entry
	l.next++
	if l.next == len(l.entries) {
		l.next = 0
		l.full = true
	}
}

// Recent implements domain.ActionLog, newest first.
func (l *RingLog) Recent(limit int) []domain.ActionLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	size := l.next
	if l.full {
		size = len(l.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]domain.ActionLogEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.next - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}
