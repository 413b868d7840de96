// Package audit keeps a bounded in-memory trail of pipeline activity. The
// log is an explicit service constructed once at startup and passed by
// reference, never a package-level global.
package audit

import (
	"sync"
	"time"
)

// Event kinds recorded by the pipeline.
const (
	KindSyncRun      = "sync_run"
	KindTicketUpdate = "ticket_update"
	KindNotification = "notification"
)

// Entry is one recorded event.
type Entry struct {
	Kind      string            `json:"kind"`
	Actor     string            `json:"actor"`
	Detail    string            `json:"detail"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Log is a fixed-capacity ring buffer of audit entries. When full, the
// oldest entry is dropped. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewLog creates an audit log holding at most size entries.
func NewLog(size int) *Log {
	if size < 1 {
		size = 1
	}
	return &Log{entries: make([]Entry, size)}
}

// Record appends an entry, stamping it with the current time.
func (l *Log) Record(kind, actor, detail string, fields map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = Entry{
		Kind:      kind,
		Actor:     actor,
		Detail:    detail,
		Fields:    fields,
		CreatedAt: time.Now().UTC(),
	}
	l.next++
	if l.next == len(l.entries) {
		l.next = 0
		l.full = true
	}
}

// Recent returns up to n entries, newest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.next
	if l.full {
		size = len(l.entries)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := l.next - 1 - i
		if idx < 0 {
			idx += len(l.entries)
		}
		out = append(out, l.entries[idx])
	}
	return out
}
