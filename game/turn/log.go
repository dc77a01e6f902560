package turn

import (
	"sync"
	"time"
)

// DefaultLogLimit caps how many entries a Log keeps in memory.
const DefaultLogLimit = 500

// Entry is one line of the turn log.
type Entry struct {
	Seq       int       `json:"seq"`
	Turn      int       `json:"turn"`
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is an ordered, bounded list of turn messages. Sequence numbers keep
// increasing after old entries are dropped so readers can page with Since.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	nextSeq int
	limit   int
}

// NewLog creates a log that keeps at most limit entries. Zero or less uses DefaultLogLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return &Log{limit: limit, nextSeq: 1}
}

// Add appends a message and returns the stored entry.
func (l *Log) Add(turn int, phase Phase, message string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		Seq:       l.nextSeq,
		Turn:      turn,
		Phase:     phase,
		Message:   message,
		Timestamp: time.Now(),
	}
	l.nextSeq++
	l.entries = append(l.entries, e)
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
	return e
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns the retained entries with a sequence number greater than seq.
func (l *Log) Since(seq int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	for _, e := range l.entries {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the retained message strings, oldest first.
func (l *Log) Messages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Message
	}
	return out
}

// Len is the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// LastSeq is the sequence number of the newest entry, or 0 for an empty log.
func (l *Log) LastSeq() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextSeq - 1
}

// Replace swaps in restored entries.
func (l *Log) Replace(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]Entry(nil), entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
	l.nextSeq = 1
	if n := len(l.entries); n > 0 {
		l.nextSeq = l.entries[n-1].Seq + 1
	}
}

// Clear drops every entry and restarts numbering.
func (l *Log) Clear() {
	l.Replace(nil)
}
