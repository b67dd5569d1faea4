package client

import "sync"

// Entry is anything a ChatList can hold. IDs are strings so pending entries
// can carry temporary ids alongside server-assigned ones.
type Entry interface {
	EntryID() string
}

// ChatList is an ordered, id-deduplicated list of chat entries shared
// between the send path and the realtime apply path. Append is idempotent:
// an entry whose id is already present is skipped, so an optimistic insert
// and the echo of the same row from the stream cannot double up.
type ChatList[E Entry] struct {
	mu      sync.Mutex
	entries []E
	index   map[string]int
}

// NewChatList creates an empty list.
func NewChatList[E Entry]() *ChatList[E] {
	return &ChatList[E]{index: make(map[string]int)}
}

// Append adds an entry unless its id is already present. Returns whether the
// entry was added.
func (l *ChatList[E]) Append(e E) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.index[e.EntryID()]; ok {
		return false
	}
	l.index[e.EntryID()] = len(l.entries)
	l.entries = append(l.entries, e)
	return true
}

// Replace swaps the entry with the given id for a new one, keeping its
// position. Used to substitute a server row for its pending placeholder.
func (l *ChatList[E]) Replace(id string, e E) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[id]
	if !ok {
		return false
	}
	delete(l.index, id)
	l.entries[i] = e
	l.index[e.EntryID()] = i
	return true
}

// Update rewrites the entry with the given id in place.
func (l *ChatList[E]) Update(e E) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[e.EntryID()]
	if !ok {
		return false
	}
	l.entries[i] = e
	return true
}

// Remove deletes the entry with the given id.
func (l *ChatList[E]) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[id]
	if !ok {
		return false
	}
	delete(l.index, id)
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	for j := i; j < len(l.entries); j++ {
		l.index[l.entries[j].EntryID()] = j
	}
	return true
}

// Contains reports whether an id is present.
func (l *ChatList[E]) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[id]
	return ok
}

// Get returns the entry with the given id.
func (l *ChatList[E]) Get(id string) (E, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var zero E
	i, ok := l.index[id]
	if !ok {
		return zero, false
	}
	return l.entries[i], true
}

// Reset replaces the whole list, dropping anything pending. Used when a
// fresh page loads from the server.
func (l *ChatList[E]) Reset(entries []E) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make([]E, 0, len(entries))
	l.index = make(map[string]int, len(entries))
	for _, e := range entries {
		if _, ok := l.index[e.EntryID()]; ok {
			continue
		}
		l.index[e.EntryID()] = len(l.entries)
		l.entries = append(l.entries, e)
	}
}

// Snapshot returns a copy of the entries in order.
func (l *ChatList[E]) Snapshot() []E {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]E, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *ChatList[E]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
