package history

import (
	"context"
	"errors"
	"sync"
)

// ErrNoEntry is returned when the navigator has nowhere to go.
var ErrNoEntry = errors.New("no history entry")

// MemoryNavigator is an in-process Navigator: a plain entry stack with a
// cursor. Hosts without a real address bar (tests, TUIs, CLI sessions) use
// it as their navigation backend.
type MemoryNavigator struct {
	mu      sync.Mutex
	entries []Entry
	cursor  int
	onPop   func(entry Entry, hasState bool)
}

// NewMemoryNavigator creates a navigator positioned on the given initial
// entry. The initial entry usually has no snapshot, like a typed address.
func NewMemoryNavigator(initial Entry) *MemoryNavigator {
	return &MemoryNavigator{entries: []Entry{initial}}
}

// Current implements Navigator.
func (n *MemoryNavigator) Current(ctx context.Context) (Entry, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.entries[n.cursor], nil
}

// Push implements Navigator.
func (n *MemoryNavigator) Push(ctx context.Context, entry Entry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries[:n.cursor+1], entry)
	n.cursor = len(n.entries) - 1
	return nil
}

// OnPop implements Navigator.
func (n *MemoryNavigator) OnPop(fn func(entry Entry, hasState bool)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onPop = fn
}

// Back navigates one entry backwards, firing the pop listener.
func (n *MemoryNavigator) Back() error {
	return n.move(-1)
}

// Forward navigates one entry forwards, firing the pop listener.
func (n *MemoryNavigator) Forward() error {
	return n.move(+1)
}

func (n *MemoryNavigator) move(delta int) error {
	n.mu.Lock()
	next := n.cursor + delta
	if next < 0 || next >= len(n.entries) {
		n.mu.Unlock()
		return ErrNoEntry
	}
	n.cursor = next
	entry := n.entries[next]
	onPop := n.onPop
	n.mu.Unlock()

	if onPop != nil {
		onPop(entry, entry.State != nil)
	}
	return nil
}

// Len returns the number of entries, mostly for tests.
func (n *MemoryNavigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}
