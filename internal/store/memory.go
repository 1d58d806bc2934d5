package store

import (
	"sync"
	"time"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// When ordered is set, an outcome is applied only if its sequence number is
// newer than the last applied one, so the state always reflects the most
// recently issued request that completed. Otherwise outcomes are applied in
// arrival order and a slow stale response can overwrite a fresher one.
//
// Subscribers receive updates via buffered channels (buffer size 100). Updates
// are sent non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber to prevent blocking the entire system.
type MemoryStore struct {
	mu      sync.RWMutex
	state   Snapshot
	ordered bool

	subscribers map[chan Snapshot]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// instance is reported in every snapshot. The store starts with zero clicks
// and the zero server info placeholder.
func NewMemoryStore(instance string, ordered bool) *MemoryStore {
	return &MemoryStore{
		state:       Snapshot{Instance: instance},
		ordered:     ordered,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Increment adds one to the click counter and notifies all subscribers.
func (m *MemoryStore) Increment() Snapshot {
	m.mu.Lock()
	m.state.Clicks++
	m.state.UpdatedAt = time.Now()
	snap := m.copyLocked()
	m.notifySubscribers(snap)
	m.mu.Unlock()

	return snap
}

// Apply records a poll outcome and notifies all subscribers.
//
// A successful outcome replaces the stored info wholesale. A failed outcome
// leaves the info untouched but is still recorded as the last outcome.
func (m *MemoryStore) Apply(u Update) (Snapshot, bool) {
	m.mu.Lock()
	if m.ordered && u.Seq <= m.state.AppliedSeq {
		snap := m.copyLocked()
		m.mu.Unlock()
		return snap, false
	}

	outcome := u.Outcome
	m.state.Last = &outcome
	m.state.AppliedSeq = u.Seq
	if u.Info != nil {
		m.state.Info = *u.Info
	} else {
		m.state.Failures++
	}
	m.state.UpdatedAt = time.Now()
	snap := m.copyLocked()
	m.notifySubscribers(snap)
	m.mu.Unlock()

	return snap, true
}

// Snapshot returns a copy of the current state.
func (m *MemoryStore) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyLocked()
}

// copyLocked returns a deep copy of the state. Caller must hold mu.
func (m *MemoryStore) copyLocked() Snapshot {
	snap := m.state
	if m.state.Last != nil {
		last := *m.state.Last
		snap.Last = &last
	}
	return snap
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the snapshot to all active subscribers without blocking.
// Called with mu held so subscribers observe snapshots in mutation order.
func (m *MemoryStore) notifySubscribers(snap Snapshot) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			// subscriber is slow, drop the message
		}
	}
}
