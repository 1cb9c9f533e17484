// Package wizard drives the guided-fix workflow: one operator session walking
// the incomplete products in priority order.
package wizard

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"catalogops/internal/errors"
)

// Item is one queued product, carrying just enough identity and priority data
// to drive the session.
type Item struct {
	RowNum          int    `json:"row_num"`
	SKU             string `json:"sku"`
	Title           string `json:"title"`
	CriticalMissing int    `json:"critical_missing"`
	Score           int    `json:"score"`
}

// State is a read-only snapshot of the active session handed to callers.
type State struct {
	ID         string `json:"id"`
	Index      int    `json:"index"`
	QueueLen   int    `json:"queue_len"`
	FixedCount int    `json:"fixed_count"`
	Complete   bool   `json:"complete"`
	Current    Item   `json:"current"`
}

// Manager owns the single wizard session. Starting a new session exits any
// active one first; there is never more than one.
type Manager struct {
	maxQueue int

	mu      sync.Mutex
	session *session
}

type session struct {
	id         string
	queue      []Item
	index      int
	fixedCount int
	complete   bool
}

// NewManager creates an idle wizard manager. A positive maxQueue caps how
// many products one session walks; the cap keeps the highest-priority items.
func NewManager(maxQueue int) *Manager {
	return &Manager{maxQueue: maxQueue}
}

// Start opens a session over the queue, sorted by priority: most critical
// fields missing first, lowest completeness first within the same critical
// count. An empty queue is a validation error.
func (m *Manager) Start(items []Item) (State, error) {
	if len(items) == 0 {
		return State{}, errors.ValidationError("guided fix needs at least one incomplete product")
	}

	queue := make([]Item, len(items))
	copy(queue, items)
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].CriticalMissing != queue[j].CriticalMissing {
			return queue[i].CriticalMissing > queue[j].CriticalMissing
		}
		return queue[i].Score < queue[j].Score
	})
	if m.maxQueue > 0 && len(queue) > m.maxQueue {
		queue = queue[:m.maxQueue]
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Replacing implies exiting the old session; no partial state survives.
	m.session = &session{id: uuid.NewString(), queue: queue}
	return m.stateLocked(), nil
}

// Advance moves to the next product, or flips the session into the terminal
// complete sub-state when the queue is exhausted.
func (m *Manager) Advance() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return State{}, errors.New(errors.CodeWizardInactive, "no guided fix session is active")
	}
	if m.session.index+1 < len(m.session.queue) {
		m.session.index++
	} else {
		m.session.complete = true
	}
	return m.stateLocked(), nil
}

// Retreat steps back one product; invalid at the head of the queue.
func (m *Manager) Retreat() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return State{}, errors.New(errors.CodeWizardInactive, "no guided fix session is active")
	}
	if m.session.index <= 0 {
		return State{}, errors.ValidationError("already at the first product")
	}
	m.session.index--
	m.session.complete = false
	return m.stateLocked(), nil
}

// RecordFix counts a successful save reported by the edit modal. It does not
// advance; the operator moves on explicitly.
func (m *Manager) RecordFix() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return State{}, errors.New(errors.CodeWizardInactive, "no guided fix session is active")
	}
	m.session.fixedCount++
	return m.stateLocked(), nil
}

// Exit discards the session entirely, wherever it stood.
func (m *Manager) Exit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
}

// Active reports whether a session exists.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Current returns the state of the active session.
func (m *Manager) Current() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return State{}, errors.New(errors.CodeWizardInactive, "no guided fix session is active")
	}
	return m.stateLocked(), nil
}

func (m *Manager) stateLocked() State {
	s := m.session
	return State{
		ID:         s.id,
		Index:      s.index,
		QueueLen:   len(s.queue),
		FixedCount: s.fixedCount,
		Complete:   s.complete,
		Current:    s.queue[s.index],
	}
}
