package store

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/jpalmerr/roster/internal/state"
	"github.com/jpalmerr/roster/internal/stream"
)

// ErrClosed is returned by SetPagination after [MemoryStore.Close].
var ErrClosed = errors.New("store is closed")

// MemoryStore is an in-memory implementation of [Store].
//
// Transitions are serialized by a mutex. Each replacement is appended to a
// delivery queue together with a generation number; whichever goroutine
// finds the queue idle becomes the dispatcher and drains it in order,
// calling every observer and then every settle hook for one delivery before
// starting the next. Other goroutines only enqueue, so deliveries never
// interleave and always arrive in transition order.
//
// Observer panics are recovered and logged with a correlation ID; they do
// not stop the dispatcher.
type MemoryStore struct {
	logger *slog.Logger

	mu          sync.Mutex
	current     state.State
	gen         uint64
	observers   []*observer
	settlers    []*settler
	queue       []delivery
	dispatching bool
	closed      bool
}

type observer struct {
	fn     func(state.State)
	since  uint64 // generation already covered by the replay
	active bool
}

type settler struct {
	fn     func()
	active bool
}

// delivery is one queued notification. A nil target broadcasts to every
// observer registered before gen; a non-nil target is a replay for one
// new observer.
type delivery struct {
	state  state.State
	gen    uint64
	target *observer
}

// NewMemoryStore creates a [MemoryStore] holding initial.
func NewMemoryStore(initial state.State, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		current: initial,
		logger:  logger,
	}
}

// Snapshot returns the current record.
//
// The returned value shares no mutable data with the store; later
// transitions never change it.
func (m *MemoryStore) Snapshot() state.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Subscribe registers fn and replays the current record to it.
//
// When called while no delivery is in progress, the replay happens before
// Subscribe returns. Otherwise it is queued behind the pending deliveries
// and fn never receives a record older than the replayed one.
func (m *MemoryStore) Subscribe(fn func(state.State)) stream.Subscription {
	m.mu.Lock()
	o := &observer{fn: fn, since: m.gen, active: true}
	m.observers = append(m.observers, o)
	m.queue = append(m.queue, delivery{state: m.current, gen: m.gen, target: o})
	m.mu.Unlock()

	m.drain()

	return stream.SubscriptionFunc(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !o.active {
			return
		}
		o.active = false
		for i, existing := range m.observers {
			if existing == o {
				m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
				break
			}
		}
	})
}

// OnSettled registers fn to run after each delivery.
func (m *MemoryStore) OnSettled(fn func()) stream.Subscription {
	m.mu.Lock()
	s := &settler{fn: fn, active: true}
	m.settlers = append(m.settlers, s)
	m.mu.Unlock()

	return stream.SubscriptionFunc(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !s.active {
			return
		}
		s.active = false
		for i, existing := range m.settlers {
			if existing == s {
				m.settlers = append(m.settlers[:i:i], m.settlers[i+1:]...)
				break
			}
		}
	})
}

// SetCriteria replaces the criteria and sets loading.
func (m *MemoryStore) SetCriteria(criteria string) bool {
	return m.update(func(s state.State) (state.State, bool) {
		if s.Criteria == criteria {
			return s, false
		}
		return s.WithCriteria(criteria), true
	})
}

// SetPagination selects size and page and sets loading.
func (m *MemoryStore) SetPagination(size, page int) (bool, error) {
	if page < 0 {
		return false, fmt.Errorf("%w: %d", state.ErrInvalidPage, page)
	}
	if m.isClosed() {
		return false, ErrClosed
	}

	var validateErr error
	changed := m.update(func(s state.State) (state.State, bool) {
		if err := state.ValidatePageSize(s.Pagination.PageSizes, size); err != nil {
			validateErr = err
			return s, false
		}
		if s.Pagination.SelectedSize == size && s.Pagination.CurrentPage == page {
			return s, false
		}
		return s.WithPagination(size, page), true
	})
	return changed, validateErr
}

// Reload sets loading for the current query and returns the new token.
// After Close it does nothing and returns zero.
func (m *MemoryStore) Reload() uint64 {
	var token uint64
	m.update(func(s state.State) (state.State, bool) {
		next := s.WithReload()
		token = next.Revision
		return next, true
	})
	return token
}

// ApplyFetchResult stores users and clears loading unconditionally.
func (m *MemoryStore) ApplyFetchResult(users []state.User) {
	m.update(func(s state.State) (state.State, bool) {
		return s.WithFetchResult(users), true
	})
}

// ApplyFetchFailure records err and clears loading unconditionally.
func (m *MemoryStore) ApplyFetchFailure(err error) {
	m.update(func(s state.State) (state.State, bool) {
		return s.WithFetchFailure(err), true
	})
}

// ApplyFetchResultFor stores users if token is still the latest revision.
func (m *MemoryStore) ApplyFetchResultFor(token uint64, users []state.User) bool {
	return m.update(func(s state.State) (state.State, bool) {
		if s.Revision != token {
			return s, false
		}
		return s.WithFetchResult(users), true
	})
}

// ApplyFetchFailureFor records err if token is still the latest revision.
func (m *MemoryStore) ApplyFetchFailureFor(token uint64, err error) bool {
	return m.update(func(s state.State) (state.State, bool) {
		if s.Revision != token {
			return s, false
		}
		return s.WithFetchFailure(err), true
	})
}

// Close rejects every later transition. Snapshot and Subscribe keep
// working and report the last record. Close is idempotent.
func (m *MemoryStore) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *MemoryStore) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// update applies fn to the current record under the lock and, if fn
// reports a change, publishes the result.
func (m *MemoryStore) update(fn func(state.State) (state.State, bool)) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	next, changed := fn(m.current)
	if !changed {
		m.mu.Unlock()
		return false
	}
	m.current = next
	m.gen++
	m.queue = append(m.queue, delivery{state: next, gen: m.gen})
	m.mu.Unlock()

	m.drain()
	return true
}

// drain delivers queued records in order. Only one goroutine drains at a
// time; callers that find a dispatcher running return immediately and
// leave their delivery to it.
func (m *MemoryStore) drain() {
	m.mu.Lock()
	if m.dispatching {
		m.mu.Unlock()
		return
	}
	m.dispatching = true

	for len(m.queue) > 0 {
		d := m.queue[0]
		m.queue = m.queue[1:]

		var targets []*observer
		if d.target != nil {
			if d.target.active {
				targets = []*observer{d.target}
			}
		} else {
			for _, o := range m.observers {
				if o.since < d.gen {
					targets = append(targets, o)
				}
			}
		}
		settlers := make([]*settler, len(m.settlers))
		copy(settlers, m.settlers)
		m.mu.Unlock()

		for _, o := range targets {
			if m.isActive(o) {
				m.invokeSafe(func() { o.fn(d.state) })
			}
		}
		for _, s := range settlers {
			if m.isSettlerActive(s) {
				m.invokeSafe(s.fn)
			}
		}

		m.mu.Lock()
	}

	m.dispatching = false
	m.mu.Unlock()
}

func (m *MemoryStore) isActive(o *observer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return o.active
}

func (m *MemoryStore) isSettlerActive(s *settler) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.active
}

// invokeSafe calls fn with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func (m *MemoryStore) invokeSafe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("store observer panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
