package stream

import (
	"reflect"
	"sync"
)

// Subscription cancels delivery to an observer.
type Subscription interface {
	// Unsubscribe stops delivery. Safe to call multiple times.
	Unsubscribe()
}

// SubscriptionFunc adapts a function to [Subscription].
type SubscriptionFunc func()

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// Observable is a source of values that replays its latest value to new
// observers.
type Observable[T any] interface {
	Subscribe(fn func(T)) Subscription
}

// Boundary reports the end of each delivery so fan-in streams can coalesce
// all changes caused by one transition into a single emission.
type Boundary interface {
	OnSettled(fn func()) Subscription
}

// Input is a type-erased stream that [Combine] can watch.
type Input interface {
	watch(fn func()) Subscription
	ready() bool
}

// Comparable returns an equality function using ==.
func Comparable[T comparable]() func(a, b T) bool {
	return func(a, b T) bool { return a == b }
}

// DeepEqual returns an equality function using reflect.DeepEqual. Prefer a
// typed comparison where one exists.
func DeepEqual[T any]() func(a, b T) bool {
	return func(a, b T) bool { return reflect.DeepEqual(a, b) }
}

type observer[T any] struct {
	id    int
	fn    func(T)
	since uint64 // sequence already covered by the replay
}

// delivery is one queued notification. A zero target broadcasts to every
// observer registered before seq; a non-zero target is a replay for one
// new observer.
type delivery[T any] struct {
	v      T
	seq    uint64
	target int
}

// Subject holds the latest value of a stream and pushes every distinct new
// value to its observers.
//
// New observers receive the latest value immediately (replay-latest).
// Consecutive values that are equal according to the subject's equality
// function are suppressed.
//
// Deliveries are queued and drained by whichever goroutine finds the
// subject idle, so observers see values in publish order and an observer
// may publish or subscribe from inside its callback. Such a nested call
// returns before its own delivery, which follows the current one.
type Subject[T any] struct {
	equal func(a, b T) bool

	mu          sync.Mutex
	latest      T
	has         bool
	seq         uint64
	observers   []observer[T]
	nextID      int
	queue       []delivery[T]
	dispatching bool
}

// NewSubject creates an empty [Subject]. A nil equal disables duplicate
// suppression.
func NewSubject[T any](equal func(a, b T) bool) *Subject[T] {
	return &Subject[T]{equal: equal}
}

// Next publishes v. Returns false if v equals the latest value and was
// suppressed.
func (s *Subject[T]) Next(v T) bool {
	s.mu.Lock()
	if s.has && s.equal != nil && s.equal(s.latest, v) {
		s.mu.Unlock()
		return false
	}
	s.latest = v
	s.has = true
	s.seq++
	s.queue = append(s.queue, delivery[T]{v: v, seq: s.seq})
	s.mu.Unlock()

	s.drain()
	return true
}

// Subscribe registers fn and replays the latest value to it, if any.
//
// When no delivery is in progress the replay happens before Subscribe
// returns. Otherwise it is queued behind the pending deliveries and fn
// never receives a value older than the replayed one.
func (s *Subject[T]) Subscribe(fn func(T)) Subscription {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observer[T]{id: id, fn: fn, since: s.seq})
	if s.has {
		s.queue = append(s.queue, delivery[T]{v: s.latest, seq: s.seq, target: id})
	}
	s.mu.Unlock()

	s.drain()

	return SubscriptionFunc(func() { s.remove(id) })
}

// Value returns the latest value, or the zero value if none was published.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Latest returns the latest value and whether one was published.
func (s *Subject[T]) Latest() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.has
}

// watch notifies fn on every emission without replay.
func (s *Subject[T]) watch(fn func()) Subscription {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observer[T]{id: id, fn: func(T) { fn() }, since: s.seq})
	s.mu.Unlock()

	return SubscriptionFunc(func() { s.remove(id) })
}

// drain delivers queued values in order. Only one goroutine drains at a
// time; callers that find a dispatcher running leave their delivery to it.
func (s *Subject[T]) drain() {
	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	s.mu.Unlock()

	// an observer panic must not leave the subject stuck in dispatch
	defer func() {
		s.mu.Lock()
		s.dispatching = false
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		d := s.queue[0]
		s.queue = s.queue[1:]

		var targets []observer[T]
		for _, o := range s.observers {
			if (d.target != 0 && o.id == d.target) || (d.target == 0 && o.since < d.seq) {
				targets = append(targets, o)
			}
		}
		s.mu.Unlock()

		for _, o := range targets {
			if s.active(o.id) {
				o.fn(d.v)
			}
		}
	}
}

func (s *Subject[T]) ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.has
}

func (s *Subject[T]) active(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.observers {
		if o.id == id {
			return true
		}
	}
	return false
}

func (s *Subject[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}
