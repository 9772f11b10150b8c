package stream

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the debounce window applied to search input.
const DefaultQuietPeriod = 300 * time.Millisecond

// timer is the subset of *time.Timer the debouncer needs.
type timer interface {
	Stop() bool
}

// afterFunc schedules fn after d. Replaced in tests.
type afterFunc func(d time.Duration, fn func()) timer

func realAfterFunc(d time.Duration, fn func()) timer {
	return time.AfterFunc(d, fn)
}

// Debouncer turns a stream of raw values into a stream of committed values.
//
// Each [Debouncer.Push] restarts the quiet period; when the period elapses
// without further input, the last pushed value is committed unless it equals
// the previously committed value. This is a trailing-edge debounce: a steady
// stream of input never commits until it pauses.
//
// emit runs on the timer goroutine.
type Debouncer[T comparable] struct {
	quiet     time.Duration
	emit      func(T)
	afterFunc afterFunc

	mu        sync.Mutex
	timer     timer
	gen       uint64
	committed T
	hasValue  bool
	stopped   bool
}

// NewDebouncer creates a [Debouncer] with the given quiet period. A
// non-positive quiet period uses [DefaultQuietPeriod].
func NewDebouncer[T comparable](quiet time.Duration, emit func(T)) *Debouncer[T] {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer[T]{
		quiet:     quiet,
		emit:      emit,
		afterFunc: realAfterFunc,
	}
}

// Seed records v as already committed without emitting it, so that input
// settling back on v is suppressed.
func (d *Debouncer[T]) Seed(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.committed = v
	d.hasValue = true
}

// Push records a raw value and restarts the quiet period.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.timer = d.afterFunc(d.quiet, func() { d.fire(gen, v) })
}

// Stop cancels any pending commit. Later pushes are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// fire commits v if no newer push happened since it was scheduled.
func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	// a timer that already fired cannot be stopped; the generation check
	// drops it when a newer value replaced it
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	if d.hasValue && d.committed == v {
		d.mu.Unlock()
		return
	}
	d.committed = v
	d.hasValue = true
	d.mu.Unlock()

	d.emit(v)
}
