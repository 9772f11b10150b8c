package stream

import "sync"

// Combined fans several inputs into one stream.
//
// A Combined emits only after every input has produced at least one value.
// Changes are not forwarded per input: an input emission only marks the
// stream dirty, and the combined value is computed once when the boundary
// reports that the current delivery has settled. One store transition that
// touches several inputs therefore yields exactly one combined value, and
// that value never mixes fields from two different transitions.
type Combined[R any] struct {
	*Subject[R]

	compute func() R
	inputs  []Input

	mu    sync.Mutex
	dirty bool
	subs  []Subscription
}

// Combine creates a [Combined] over inputs. compute reads the current
// values of the inputs (typically via their Value methods) and builds the
// combined record. equal suppresses consecutive duplicates; it may be nil.
//
// If all inputs already hold a value, the first combined value is computed
// immediately so that new subscribers get it replayed.
func Combine[R any](boundary Boundary, compute func() R, equal func(a, b R) bool, inputs ...Input) *Combined[R] {
	c := &Combined[R]{
		Subject: NewSubject(equal),
		compute: compute,
		inputs:  inputs,
	}

	for _, in := range inputs {
		c.subs = append(c.subs, in.watch(c.markDirty))
	}
	c.subs = append(c.subs, boundary.OnSettled(c.settle))

	if c.allReady() {
		c.Next(compute())
	}
	return c
}

// Close detaches the stream from its inputs and boundary.
func (c *Combined[R]) Close() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

func (c *Combined[R]) markDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// settle emits one combined value if any input changed since the last
// boundary.
func (c *Combined[R]) settle() {
	c.mu.Lock()
	dirty := c.dirty
	c.dirty = false
	c.mu.Unlock()

	if !dirty || !c.allReady() {
		return
	}
	c.Next(c.compute())
}

func (c *Combined[R]) allReady() bool {
	for _, in := range c.inputs {
		if !in.ready() {
			return false
		}
	}
	return true
}
