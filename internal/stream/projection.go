package stream

// Projection is a change-suppressed stream over one part of a source value.
//
// A Projection emits selector(v) for every value its source delivers, but
// only when the selected value differs from the previous one according to
// the projection's equality function. Equality is by value: sources that
// publish a fresh record per transition still produce no emission for
// branches that did not change.
type Projection[T any] struct {
	*Subject[T]
	sub Subscription
}

// Project creates a [Projection] of src using selector.
//
// If src replays a value on subscription (as the store does), the
// projection is ready immediately. equal must not be nil.
func Project[S, T any](src Observable[S], selector func(S) T, equal func(a, b T) bool) *Projection[T] {
	p := &Projection[T]{Subject: NewSubject(equal)}
	p.sub = src.Subscribe(func(v S) {
		p.Next(selector(v))
	})
	return p
}

// Close detaches the projection from its source. Existing observers keep
// the latest value but receive nothing further.
func (p *Projection[T]) Close() {
	p.sub.Unsubscribe()
}
