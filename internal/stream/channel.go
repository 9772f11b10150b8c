package stream

import "sync"

// Channel subscribes to obs and forwards values to a buffered channel.
//
// Sends never block the publisher. When the buffer is full the oldest
// pending value is discarded in favour of the newer one, so a slow consumer
// may skip intermediate values but always ends on the latest. The returned
// cancel function unsubscribes and closes the channel; it is safe to call
// multiple times.
func Channel[T any](obs Observable[T], buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	var (
		mu     sync.Mutex
		closed bool
	)

	sub := obs.Subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- v:
			return
		default:
		}
		// buffer full: drop the oldest value
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	})

	cancel := func() {
		sub.Unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
	return ch, cancel
}
