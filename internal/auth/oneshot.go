package auth

import (
	"context"
	"sync/atomic"
)

// OneShot hands exactly one value from a producer to a consumer.  Only the first Send is
// delivered; later sends are refused without blocking.
type OneShot[T any] struct {
	ch   chan T
	sent atomic.Bool
}

// NewOneShot returns an empty hand-off
func NewOneShot[T any]() *OneShot[T] {
	return &OneShot[T]{ch: make(chan T, 1)}
}

// Send delivers v if nothing has been delivered before.  It never blocks and reports whether v was accepted.
func (o *OneShot[T]) Send(v T) bool {
	if !o.sent.CompareAndSwap(false, true) {
		return false
	}
	o.ch <- v
	return true
}

// Sent reports whether a value has already been delivered
func (o *OneShot[T]) Sent() bool {
	return o.sent.Load()
}

// Receive waits for the delivered value or for ctx to end
func (o *OneShot[T]) Receive(ctx context.Context) (T, error) {
	select {
	case v := <-o.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
