// Package debounce delays a callback until its input has been quiet for a
// fixed interval.
//
// Example:
//
//	// Push the URL only after typing pauses.
//	d := debounce.New(func(q string) { push(q) }, 300*time.Millisecond)
//	d.Change("g")
//	d.Change("go") // only "go" is delivered
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is used when New is given a non-positive delay.
const DefaultDelay = 300 * time.Millisecond

// Debouncer holds at most one pending invocation of its callback.
type Debouncer[T any] struct {
	callback func(T)
	delay    time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
	gen     uint64
}

// New creates a Debouncer that calls callback after delay of inactivity.
func New[T any](callback func(T), delay time.Duration) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{callback: callback, delay: delay}
}

// Delay returns the quiet interval.
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}

// Change cancels any pending invocation and schedules a new one with value.
func (d *Debouncer[T]) Change(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = value
	d.armed = true
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

// fire delivers the pending value unless a later Change, Stop or Flush
// superseded the timer that called it.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if !d.armed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	value := d.take()
	d.mu.Unlock()

	d.callback(value)
}

// Flush runs a pending invocation immediately on the calling goroutine.
// It reports whether anything was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	value := d.take()
	d.mu.Unlock()

	d.callback(value)
	return true
}

// Stop drops a pending invocation without running it.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.take()
}

// Pending reports whether an invocation is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// take clears the pending slot and returns its value. d.mu must be held.
func (d *Debouncer[T]) take() T {
	var zero T
	value := d.pending
	d.pending = zero
	d.armed = false
	d.timer = nil
	d.gen++
	return value
}
