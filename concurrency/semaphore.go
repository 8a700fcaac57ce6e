// Package concurrency provides the bounded-parallelism primitive the
// Worker Loop uses to cap how many deliveries it processes at once
// (spec.md §5: "deliveries are processed in parallel up to an
// implementation-chosen concurrency cap").
package concurrency

import "sync/atomic"

// Semaphore bounds the number of concurrent holders of a single shared
// resource. Unlike a per-key semaphore, the Worker Loop has exactly one
// resource to bound — its own goroutine fan-out — so this is a plain
// counting semaphore rather than a keyed one.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore allowing up to limit concurrent
// acquisitions. A non-positive limit defaults to 1.
func NewSemaphore(limit int) *Semaphore {
	if limit <= 0 {
		limit = 1
	}
	return &Semaphore{slots: make(chan struct{}, limit)}
}

// Acquire blocks until a slot is free.
func (s *Semaphore) Acquire() {
	s.slots <- struct{}{}
}

// Release frees a slot.
func (s *Semaphore) Release() {
	<-s.slots
}

// ActiveCount returns the number of slots currently held.
func (s *Semaphore) ActiveCount() int {
	return len(s.slots)
}

// AtomicCounter is a thread-safe counter used to track in-flight and
// completed task counts without a mutex.
type AtomicCounter struct {
	value int64
}

// Inc increments the counter by 1 and returns the new value.
func (c *AtomicCounter) Inc() int64 {
	return atomic.AddInt64(&c.value, 1)
}

// Dec decrements the counter by 1 and returns the new value.
func (c *AtomicCounter) Dec() int64 {
	return atomic.AddInt64(&c.value, -1)
}

// Get returns the current value.
func (c *AtomicCounter) Get() int64 {
	return atomic.LoadInt64(&c.value)
}
