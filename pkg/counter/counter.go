// Package counter tracks per-path request counts under two deliberately
// different synchronization policies.
//
// The locked policy is the correct one: each increment is an atomic
// read-modify-write, so N completed requests to a path always leave a
// count of exactly N. The racy policy reproduces the classic lost-update
// bug on purpose: it reads the count, yields for a configurable delay,
// then writes back read+1, so concurrent increments overwrite each
// other. Both are first-class configuration choices because the point of
// the racy one is to be observed losing updates.
package counter

import (
	"fmt"
	"sync"
	"time"
)

// Policy selects the synchronization discipline for a Counter.
type Policy string

const (
	// PolicyLocked serializes each whole increment under a mutex.
	PolicyLocked Policy = "locked"

	// PolicyRacy performs an unguarded read-delay-write increment that
	// loses updates under concurrent load.
	PolicyRacy Policy = "racy"
)

// DefaultRacyDelay is the pause between the racy read and write. Long
// enough that the race is reliably observable in tests, short enough to
// keep them fast.
const DefaultRacyDelay = 10 * time.Millisecond

// Counter is a per-path hit counter.
type Counter interface {
	// Increment records one completed request for the path.
	Increment(path string)

	// Get returns the current count for the path (zero when unseen).
	Get(path string) int

	// Snapshot returns a copy of all counts.
	Snapshot() map[string]int
}

// New constructs a Counter for the given policy. The delay only applies
// to PolicyRacy; zero or negative falls back to DefaultRacyDelay.
func New(policy Policy, racyDelay time.Duration) (Counter, error) {
	switch policy {
	case PolicyLocked:
		return NewLocked(), nil
	case PolicyRacy:
		return NewRacy(racyDelay), nil
	default:
		return nil, fmt.Errorf("unknown counter policy %q", policy)
	}
}

// lockedCounter guards the whole read-modify-write with one mutex.
type lockedCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

// NewLocked returns a counter with linearizable increments.
func NewLocked() Counter {
	return &lockedCounter{hits: make(map[string]int)}
}

func (c *lockedCounter) Increment(path string) {
	c.mu.Lock()
	c.hits[path]++
	c.mu.Unlock()
}

func (c *lockedCounter) Get(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func (c *lockedCounter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.hits))
	for k, v := range c.hits {
		out[k] = v
	}
	return out
}

// racyCounter demonstrates the lost-update hazard.
//
// The mutex here protects only the individual map read and the
// individual map write, never the span between them. That mirrors the
// original's per-operation atomicity (each map access is safe on its
// own) while the sleep in the gap guarantees that concurrent increments
// interleave and clobber each other. Do not widen the critical section:
// losing updates is this type's contract.
type racyCounter struct {
	delay time.Duration
	mu    sync.Mutex
	hits  map[string]int
}

// NewRacy returns a counter whose increments lose updates under
// concurrent load. delay is the yield between read and write.
func NewRacy(delay time.Duration) Counter {
	if delay <= 0 {
		delay = DefaultRacyDelay
	}
	return &racyCounter{delay: delay, hits: make(map[string]int)}
}

func (c *racyCounter) Increment(path string) {
	c.mu.Lock()
	v := c.hits[path]
	c.mu.Unlock()

	time.Sleep(c.delay)

	c.mu.Lock()
	c.hits[path] = v + 1
	c.mu.Unlock()
}

func (c *racyCounter) Get(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func (c *racyCounter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.hits))
	for k, v := range c.hits {
		out[k] = v
	}
	return out
}
