// Package ratelimit provides sliding-window admission control keyed by
// client identity.
//
// The limiter keeps the admission timestamps inside a trailing
// fixed-duration window: each decision prunes entries older than the
// window and compares what remains against the limit. This is an
// approximate sliding-window counter, not a token bucket; request bursts
// timed around window edges can briefly admit more than the limit within
// one wall-clock second. That imprecision is accepted and documented, not
// a defect. Denied requests are not recorded and therefore never extend a
// client's lockout.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultLimit is the default number of admissions per window.
const DefaultLimit = 5

// DefaultWindow is the default trailing window duration.
const DefaultWindow = time.Second

// SlidingWindow admits or denies requests per client key based on how
// many admissions the key already has inside the trailing window.
//
// Thread safety:
// All methods are safe for concurrent use. A single mutex guards the
// whole table; admissions for concurrent workers touching the same key
// are mutually exclusive. Per-table granularity is an accepted
// simplification over per-key locks.
type SlidingWindow struct {
	limit  int
	window time.Duration

	// now is the clock used for admission decisions. Tests substitute a
	// fake clock to exercise window boundaries deterministically.
	now func() time.Time

	mu      sync.Mutex
	clients map[string][]time.Time
}

// New creates a sliding-window limiter. Non-positive limit or window
// fall back to DefaultLimit and DefaultWindow.
func New(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &SlidingWindow{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string][]time.Time),
	}
}

// Allow decides admission for one request from the given client key.
//
// Entries older than the window are pruned first. When the remaining
// count has reached the limit the request is denied and NOT recorded;
// otherwise the current time is recorded and the request is admitted.
// After an admission a key's window never holds more than limit entries.
func (s *SlidingWindow) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.window)

	kept := s.clients[key][:0]
	for _, t := range s.clients[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= s.limit {
		s.clients[key] = kept
		return false
	}

	s.clients[key] = append(kept, now)
	return true
}

// Limit returns the configured per-window admission limit.
func (s *SlidingWindow) Limit() int {
	return s.limit
}

// Window returns the configured trailing window duration.
func (s *SlidingWindow) Window() time.Duration {
	return s.window
}

// Pending returns how many admissions the key currently holds inside
// the window. Intended for tests and the control-plane API.
func (s *SlidingWindow) Pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.window)
	n := 0
	for _, t := range s.clients[key] {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
