// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"sync"
	"time"
)

// Clock abstracts time for the limiter so tests can drive the window
// deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock.
var SystemClock Clock = systemClock{}

const (
	// DefaultWindow is the sliding window over which calls are counted.
	DefaultWindow = time.Minute
	// DefaultLimit is the maximum calls per mode per window.
	DefaultLimit = 10
)

// SlidingWindow counts calls per analysis mode over a trailing window.
// Each mode has an independent budget: exhausting deep analysis must not
// starve the cheap inline checks. Safe for concurrent use.
//
// A token bucket would admit a burst and refill gradually; the product
// contract instead promises "retry in Ns" where N is when the oldest
// counted call ages out, so the limiter keeps the actual timestamps.
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	clock  Clock
	calls  map[Mode][]time.Time
}

// NewSlidingWindow builds a limiter. Pass SystemClock outside tests.
func NewSlidingWindow(limit int, window time.Duration, clock Clock) *SlidingWindow {
	return &SlidingWindow{
		window: window,
		limit:  limit,
		clock:  clock,
		calls:  make(map[Mode][]time.Time),
	}
}

// Reserve records one call in the mode's window, or returns a
// *RateLimitError when the window is full. The retry delay counts down
// to the moment the oldest call in the window expires.
func (w *SlidingWindow) Reserve(mode Mode) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	cutoff := now.Add(-w.window)

	kept := w.calls[mode][:0]
	for _, t := range w.calls[mode] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.calls[mode] = kept

	if len(kept) >= w.limit {
		elapsed := int(now.Sub(kept[0]).Seconds())
		return &RateLimitError{
			Mode:       mode,
			RetryAfter: int(w.window.Seconds()) - elapsed,
		}
	}

	w.calls[mode] = append(w.calls[mode], now)
	return nil
}

// Remaining reports how many calls the mode has left in the current
// window, for surfacing in API responses.
func (w *SlidingWindow) Remaining(mode Mode) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.clock.Now().Add(-w.window)
	active := 0
	for _, t := range w.calls[mode] {
		if t.After(cutoff) {
			active++
		}
	}
	if active >= w.limit {
		return 0
	}
	return w.limit - active
}
