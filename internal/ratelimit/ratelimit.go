// Package ratelimit provides the fixed-window counter that throttles login
// attempts. It is an interface so call sites can take a distributed limiter
// without changing.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter reports whether the caller identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// FixedWindow counts attempts per key inside a rolling window of fixed
// length. The first attempt past Limit within Window is denied; the window
// resets Window after its first attempt, not after the last.
type FixedWindow struct {
	Window time.Duration
	Limit  int

	now func() time.Time

	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	count int
	start time.Time
}

// NewFixedWindow returns a limiter allowing limit attempts per window.
func NewFixedWindow(window time.Duration, limit int) *FixedWindow {
	return &FixedWindow{
		Window:  window,
		Limit:   limit,
		now:     time.Now,
		entries: make(map[string]*windowEntry),
	}
}

func (l *FixedWindow) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || now.Sub(entry.start) > l.Window {
		l.entries[key] = &windowEntry{count: 1, start: now}
		return true
	}
	if entry.count >= l.Limit {
		return false
	}
	entry.count++
	return true
}
