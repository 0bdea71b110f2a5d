// Package history retains recent decisions in a fixed-size ring for the
// API and export surfaces.
package history

import (
	"sync"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// DefaultCapacity bounds the ring when no size is configured.
const DefaultCapacity = 100

// Ring is a bounded decision store. Once full, each new decision evicts
// the oldest one. Safe for concurrent use.
type Ring struct {
	mu    sync.RWMutex
	buf   []model.Decision
	next  int
	count int
}

// NewRing builds a ring holding up to capacity decisions. Non-positive
// capacities fall back to the default.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]model.Decision, capacity)}
}

// Add retains the decision, evicting the oldest entry when full.
func (r *Ring) Add(d model.Decision) {
	r.mu.Lock()
	r.buf[r.next] = d
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// Len reports how many decisions are retained.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Capacity reports the ring size.
func (r *Ring) Capacity() int { return len(r.buf) }

// Recent returns up to n decisions, newest first. n <= 0 returns all
// retained decisions.
func (r *Ring) Recent(n int) []model.Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > r.count {
		n = r.count
	}
	out := make([]model.Decision, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// All returns the retained decisions, oldest first.
func (r *Ring) All() []model.Decision {
	recent := r.Recent(0)
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent
}

// Filter returns the retained decisions matching the predicate, newest
// first.
func (r *Ring) Filter(keep func(model.Decision) bool) []model.Decision {
	var out []model.Decision
	for _, d := range r.Recent(0) {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Find returns the decision with the given cycle ID.
func (r *Ring) Find(cycleID string) (model.Decision, bool) {
	for _, d := range r.Recent(0) {
		if d.CycleID == cycleID {
			return d, true
		}
	}
	return model.Decision{}, false
}

// Clear drops every retained decision.
func (r *Ring) Clear() {
	r.mu.Lock()
	r.next = 0
	r.count = 0
	r.mu.Unlock()
}
