// Package thermocouple holds the per-sensor records of a mold: identity,
// position, live status and a bounded temperature history.
package thermocouple

import (
	"sort"
	"time"
)

// HistorySize is the number of samples kept per thermocouple.
const HistorySize = 500

// Sample is a single reading. Valid is false when no temperature was reported.
type Sample struct {
	Time  time.Time
	Temp  float64
	Valid bool
}

// History is a fixed-capacity FIFO of samples ordered by time.
// Not safe for concurrent use; callers synchronize.
type History struct {
	buf      []Sample
	capacity int
	head     int // next write position
	count    int
}

// NewHistory creates an empty history with the given capacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		buf:      make([]Sample, capacity),
		capacity: capacity,
	}
}

// Append pushes s to the tail, overwriting the oldest sample when full.
func (h *History) Append(s Sample) {
	h.buf[h.head] = s
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	return h.count
}

// At returns the i-th sample, 0 being the oldest. It panics when i is out of range.
func (h *History) At(i int) Sample {
	if i < 0 || i >= h.count {
		panic("thermocouple: history index out of range")
	}
	start := (h.head - h.count + h.capacity) % h.capacity
	return h.buf[(start+i)%h.capacity]
}

// Latest returns the newest sample, or false if the history is empty.
func (h *History) Latest() (Sample, bool) {
	if h.count == 0 {
		return Sample{}, false
	}
	return h.At(h.count - 1), true
}

// Samples returns a copy of the stored samples, oldest first.
func (h *History) Samples() []Sample {
	out := make([]Sample, h.count)
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}

// FindThresholdIndex returns the index of the last sample taken strictly before
// latest.Time-window, provided that sample is more than window older than the
// latest one. The second result is false while the history is not deep enough.
func (h *History) FindThresholdIndex(window time.Duration) (int, bool) {
	if h.count < 2 {
		return 0, false
	}
	latest := h.At(h.count - 1)
	bound := latest.Time.Add(-window)

	idx := sort.Search(h.count, func(i int) bool {
		return !h.At(i).Time.Before(bound)
	}) - 1
	if idx < 0 {
		return 0, false
	}
	if latest.Time.Sub(h.At(idx).Time) > window {
		return idx, true
	}
	return 0, false
}
