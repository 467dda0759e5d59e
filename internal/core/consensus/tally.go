// Package consensus accumulates per-code detection counts within a burst and
// decides whether any code has earned promotion
package consensus

import "sort"

// Entry is one code and how many accepted detections it collected
type Entry struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Tally is a per-burst frequency counter keyed by canonical code
// not safe for concurrent use; the session actor owns it
type Tally struct {
	counts map[string]int
	total  int
}

// NewTally returns an empty tally
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Record increments the count for code, creating the entry on first sight
func (t *Tally) Record(code string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	t.counts[code]++
	t.total++
}

// Count returns the current count for code
func (t *Tally) Count(code string) int { return t.counts[code] }

// Len returns the number of distinct codes
func (t *Tally) Len() int { return len(t.counts) }

// Total returns the number of recorded detections across all codes
func (t *Tally) Total() int { return t.total }

// Snapshot returns the entries ordered by code
func (t *Tally) Snapshot() []Entry {
	out := make([]Entry, 0, len(t.counts))
	for c, n := range t.counts {
		out = append(out, Entry{Code: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Clear removes every entry
func (t *Tally) Clear() {
	clear(t.counts)
	t.total = 0
}
