package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"certcheck/internal/certcheck"
)

// Run tracks one CLI invocation and the verdicts it produced. Its ID tags
// every log line written during the invocation.
type Run struct {
	ID        string
	Command   string
	StartedAt time.Time

	mu     sync.Mutex
	counts map[certcheck.Status]int
}

// NewRun creates a Run with a fresh random ID. Processes started in the same
// instant still get distinct IDs in a shared log file.
func NewRun(command string, startedAt time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: startedAt,
		counts:    make(map[certcheck.Status]int),
	}
}

// Record counts a verdict status. Safe for concurrent use.
func (r *Run) Record(s certcheck.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[s]++
}

// Count returns how many verdicts had status s.
func (r *Run) Count(s certcheck.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[s]
}

// Total returns the number of verdicts recorded.
func (r *Run) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

// Failed reports whether any verdict was invalid.
func (r *Run) Failed() bool {
	return r.Count(certcheck.StatusInvalid) > 0
}
