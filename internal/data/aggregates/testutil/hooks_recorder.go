package testutil

import (
	"sync"
	"time"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/aggregates"
)

// HooksRecorder keeps every aggregate hook call for assertions.
type HooksRecorder struct {
	mu sync.Mutex

	Writes    []WriteEvent
	Conflicts []string
	Transient []string
}

type WriteEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveWrite(op, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Writes = append(h.Writes, WriteEvent{Name: op, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, op)
}

func (h *HooksRecorder) IncTransient(op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Transient = append(h.Transient, op)
}

// StatusCount returns how many recorded writes ended with status.
func (h *HooksRecorder) StatusCount(status string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, w := range h.Writes {
		if w.Status == status {
			n++
		}
	}
	return n
}
