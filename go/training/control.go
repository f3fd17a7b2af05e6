package training

import "sync"

// ControlHandle is the only channel through which a SessionManager steers
// a running Engine. All three signals are cooperative: the engine checks
// them at epoch boundaries, never mid-batch.
type ControlHandle struct {
	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	stopped bool
}

func NewControlHandle() *ControlHandle {
	h := &ControlHandle{}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// RequestPause is idempotent; pausing an already-paused handle is a no-op.
func (h *ControlHandle) RequestPause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
}

// RequestResume wakes an engine blocked in waitIfPaused. A no-op if the
// handle was not paused.
func (h *ControlHandle) RequestResume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = false
	h.cond.Broadcast()
}

// RequestStop is idempotent; stopping an already-stopped handle is a no-op.
func (h *ControlHandle) RequestStop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	h.cond.Broadcast()
}

func (h *ControlHandle) stopRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// waitIfPaused blocks the calling (engine) goroutine while paused is set,
// waking on either resume or stop.
func (h *ControlHandle) waitIfPaused() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for h.paused && !h.stopped {
		h.cond.Wait()
	}
}
