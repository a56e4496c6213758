package service

import (
	"sync"
	"time"
)

// Fallback fragments synthesized when the upstream run goes silent after
// tool outputs were submitted. Emitted with the same per-chunk pacing as
// normal streaming so the client sees a uniform reply.
var stallFallbackChunks = []string{
	"Thank you! Your request has been received. ",
	"Our team will contact you shortly to confirm the details.",
}

const stallChunkDelay = 120 * time.Millisecond

// stallWatchdog detects a silent upstream after tool output submission. At
// most one timer is armed per session; disarm cancels a pending fire. A
// disarm racing an in-flight fire is resolved by the session's state gate,
// not here, so the fire callback must re-check session liveness itself.
type stallWatchdog struct {
	timeout time.Duration
	onStall func()

	mu    sync.Mutex
	timer *time.Timer
}

func newStallWatchdog(timeout time.Duration, onStall func()) *stallWatchdog {
	return &stallWatchdog{timeout: timeout, onStall: onStall}
}

// arm starts the countdown, replacing any previously armed timer.
func (w *stallWatchdog) arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.timeout, w.onStall)
}

// disarm cancels the countdown if it has not fired yet.
func (w *stallWatchdog) disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
