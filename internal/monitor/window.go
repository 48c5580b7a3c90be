package monitor

import (
	"ProctorWatch/internal/entity"
	"time"
)

// Window tracks a continuous run of suspicious frames. The zero value is idle.
type Window struct {
	start time.Time
	open  bool
}

type Step struct {
	Duration time.Duration
	Escalate bool
}

// Observe advances the window with one verdict status. A run past threshold
// escalates on every call; the window is not reset by escalation.
func (w *Window) Observe(status entity.Status, now time.Time, threshold time.Duration) Step {
	switch status {
	case entity.StatusSafe:
		w.Close()
	case entity.StatusSuspicious:
		if !w.open {
			w.open = true
			w.start = now
			return Step{}
		}

		duration := now.Sub(w.start)
		if duration < 0 {
			duration = 0
		}
		return Step{Duration: duration, Escalate: duration > threshold}
	}

	return Step{}
}

func (w *Window) Close() {
	w.open = false
	w.start = time.Time{}
}

func (w *Window) Start() (time.Time, bool) {
	return w.start, w.open
}
