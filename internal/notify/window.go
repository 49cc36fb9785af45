// Package notify renders alert messages and delivers them to chat
// destinations under a global rate limit.
package notify

import "time"

// window counts sends inside a rolling interval. When the budget is spent it
// blocks until the interval elapses instead of dropping, so delivery order
// is preserved.
type window struct {
	budget   int
	interval time.Duration
	count    int
	start    time.Time
	now      func() time.Time
	sleep    func(time.Duration)
}

func newWindow(budget int, interval time.Duration) *window {
	return &window{
		budget:   budget,
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// reserve claims one send slot, sleeping past the window boundary when the
// budget is exhausted.
func (w *window) reserve() {
	n := w.now()
	if w.start.IsZero() || n.Sub(w.start) >= w.interval {
		w.start = n
		w.count = 0
	}
	if w.count >= w.budget {
		if wait := w.interval - n.Sub(w.start); wait > 0 {
			w.sleep(wait)
		}
		w.start = w.now()
		w.count = 0
	}
	w.count++
}
