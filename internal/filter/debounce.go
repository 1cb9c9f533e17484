package filter

import (
	"strings"
	"sync"
	"time"
)

// shortTermLen is the search length at or below which filtering applies
// immediately, so clearing a search never waits out the quiet period.
const shortTermLen = 1

// Debouncer holds back free-text search work until the operator stops typing,
// and issues a generation token per submission so a superseded search's result
// can be recognized and dropped instead of rendering over fresher ones.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Submit schedules apply(term, gen) after the quiet period, cancelling any
// pending submission. Empty or very short terms fire immediately.
func (d *Debouncer) Submit(term string, apply func(term string, gen uint64)) uint64 {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if len(strings.TrimSpace(term)) <= shortTermLen {
		d.mu.Unlock()
		apply(term, gen)
		return gen
	}

	d.timer = time.AfterFunc(d.delay, func() {
		if d.Stale(gen) {
			return
		}
		apply(term, gen)
	})
	d.mu.Unlock()
	return gen
}

// Stale reports whether a generation token has been superseded by a newer
// submission; callers drop results for stale generations.
func (d *Debouncer) Stale(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen != d.gen
}
