package display

import (
	"time"

	"github.com/diamondburned/gotk4/pkg/core/glib"
)

// Scheduler runs canvas timers on the GLib main loop.
type Scheduler struct{}

// Schedule runs fn once after d. Negative delays run on the next iteration.
func (Scheduler) Schedule(d time.Duration, fn func()) {
	ms := max(d.Milliseconds(), 0)
	glib.TimeoutAdd(uint(ms), func() bool {
		fn()
		return false
	})
}
