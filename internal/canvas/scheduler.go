package canvas

import (
	"sort"
	"time"

	"github.com/jmylchreest/danmaq/internal/model"
)

// Scheduler runs a callback on the event goroutine after a delay.
type Scheduler interface {
	Schedule(d time.Duration, fn func())
}

// Animation is a running timed motion.
type Animation interface {
	// OnComplete registers fn to run once the motion finishes.
	OnComplete(fn func())
}

// Surface is the visual element backing a comment.
type Surface interface {
	// Size returns the laid-out size in pixels.
	Size() (width, height int)
	// Move places the surface at an absolute point.
	Move(p Point)
	// Animate moves the surface linearly between two absolute points.
	Animate(from, to Point, d time.Duration) Animation
	// Close releases the visual resources.
	Close()
}

// Renderer creates surfaces. A wrapWidth above zero fixes the surface width
// and word-wraps the text inside it.
type Renderer interface {
	NewSurface(text string, style model.Style, wrapWidth int) Surface
}

// RandSource yields uniform integers in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type RandSource interface {
	IntN(n int) int
}

// ManualScheduler is a virtual-clock Scheduler. Nothing runs until Advance is called.
type ManualScheduler struct {
	now   time.Duration
	seq   int
	tasks []manualTask
}

type manualTask struct {
	at  time.Duration
	seq int
	fn  func()
}

// NewManualScheduler creates a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule queues fn to run d after the current virtual time.
func (s *ManualScheduler) Schedule(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	s.seq++
	s.tasks = append(s.tasks, manualTask{at: s.now + d, seq: s.seq, fn: fn})
}

// Advance moves the clock forward, running every task that falls due in
// deadline order. Tasks scheduled by running tasks are honored if they fall
// inside the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		idx := s.nextDue(target)
		if idx < 0 {
			break
		}
		task := s.tasks[idx]
		s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
		s.now = task.at
		task.fn()
	}
	s.now = target
}

// nextDue returns the index of the earliest task due by target, or -1.
func (s *ManualScheduler) nextDue(target time.Duration) int {
	if len(s.tasks) == 0 {
		return -1
	}
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].at == s.tasks[j].at {
			return s.tasks[i].seq < s.tasks[j].seq
		}
		return s.tasks[i].at < s.tasks[j].at
	})
	if s.tasks[0].at > target {
		return -1
	}
	return 0
}

// Now returns the current virtual time.
func (s *ManualScheduler) Now() time.Duration {
	return s.now
}

// Pending returns the number of queued tasks.
func (s *ManualScheduler) Pending() int {
	return len(s.tasks)
}
