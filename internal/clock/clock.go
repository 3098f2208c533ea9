package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts time for the floor engine so expiry and cooldown can be
// driven deterministically in tests. Now() values carry Go's monotonic
// reading; comparisons against lease deadlines never depend on wall time.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules f to run once d has elapsed. The returned timer
	// must be stopped when the deadline it guards no longer applies.
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	// Stop cancels the timer. Reports whether the callback was prevented
	// from running.
	Stop() bool
}

type realClock struct{}

// New returns the system clock.
func New() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clk     *Fake
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func NewFake() *Fake {
	return &Fake{now: time.Unix(1_700_000_000, 0)}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clk: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and fires due timers in deadline order.
// Callbacks run without the clock lock held, so they may schedule or stop
// other timers.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()

	for {
		t := c.nextDue()
		if t == nil {
			return
		}
		t.f()
	}
}

func (c *Fake) nextDue() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	sort.SliceStable(c.timers, func(i, j int) bool {
		return c.timers[i].at.Before(c.timers[j].at)
	})
	for _, t := range c.timers {
		if t.stopped || t.fired {
			continue
		}
		if t.at.After(c.now) {
			continue
		}
		t.fired = true
		return t
	}
	return nil
}
