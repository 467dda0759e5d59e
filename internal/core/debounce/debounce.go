// Package debounce implements a trailing-edge quiet-period timer
//
// Every Kick re-arms the timer and bumps a generation number. The fire callback
// receives the generation it was armed with so a consumer that receives fires
// asynchronously can tell a fire that raced a later Kick or Cancel via Current
package debounce

import (
	"sync"
	"time"
)

// DefaultQuiet is the reference quiet period
const DefaultQuiet = 3 * time.Second

// Option configures a Debouncer
type Option func(*Debouncer)

// WithClock swaps the time source
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// Debouncer holds at most one live timer
type Debouncer struct {
	mu    sync.Mutex
	clock Clock
	quiet time.Duration
	fire  func(gen uint64)
	gen   uint64
	timer Timer
}

// New returns a Debouncer that calls fire once quiet has elapsed since the last Kick
// quiet <= 0 means DefaultQuiet
func New(quiet time.Duration, fire func(gen uint64), opts ...Option) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	d := &Debouncer{clock: RealClock{}, quiet: quiet, fire: fire}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Quiet returns the configured quiet period
func (d *Debouncer) Quiet() time.Duration { return d.quiet }

// Kick (re)starts the quiet period and returns the new generation
func (d *Debouncer) Kick() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	g := d.gen
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.elapsed(g) })
	return g
}

// Cancel stops a pending timer without firing; a fire already in flight becomes stale
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a timer is armed
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Current reports whether gen is still the latest arming
func (d *Debouncer) Current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.gen
}

func (d *Debouncer) elapsed(g uint64) {
	d.mu.Lock()
	if g != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	if d.fire != nil {
		d.fire(g)
	}
}
