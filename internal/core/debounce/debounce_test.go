package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	gens []uint64
}

func (r *recorder) fire(g uint64) { r.gens = append(r.gens, g) }

func newManual(t *testing.T, quiet time.Duration) (*Debouncer, *ManualClock, *recorder) {
	t.Helper()
	clk := NewManualClock(time.Unix(0, 0))
	rec := &recorder{}
	return New(quiet, rec.fire, WithClock(clk)), clk, rec
}

func TestDebouncer_FiresOnceAfterQuiet(t *testing.T) {
	d, clk, rec := newManual(t, 3*time.Second)

	g := d.Kick()
	if !d.Pending() {
		t.Fatalf("expected pending timer after kick")
	}
	clk.Advance(2999 * time.Millisecond)
	if len(rec.gens) != 0 {
		t.Fatalf("fired early")
	}
	clk.Advance(time.Millisecond)
	if len(rec.gens) != 1 || rec.gens[0] != g {
		t.Fatalf("fires = %v, want [%d]", rec.gens, g)
	}
	if d.Pending() {
		t.Fatalf("timer should be cleared after firing")
	}

	clk.Advance(10 * time.Second)
	if len(rec.gens) != 1 {
		t.Fatalf("fired more than once: %v", rec.gens)
	}
}

func TestDebouncer_KickRestartsQuietPeriod(t *testing.T) {
	d, clk, rec := newManual(t, 3*time.Second)

	d.Kick()
	clk.Advance(2 * time.Second)
	g := d.Kick()
	clk.Advance(2 * time.Second)
	if len(rec.gens) != 0 {
		t.Fatalf("restart did not push the deadline")
	}
	if clk.Pending() != 1 {
		t.Fatalf("expected exactly one live timer, got %d", clk.Pending())
	}
	clk.Advance(time.Second)
	if len(rec.gens) != 1 || rec.gens[0] != g {
		t.Fatalf("fires = %v, want [%d]", rec.gens, g)
	}
}

func TestDebouncer_CancelSuppressesFire(t *testing.T) {
	d, clk, rec := newManual(t, time.Second)

	g := d.Kick()
	d.Cancel()
	if d.Pending() {
		t.Fatalf("cancel left a pending timer")
	}
	if d.Current(g) {
		t.Fatalf("generation should be stale after cancel")
	}
	clk.Advance(5 * time.Second)
	if len(rec.gens) != 0 {
		t.Fatalf("cancelled timer fired: %v", rec.gens)
	}

	// cancel with nothing armed is a no-op
	d.Cancel()
}

func TestDebouncer_CurrentTracksGeneration(t *testing.T) {
	d, _, _ := newManual(t, time.Second)
	g1 := d.Kick()
	if !d.Current(g1) {
		t.Fatalf("fresh generation should be current")
	}
	g2 := d.Kick()
	if d.Current(g1) || !d.Current(g2) || g2 <= g1 {
		t.Fatalf("generations g1=%d g2=%d", g1, g2)
	}
}

func TestDebouncer_DefaultQuiet(t *testing.T) {
	d := New(0, nil)
	if d.Quiet() != DefaultQuiet {
		t.Fatalf("quiet = %v", d.Quiet())
	}
}

func TestDebouncer_RealClock(t *testing.T) {
	var n atomic.Int32
	done := make(chan struct{})
	d := New(20*time.Millisecond, func(uint64) {
		if n.Add(1) == 1 {
			close(done)
		}
	})
	d.Kick()
	d.Kick()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("real clock never fired")
	}
	time.Sleep(50 * time.Millisecond)
	if n.Load() != 1 {
		t.Fatalf("fired %d times", n.Load())
	}
}

func TestManualClock_OrderAndStop(t *testing.T) {
	clk := NewManualClock(time.Time{})
	var order []int
	clk.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	t1 := clk.AfterFunc(time.Second, func() { order = append(order, 1) })
	clk.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	if !t1.Stop() {
		t.Fatalf("stop of live timer should report true")
	}
	if t1.Stop() {
		t.Fatalf("second stop should report false")
	}
	clk.Advance(5 * time.Second)
	if len(order) != 2 || order[0] != 2 || order[1] != 3 {
		t.Fatalf("order = %v", order)
	}
	if clk.Pending() != 0 {
		t.Fatalf("pending = %d", clk.Pending())
	}
	if !clk.Now().Equal(time.Time{}.Add(5 * time.Second)) {
		t.Fatalf("now = %v", clk.Now())
	}
}
