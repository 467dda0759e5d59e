package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shelfscan/internal/core/debounce"
	"shelfscan/internal/services/scan/domain"
	"shelfscan/internal/services/scan/repo"
)

var epoch0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeLookup struct {
	mu      sync.Mutex
	calls   []string
	results map[string]domain.LookupResult
	errs    map[string]error
	gate    chan struct{}
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{results: map[string]domain.LookupResult{}, errs: map[string]error{}}
}

func (f *fakeLookup) found(code string, refs ...domain.ProductRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[code] = domain.LookupResult{Found: true, Results: refs}
}

func (f *fakeLookup) fail(code string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[code] = err
}

func (f *fakeLookup) LookupByCode(ctx context.Context, code string) (domain.LookupResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, code)
	res, err, gate := f.results[code], f.errs[code], f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.LookupResult{}, ctx.Err()
		}
	}
	return res, err
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLookup) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type eventRecorder struct {
	mu  sync.Mutex
	evs []domain.Event
}

func (r *eventRecorder) Publish(_ context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
	return nil
}

func (r *eventRecorder) of(kind domain.EventKind) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, ev := range r.evs {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *eventRecorder) has(kind domain.EventKind) bool { return len(r.of(kind)) > 0 }

type brokenStore struct {
	loadErr error
	saveErr error
}

func (b brokenStore) Load(context.Context) (domain.RegistrySnapshot, error) {
	return domain.RegistrySnapshot{}, b.loadErr
}

func (b brokenStore) Save(context.Context, domain.RegistrySnapshot) error { return b.saveErr }

var errBoom = errors.New("boom")

type harness struct {
	t      *testing.T
	svc    *Svc
	clock  *debounce.ManualClock
	lookup *fakeLookup
	events *eventRecorder
	store  domain.RegistryStore
	ctx    context.Context
}

type harnessOpt func(*Config, *Ports)

func withStore(s domain.RegistryStore) harnessOpt {
	return func(_ *Config, p *Ports) { p.Store = s }
}

func newHarness(t *testing.T, opts ...harnessOpt) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		clock:  debounce.NewManualClock(epoch0),
		lookup: newFakeLookup(),
		events: &eventRecorder{},
	}
	cfg := Config{Quiet: 3 * time.Second, Threshold: 5, LookupTimeout: 5 * time.Second}
	ports := Ports{
		Store:  repo.NewMemory(domain.RegistrySnapshot{}),
		Lookup: h.lookup,
		Events: h.events,
		Clock:  h.clock,
	}
	for _, o := range opts {
		o(&cfg, &ports)
	}
	h.store = ports.Store
	h.svc = New(cfg, ports)

	ctx, cancel := context.WithCancel(context.Background())
	h.ctx = ctx
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func (h *harness) start() domain.SessionInfo {
	h.t.Helper()
	info, err := h.svc.StartSession(h.ctx)
	require.NoError(h.t, err)
	return info
}

// snap doubles as a barrier: it runs after everything already in the inbox
func (h *harness) snap() domain.SessionInfo {
	h.t.Helper()
	info, err := h.svc.Snapshot(h.ctx)
	require.NoError(h.t, err)
	return info
}

func (h *harness) scan(value string, n int) {
	h.t.Helper()
	dets := make([]domain.RawDetection, n)
	for i := range dets {
		dets[i] = domain.RawDetection{Value: value}
	}
	res := h.svc.Ingest(dets)
	require.Equal(h.t, n, res.Queued)
}

func (h *harness) waitFor(kind domain.EventKind) domain.Event {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.events.has(kind) }, 2*time.Second, 5*time.Millisecond, "no %s event", kind)
	return h.events.of(kind)[0]
}

func (h *harness) waitState(want domain.State) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.snap().State == want }, 2*time.Second, 5*time.Millisecond, "state never reached %s", want)
}
