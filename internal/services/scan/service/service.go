// Package service runs the scan session controller
//
// One actor goroutine (Run) owns the session. Detections, debounce fires,
// lookup completions and control calls all arrive on a single FIFO inbox so
// state transitions and registry membership checks never interleave.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"shelfscan/internal/core/barcode"
	"shelfscan/internal/core/consensus"
	"shelfscan/internal/core/debounce"
	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/platform/logger"
	"shelfscan/internal/services/scan/domain"
	"shelfscan/internal/services/scan/registry"
)

// Service is the public service port
type Service interface{ domain.ServicePort }

// Config controls the controller
type Config struct {
	Quiet         time.Duration
	Threshold     int
	InboxSize     int
	LookupTimeout time.Duration
	LoadTimeout   time.Duration
	SaveTimeout   time.Duration
	ProductTTL    time.Duration
	AuditBatch    int
	AuditFlush    time.Duration
}

// Ports are the collaborators the controller talks to
// Store and Lookup are required, the rest may be nil
type Ports struct {
	Store  domain.RegistryStore
	Lookup domain.ProductLookup
	Events domain.EventSink
	Audit  domain.AuditSink
	Clock  debounce.Clock
}

// Svc implements the session controller
type Svc struct {
	cfg   Config
	clock debounce.Clock
	log   logger.Logger

	store      domain.RegistryStore
	reg        *registry.Registry
	persister  *registry.Persister
	dispatcher *Dispatcher
	events     domain.EventSink
	auditor    *Auditor
	deb        *debounce.Debouncer

	inbox   chan any
	stopped chan struct{}
	running atomic.Bool
	dropped atomic.Int64

	// actor owned
	sess session
}

type session struct {
	active    bool
	id        string
	startedAt time.Time
	state     domain.State
	tally     *consensus.Tally
	pending   string
	epoch     uint64
	cancel    context.CancelFunc
}

type msgDetections struct{ codes []string }

type msgFire struct{ gen uint64 }

type msgResolved struct {
	epoch uint64
	out   domain.Outcome
}

type msgCall struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// New constructs the controller; call Run to start it
func New(cfg Config, p Ports) *Svc {
	cfg = withDefaults(cfg)
	clock := p.Clock
	if clock == nil {
		clock = debounce.RealClock{}
	}
	events := p.Events
	if events == nil {
		events = discard{}
	}

	s := &Svc{
		cfg:     cfg,
		clock:   clock,
		log:     *logger.Named("scan"),
		store:   p.Store,
		reg:     registry.New(),
		events:  events,
		auditor: NewAuditor(p.Audit, cfg.AuditBatch, cfg.AuditFlush),
		inbox:   make(chan any, cfg.InboxSize),
		stopped: make(chan struct{}),
		sess:    session{state: domain.StateIdle, tally: consensus.NewTally()},
	}
	s.persister = registry.NewPersister(p.Store, cfg.SaveTimeout, s.onSaveError)
	s.dispatcher = NewDispatcher(s.reg, p.Lookup, s.persister, cfg.ProductTTL)
	s.deb = debounce.New(cfg.Quiet, s.onFire, debounce.WithClock(clock))
	return s
}

func withDefaults(c Config) Config {
	if c.Quiet <= 0 {
		c.Quiet = debounce.DefaultQuiet
	}
	if c.Threshold <= 0 {
		c.Threshold = consensus.DefaultThreshold
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 1024
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 10 * time.Second
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 5 * time.Second
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = 5 * time.Second
	}
	return c
}

// Registry exposes the known-code registry for read access
func (s *Svc) Registry() *registry.Registry { return s.reg }

// Dispatcher exposes the resolution dispatcher
func (s *Svc) Dispatcher() *Dispatcher { return s.dispatcher }

// Ingest canonicalizes a batch on the caller goroutine and hands it to the actor
// it never blocks: a full inbox drops the whole batch
func (s *Svc) Ingest(dets []domain.RawDetection) domain.IngestResult {
	var res domain.IngestResult
	codes := make([]string, 0, len(dets))
	for _, d := range dets {
		code, ok := barcode.Clean(d.Value)
		if !ok || (d.Kind.Numeric() && !allDigits(code)) {
			res.Rejected++
			continue
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return res
	}
	select {
	case s.inbox <- msgDetections{codes: codes}:
		res.Queued = len(codes)
	default:
		res.Dropped = len(codes)
		s.dropped.Add(int64(len(codes)))
	}
	return res
}

// Dropped returns the number of detections lost to a full inbox
func (s *Svc) Dropped() int64 { return s.dropped.Load() }

// StartSession opens a session, or returns the current one when already active
func (s *Svc) StartSession(ctx context.Context) (domain.SessionInfo, error) {
	var info domain.SessionInfo
	err := s.call(ctx, func(ctx context.Context) {
		s.start(ctx)
		info = s.info()
	})
	return info, err
}

// StopSession tears the session down; a stopped session drops detections
func (s *Svc) StopSession(ctx context.Context) error {
	return s.call(ctx, s.stop)
}

// ResetSession clears the tally, timer and in-flight lookup, keeping the session open
func (s *Svc) ResetSession(ctx context.Context) error {
	return s.call(ctx, s.reset)
}

// Snapshot returns the observable session state
func (s *Svc) Snapshot(ctx context.Context) (domain.SessionInfo, error) {
	var info domain.SessionInfo
	err := s.call(ctx, func(context.Context) { info = s.info() })
	return info, err
}

// Confirmed lists confirmed codes with any cached product refs
// it reads the registry directly and is safe from any goroutine
func (s *Svc) Confirmed() []domain.ConfirmedCode {
	codes := s.reg.Snapshot().Confirmed
	out := make([]domain.ConfirmedCode, 0, len(codes))
	for _, c := range codes {
		out = append(out, domain.ConfirmedCode{Code: c, Products: s.dispatcher.Products(c)})
	}
	return out
}

// call runs fn on the actor and waits for it
func (s *Svc) call(ctx context.Context, fn func(ctx context.Context)) error {
	m := msgCall{fn: fn, done: make(chan struct{})}
	select {
	case s.inbox <- m:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return perr.Unavailablef("scan controller stopped")
	}
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return perr.Unavailablef("scan controller stopped")
	}
}

// post delivers an internal message, blocking until the actor has room or stops
func (s *Svc) post(m any) {
	select {
	case s.inbox <- m:
	case <-s.stopped:
	}
}

func (s *Svc) onFire(gen uint64) { s.post(msgFire{gen: gen}) }

func (s *Svc) onSaveError(err error) {
	s.emit(context.Background(), domain.Event{Kind: domain.EventWarning, Message: "registry save failed: " + err.Error()})
}

func (s *Svc) emit(ctx context.Context, ev domain.Event) {
	if ev.At.IsZero() {
		ev.At = s.clock.Now()
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("event publish failed")
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

type discard struct{}

func (discard) Publish(context.Context, domain.Event) error { return nil }

var _ Service = (*Svc)(nil)

// hydrate loads the persisted registry; failure leaves it empty and warns
func (s *Svc) hydrate(ctx context.Context) {
	lctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()
	snap, err := s.store.Load(lctx)
	if err != nil {
		s.log.Error().Err(err).Msg("registry load failed, starting empty")
		s.emit(ctx, domain.Event{Kind: domain.EventWarning, Message: "registry load failed: " + err.Error()})
		return
	}
	s.reg.Hydrate(snap)
	confirmed, invalid := s.reg.Counts()
	s.log.Info().Int("confirmed", confirmed).Int("invalid", invalid).Msg("registry loaded")
}

// Run hydrates the registry and serves the inbox until ctx is done
func (s *Svc) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return perr.Conflictf("scan controller already running")
	}
	s.hydrate(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.persister.Run(ctx)
	}()
	if s.auditor != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.auditor.Run(ctx)
		}()
	}

	defer func() {
		s.teardown()
		close(s.stopped)
		wg.Wait()
	}()

	s.log.Info().
		Dur("quiet", s.cfg.Quiet).
		Int("threshold", s.cfg.Threshold).
		Int("inbox", s.cfg.InboxSize).
		Msg("scan controller running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-s.inbox:
			s.handle(ctx, m)
		}
	}
}
