// Package module wires scan sessions into the API using modkit
package module

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"shelfscan/internal/adapters/capture/linefeed"
	"shelfscan/internal/adapters/events"
	"shelfscan/internal/adapters/lookup/products"
	modkit "shelfscan/internal/modkit"
	"shelfscan/internal/modkit/httpkit"
	"shelfscan/internal/modkit/repokit"
	"shelfscan/internal/platform/logger"

	"shelfscan/internal/services/scan/domain"
	shttp "shelfscan/internal/services/scan/http"
	"shelfscan/internal/services/scan/repo"
	ssvc "shelfscan/internal/services/scan/service"
)

// Module implements the scan API module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string
	opts   Options

	mws      []func(http.Handler) http.Handler
	register func(httpkit.Router)

	backend string
	svc     *ssvc.Svc
	bus     *events.Bus
	schema  func(context.Context) error
	capture *linefeed.Listener
}

// Ports lets callers override collaborators, mostly for tests
type Ports struct {
	Store  domain.RegistryStore
	Lookup domain.ProductLookup
}

// New constructs the scan module, o usually comes from FromConfig
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("scan"),
		modkit.WithPrefix("/scan"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		opts:   o,
		mws:    b.Mw,
	}

	store := injected.Store
	m.backend = "injected"
	if store == nil {
		store = m.registryStore()
	}
	lookup := injected.Lookup
	if lookup == nil {
		lookup = products.NewClient(products.Options{
			BaseURL:    o.LookupBaseURL,
			Token:      o.LookupToken,
			Timeout:    o.LookupTimeoutReq,
			MaxRetries: o.LookupRetries,
			RetryBase:  o.LookupRetryBase,
		})
	}

	m.bus = events.NewBus(events.DefaultTopic, 0)
	var mirror *events.NATSMirror
	if o.NATSMirror {
		mirror = events.NewNATSMirror(deps.NATS, o.NATSSubject)
	}
	sink := events.NewFanout(m.bus, mirror)

	var audit domain.AuditSink
	if o.Audit && deps.CH != nil {
		audit = repo.NewAuditCH(deps.CH, o.AuditTable)
	}

	m.svc = ssvc.New(ssvc.Config{
		Quiet:         o.Quiet,
		Threshold:     o.Threshold,
		InboxSize:     o.InboxSize,
		LookupTimeout: o.LookupTimeout,
		ProductTTL:    o.ProductTTL,
	}, ssvc.Ports{
		Store:  store,
		Lookup: lookup,
		Events: sink,
		Audit:  audit,
	})

	if o.CaptureAddr != "" {
		m.capture = linefeed.New(o.CaptureAddr, m.svc)
	}

	m.register = func(r httpkit.Router) { shttp.Register(r, m.svc, m.bus) }
	return m
}

// registryStore picks the persistent backend, falling back to memory when the
// configured backend is not connected
func (m *Module) registryStore() domain.RegistryStore {
	log := logger.Named("scan")
	switch strings.ToLower(m.opts.Backend) {
	case BackendRedis:
		if m.deps.Redis != nil {
			m.backend = BackendRedis
			return repo.NewRedis(m.deps.Redis, m.opts.RegistryKey)
		}
		log.Warn().Msg("registry backend redis not connected, using memory")
	case BackendPG:
		if m.deps.PG != nil {
			s := repokit.MustBind(repo.NewPG(m.opts.RegistryKey), m.deps.PG)
			m.schema = s.EnsureSchema
			m.backend = BackendPG
			return s
		}
		log.Warn().Msg("registry backend pg not connected, using memory")
	}
	m.backend = BackendMemory
	return repo.NewMemory(domain.RegistrySnapshot{})
}

// Backend names the registry store in use, "injected" when a test supplied one
func (m *Module) Backend() string { return m.backend }

// Run prepares storage and runs the controller, plus the capture listener when configured
// it returns when ctx is done
func (m *Module) Run(ctx context.Context) error {
	defer func() { _ = m.bus.Close() }()

	if m.schema != nil {
		if err := m.schema(ctx); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	if m.capture != nil {
		if err := m.capture.Listen(); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.capture.Serve(ctx); err != nil {
				logger.Named("scan").Error().Err(err).Msg("capture listener stopped")
			}
		}()
	}

	err := m.svc.Run(ctx)
	wg.Wait()
	return err
}

// Service returns the session controller
func (m *Module) Service() ssvc.Service { return m.svc }

// Events returns the UI event source
func (m *Module) Events() domain.EventSource { return m.bus }

// Ports returns the session controller port for cross-module wiring
func (m *Module) Ports() any { return domain.ServicePort(m.svc) }

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		m.register(rr)
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }
