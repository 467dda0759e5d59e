// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"context"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	modkit "shelfscan/internal/modkit"
	"shelfscan/internal/modkit/httpkit"
	"shelfscan/internal/modkit/module"
	"shelfscan/internal/platform/store/nq"

	metahttp "shelfscan/internal/services/api/meta/http"
	"shelfscan/internal/services/scan/domain"
)

// ServiceName is reported by health and service endpoints
const ServiceName = "shelfscan-api"

// sessionTimeout bounds the wait on the scan controller for /engine
const sessionTimeout = time.Second

// Ports carries optional values other modules hand to meta
type Ports struct {
	Engine metahttp.EngineResponse
}

// Module implements the modkit.Module interface
type Module struct {
	name      string
	prefix    string
	mws       []func(http.Handler) http.Handler
	register  func(httpkit.Router)
	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}

	m := &Module{
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		startedAt: time.Now(),
	}
	m.register = func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: ServiceName,
			StartedAt:   m.startedAt,
			PG:          deps.PG,
			CH:          deps.CH,
			Redis:       redisPinger(deps.Redis),
			NATS:        natsPinger(deps.NATS),
			Engine:      injected.Engine,
			Session:     scanSession,
		})
	}
	return m
}

// scanSession asks the registered scan module for its session
// the lookup is lazy so module registration order does not matter
func scanSession(ctx context.Context) (metahttp.EngineSession, bool) {
	p, ok := module.PortsAs[domain.ServicePort]("scan")
	if !ok || p == nil {
		return metahttp.EngineSession{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, sessionTimeout)
	defer cancel()

	info, err := p.Snapshot(ctx)
	if err != nil {
		return metahttp.EngineSession{}, false
	}
	return metahttp.EngineSession{
		Active:    info.Active,
		State:     string(info.State),
		Tallied:   info.Tallied,
		Confirmed: info.Confirmed,
	}, true
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		m.register(rr)
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func redisPinger(c redis.UniversalClient) any {
	if c == nil {
		return nil
	}
	return pingFunc(func(ctx context.Context) error { return c.Ping(ctx).Err() })
}

func natsPinger(nc *nats.Conn) any {
	if nc == nil {
		return nil
	}
	return pingFunc(func(context.Context) error { return nq.Ping(nc) })
}
