// Package http serves liveness, readiness and engine introspection
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"shelfscan/internal/core/version"
	"shelfscan/internal/modkit/httpkit"
)

const pingTimeout = 2 * time.Second

// Pinger is implemented by the store and bus adapters
type Pinger interface {
	Ping(context.Context) error
}

// Deps wires the meta routes. Backends left nil are reported as skipped,
// backends that cannot Ping as unknown.
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	Redis       any
	NATS        any
	Engine      EngineResponse

	// Session returns the live scan session; false omits it from /engine
	Session func(context.Context) (EngineSession, bool)
}

type meta struct{ Deps }

// Register mounts the meta routes on r
func Register(r httpkit.Router, d Deps) {
	m := meta{d}
	httpkit.Get(r, "/health", m.health)
	httpkit.Get(r, "/ready", m.ready)
	httpkit.Get(r, "/version", func(*http.Request) (any, error) { return version.Info(), nil })
	httpkit.Get(r, "/service", m.service)
	httpkit.Get(r, "/engine", m.engine)
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (m meta) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: m.ServiceName, Started: stamp(m.StartedAt), Now: stamp(time.Now())}, nil
}

func (m meta) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    m.ServiceName,
		Started: stamp(m.StartedAt),
		Uptime:  int64(time.Since(m.StartedAt).Seconds()),
	}, nil
}

func (m meta) engine(r *http.Request) (any, error) {
	out := m.Engine
	out.Build = version.Info()
	if m.Session == nil {
		return out, nil
	}
	if s, ok := m.Session(r.Context()); ok {
		out.Session = &s
	}
	return out, nil
}

func (m meta) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	targets := []struct {
		name string
		dep  any
	}{{"pg", m.PG}, {"ch", m.CH}, {"redis", m.Redis}, {"nats", m.NATS}}

	checks := make([]ReadyCheck, len(targets))
	var wg sync.WaitGroup
	for i, tg := range targets {
		checks[i] = ReadyCheck{Name: tg.name, Status: "skipped"}
		if tg.dep == nil {
			continue
		}
		p, ok := tg.dep.(Pinger)
		if !ok {
			checks[i].Status = "unknown"
			continue
		}
		wg.Go(func() {
			if err := p.Ping(ctx); err != nil {
				checks[i].Status, checks[i].Error = "fail", err.Error()
				return
			}
			checks[i].Status = "ok"
		})
	}
	wg.Wait()

	return ReadyResponse{Status: rollup(checks), Checks: checks, Now: stamp(time.Now())}, nil
}

// rollup ignores skipped backends; they are optional
func rollup(checks []ReadyCheck) string {
	status := "ok"
	for _, c := range checks {
		switch {
		case c.Status == "fail":
			return "fail"
		case c.Status == "unknown":
			status = "degraded"
		}
	}
	return status
}
