// Package store opens the optional backends a service runs against
package store

import (
	"context"
	"errors"
	"fmt"

	"shelfscan/internal/platform/logger"
	"shelfscan/internal/platform/store/nq"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Store holds whichever backends were enabled, the rest stay nil
type Store struct {
	Log logger.Logger

	PG    TxRunner
	CH    Clickhouse
	Redis redis.UniversalClient
	NATS  *nats.Conn
}

// Row is a single result row
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports what a write did
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the sql surface repos use
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner is a RowQuerier that can also run fn in a transaction
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the columnar append seam the audit sink writes through
type Clickhouse interface {
	Insert(ctx context.Context, table string, data any) error
	Close() error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }

// Open connects every backend enabled in cfg
// on failure the backends opened so far are closed again
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	fail := func(err error) (*Store, error) {
		_ = s.Close(ctx)
		return nil, err
	}

	if cfg.PG.Enabled {
		p, err := openPG(ctx, cfg, s.Log)
		if err != nil {
			return fail(err)
		}
		s.PG = p
	}
	if cfg.CH.Enabled {
		c, err := openCH(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		s.CH = c
	}
	if cfg.RDS.Enabled {
		r, err := openRedis(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		s.Redis = r
	}
	if cfg.NATS.Enabled {
		n, err := openNATS(cfg)
		if err != nil {
			return fail(err)
		}
		s.NATS = n
	}
	return s, nil
}

type namedPing struct {
	name string
	ping func(context.Context) error
}

// pingers lists the opened backends by name
func (s *Store) pingers() []namedPing {
	var out []namedPing
	if p, ok := s.PG.(Pinger); ok {
		out = append(out, namedPing{"pg", p.Ping})
	}
	if p, ok := s.CH.(Pinger); ok {
		out = append(out, namedPing{"ch", p.Ping})
	}
	if s.Redis != nil {
		out = append(out, namedPing{"redis", func(ctx context.Context) error { return s.Redis.Ping(ctx).Err() }})
	}
	if s.NATS != nil {
		out = append(out, namedPing{"nats", func(context.Context) error { return nq.Ping(s.NATS) }})
	}
	return out
}

// Guard pings every opened backend and joins the failures
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	for _, p := range s.pingers() {
		if err := p.ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close drains NATS and closes the rest, nil backends are skipped
func (s *Store) Close(context.Context) error {
	var errs []error
	if s.NATS != nil {
		if err := s.NATS.Drain(); err != nil {
			s.NATS.Close()
		}
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
