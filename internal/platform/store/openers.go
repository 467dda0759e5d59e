package store

import (
	"context"
	"fmt"
	"time"

	"shelfscan/internal/platform/logger"
	chx "shelfscan/internal/platform/store/ch"
	"shelfscan/internal/platform/store/nq"
	"shelfscan/internal/platform/store/pg"
	"shelfscan/internal/platform/store/rds"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPGRetries     = 6
	defaultPGPingTimeout = 5 * time.Second
	pgFirstBackoff       = 150 * time.Millisecond
	pgMaxBackoff         = 2 * time.Second
)

// openPG builds the pool and only hands it out once the server answers
func openPG(ctx context.Context, cfg Config, log logger.Logger) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.LogTracer(log)
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		Tracer:   tracer,
	})
	if err != nil {
		return nil, err
	}
	if err := waitPG(ctx, p, cfg.PG); err != nil {
		p.Close()
		return nil, err
	}
	return newPGAdapter(p), nil
}

// waitPG pings until the server answers, doubling the pause between tries
func waitPG(ctx context.Context, p pinger, c PGConfig) error {
	tries := c.ConnectRetries
	if tries <= 0 {
		tries = defaultPGRetries
	}
	timeout := c.PingTimeout
	if timeout <= 0 {
		timeout = defaultPGPingTimeout
	}

	pause := pgFirstBackoff
	var err error
	for i := 1; ; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err = p.Ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i >= tries {
			return fmt.Errorf("postgres ping failed after %d attempts: %w", tries, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
		pause = min(pause*2, pgMaxBackoff)
	}
}

type pinger interface{ Ping(context.Context) error }

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{URL: cfg.CH.URL, Role: cfg.CH.Role, Tag: cfg.AppName})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}

func openRedis(ctx context.Context, cfg Config) (redis.UniversalClient, error) {
	return rds.Open(ctx, rds.Config{
		URL:      cfg.RDS.URL,
		Addr:     cfg.RDS.Addr,
		Password: cfg.RDS.Password,
		DB:       cfg.RDS.DB,
	})
}

func openNATS(cfg Config) (*nats.Conn, error) {
	return nq.Open(nq.Config{URL: cfg.NATS.URL, Name: cfg.AppName})
}
