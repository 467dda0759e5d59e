package store

import (
	"context"
	"errors"
	"time"

	"shelfscan/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the method set *pgxpool.Pool and pgx.Tx share
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// traced runs statements on q and reports each to the tracer
type traced struct {
	q      pgxQuerier
	tracer pg.QueryTracer
	slowMs int
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.q.Exec(ctx, sql, args...)
	t.trace(ctx, sql, len(args), start, err)
	return ct, err
}

// Query traces when the result set opens, not when it is drained
func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.q.Query(ctx, sql, args...)
	t.trace(ctx, sql, len(args), start, err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// QueryRow traces after Scan so the scan error is reported
func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := t.q.QueryRow(ctx, sql, args...)
	return scanHook{r: r, done: func(err error) { t.trace(ctx, sql, len(args), start, err) }}
}

func (t traced) trace(ctx context.Context, sql string, nargs int, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	elapsed := time.Since(start)
	t.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:     sql,
		Args:    nargs,
		Elapsed: elapsed,
		Err:     err,
		Slow:    t.slowMs >= 0 && elapsed >= time.Duration(t.slowMs)*time.Millisecond,
	})
}

type scanHook struct {
	r    pgx.Row
	done func(error)
}

func (s scanHook) Scan(dst ...any) error {
	err := s.r.Scan(dst...)
	s.done(err)
	return err
}

// pgAdapter is the TxRunner over a pool
type pgAdapter struct {
	traced
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{traced: traced{q: p.Pool, tracer: p.Tracer, slowMs: p.SlowMs}, p: p}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Ping(ctx)
}

func (a *pgAdapter) Close() error {
	a.p.Close()
	return nil
}

// Tx commits when fn returns nil and rolls back otherwise
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := runTx(ctx, tx, a.traced, fn); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// runTx runs fn on a traced view of tx, rolling back on error
func runTx(ctx context.Context, tx pgx.Tx, base traced, fn func(q RowQuerier) error) error {
	base.q = tx
	if err := fn(base); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return nil
}
