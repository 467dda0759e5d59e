package pg

import (
	"context"
	"strings"
	"time"

	"shelfscan/internal/platform/logger"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL     string
	Args    int
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer observes statements run through the store
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// LogTracer logs every statement, slow or failed ones at warn
// argument values are never logged, only their count
func LogTracer(log logger.Logger) QueryTracer {
	return logTracer{log: log.With().Str("component", "pg").Logger()}
}

type logTracer struct{ log logger.Logger }

func (t logTracer) OnQuery(_ context.Context, ev QueryEvent) {
	e := t.log.Info()
	if ev.Slow || ev.Err != nil {
		e = t.log.Warn()
	}
	e.Dur("elapsed", ev.Elapsed).
		Bool("slow", ev.Slow).
		Int("args", ev.Args).
		Str("sql", oneLine(ev.SQL)).
		Err(ev.Err).
		Msg("pg query")
}

func oneLine(sql string) string { return strings.Join(strings.Fields(sql), " ") }
