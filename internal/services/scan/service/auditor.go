package service

import (
	"context"
	"time"

	"shelfscan/internal/platform/logger"
	"shelfscan/internal/services/scan/domain"
)

const (
	defaultAuditBatch = 256
	defaultAuditFlush = 2 * time.Second
	auditWriteTimeout = 10 * time.Second
)

// Auditor batches audit rows and writes them off the hot path
// rows that do not fit the buffer are dropped
type Auditor struct {
	sink  domain.AuditSink
	rows  chan domain.AuditRow
	batch int
	every time.Duration
	log   logger.Logger
}

// NewAuditor returns nil when sink is nil; a nil Auditor ignores rows
func NewAuditor(sink domain.AuditSink, batch int, every time.Duration) *Auditor {
	if sink == nil {
		return nil
	}
	if batch <= 0 {
		batch = defaultAuditBatch
	}
	if every <= 0 {
		every = defaultAuditFlush
	}
	return &Auditor{
		sink:  sink,
		rows:  make(chan domain.AuditRow, batch*4),
		batch: batch,
		every: every,
		log:   *logger.Named("audit"),
	}
}

// Add queues a row without blocking
func (a *Auditor) Add(row domain.AuditRow) {
	if a == nil {
		return
	}
	select {
	case a.rows <- row:
	default:
		a.log.Warn().Str("stage", row.Stage).Str("code", row.Code).Msg("audit buffer full, row dropped")
	}
}

// Run flushes on size or interval until ctx is done, then flushes what is left
func (a *Auditor) Run(ctx context.Context) {
	t := time.NewTicker(a.every)
	defer t.Stop()

	buf := make([]domain.AuditRow, 0, a.batch)
	flush := func(base context.Context) {
		if len(buf) == 0 {
			return
		}
		wctx, cancel := context.WithTimeout(base, auditWriteTimeout)
		defer cancel()
		if err := a.sink.Record(wctx, buf); err != nil {
			a.log.Error().Err(err).Int("rows", len(buf)).Msg("audit write failed")
		}
		buf = buf[:0]
	}

	for {
		select {
		case row := <-a.rows:
			buf = append(buf, row)
			if len(buf) >= a.batch {
				flush(ctx)
			}
		case <-t.C:
			flush(ctx)
		case <-ctx.Done():
		drain:
			for {
				select {
				case row := <-a.rows:
					buf = append(buf, row)
				default:
					break drain
				}
			}
			flush(context.WithoutCancel(ctx))
			return
		}
	}
}
