package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shelfscan/internal/core/consensus"
	"shelfscan/internal/platform/logger"
	"shelfscan/internal/services/scan/domain"
)

func (s *Svc) handle(ctx context.Context, m any) {
	switch m := m.(type) {
	case msgDetections:
		s.onDetections(m.codes)
	case msgFire:
		s.onEvaluate(ctx, m.gen)
	case msgResolved:
		s.onResolved(ctx, m)
	case msgCall:
		m.fn(ctx)
		close(m.done)
	}
}

// onDetections records accepted codes and restarts the quiet period
// detections are dropped while no session is open or a burst is being judged
func (s *Svc) onDetections(codes []string) {
	ss := &s.sess
	if !ss.active {
		return
	}
	if ss.state != domain.StateIdle && ss.state != domain.StateAccumulating {
		return
	}
	accepted := 0
	for _, c := range codes {
		if s.reg.Known(c) {
			continue
		}
		ss.tally.Record(c)
		accepted++
	}
	if accepted == 0 {
		return
	}
	ss.state = domain.StateAccumulating
	s.deb.Kick()
}

func (s *Svc) onEvaluate(ctx context.Context, gen uint64) {
	ss := &s.sess
	if !s.deb.Current(gen) || ss.state != domain.StateAccumulating {
		return
	}
	ss.state = domain.StateEvaluating

	d := consensus.Evaluate(ss.tally.Snapshot(), s.reg.IsInvalid, s.cfg.Threshold)
	ss.tally.Clear()
	s.audit("evaluate", d.Kind.String(), d.Code, d.Count, "")

	s.log.Debug().
		Str("session", ss.id).
		Str("decision", d.Kind.String()).
		Str("code", d.Code).
		Int("count", d.Count).
		Msg("burst evaluated")

	switch d.Kind {
	case consensus.NoEvidence:
		ss.state = domain.StateIdle
		s.emit(ctx, domain.Event{Kind: domain.EventNoEvidence, SessionID: ss.id})
	case consensus.InsufficientEvidence:
		ss.state = domain.StateIdle
		s.emit(ctx, domain.Event{Kind: domain.EventInsufficient, Code: d.Code, Count: d.Count, SessionID: ss.id})
	case consensus.Promote:
		s.dispatch(ctx, d.Code)
	}
}

// dispatch starts resolution of a promoted code
// the registry check runs here, on the actor, so a code is never in flight twice
func (s *Svc) dispatch(ctx context.Context, code string) {
	ss := &s.sess
	if s.reg.IsConfirmed(code) {
		s.finish(ctx, domain.Outcome{Kind: domain.OutcomeAlreadyConfirmed, Code: code})
		return
	}

	ss.state = domain.StateAwaitingResolution
	ss.pending = code
	epoch := ss.epoch

	lctx, cancel := context.WithTimeout(logger.WithRequest(ctx, "", ss.id), s.cfg.LookupTimeout)
	ss.cancel = cancel
	go func() {
		out := s.dispatcher.Lookup(lctx, code)
		s.post(msgResolved{epoch: epoch, out: out})
	}()
}

func (s *Svc) onResolved(ctx context.Context, m msgResolved) {
	ss := &s.sess
	if m.epoch != ss.epoch || ss.state != domain.StateAwaitingResolution || m.out.Code != ss.pending {
		s.log.Debug().Str("code", m.out.Code).Str("outcome", string(m.out.Kind)).Msg("stale resolution discarded")
		return
	}
	s.cancelLookup()
	s.dispatcher.Apply(m.out)
	s.finish(ctx, m.out)
}

func (s *Svc) finish(ctx context.Context, out domain.Outcome) {
	ss := &s.sess
	ss.state = domain.StateIdle
	ss.pending = ""
	s.audit("resolve", string(out.Kind), out.Code, 0, out.Reason)

	ev := domain.Event{Code: out.Code, SessionID: ss.id}
	switch out.Kind {
	case domain.OutcomeConfirmed:
		ev.Kind = domain.EventConfirmed
	case domain.OutcomeAlreadyConfirmed:
		ev.Kind = domain.EventConfirmed
		ev.Message = "already confirmed"
	case domain.OutcomeInvalid:
		ev.Kind = domain.EventInvalid
		ev.Message = out.Reason
	case domain.OutcomeTransient:
		ev.Kind = domain.EventRetry
		ev.Message = out.Reason
	}
	s.log.Info().Str("session", ss.id).Str("code", out.Code).Str("outcome", string(out.Kind)).Msg("code resolved")
	s.emit(ctx, ev)
}

func (s *Svc) start(ctx context.Context) {
	ss := &s.sess
	if ss.active {
		return
	}
	s.clear()
	ss.active = true
	ss.id = uuid.NewString()
	ss.startedAt = s.clock.Now()
	s.log.Info().Str("session", ss.id).Msg("session started")
	s.emit(ctx, domain.Event{Kind: domain.EventSession, SessionID: ss.id, Message: "started"})
}

func (s *Svc) stop(ctx context.Context) {
	ss := &s.sess
	if !ss.active {
		return
	}
	id := ss.id
	s.clear()
	ss.active = false
	ss.id = ""
	ss.startedAt = time.Time{}
	s.log.Info().Str("session", id).Msg("session stopped")
	s.emit(ctx, domain.Event{Kind: domain.EventSession, SessionID: id, Message: "stopped"})
}

func (s *Svc) reset(ctx context.Context) {
	ss := &s.sess
	if !ss.active {
		return
	}
	s.clear()
	s.log.Info().Str("session", ss.id).Msg("session reset")
	s.emit(ctx, domain.Event{Kind: domain.EventSession, SessionID: ss.id, Message: "reset"})
}

// clear returns the session to Idle without touching the registry
func (s *Svc) clear() {
	ss := &s.sess
	s.deb.Cancel()
	ss.tally.Clear()
	s.cancelLookup()
	ss.pending = ""
	ss.state = domain.StateIdle
	ss.epoch++
}

func (s *Svc) teardown() {
	s.deb.Cancel()
	s.cancelLookup()
}

func (s *Svc) cancelLookup() {
	if s.sess.cancel != nil {
		s.sess.cancel()
		s.sess.cancel = nil
	}
}

func (s *Svc) info() domain.SessionInfo {
	ss := &s.sess
	confirmed, invalid := s.reg.Counts()
	info := domain.SessionInfo{
		ID:        ss.id,
		Active:    ss.active,
		State:     ss.state,
		Tallied:   ss.tally.Total(),
		Pending:   ss.pending,
		Confirmed: confirmed,
		Invalid:   invalid,
		Threshold: s.cfg.Threshold,
		QuietMs:   s.cfg.Quiet.Milliseconds(),
	}
	if ss.active {
		info.StartedAt = ss.startedAt
	}
	return info
}

func (s *Svc) audit(stage, verdict, code string, count int, reason string) {
	s.auditor.Add(domain.AuditRow{
		At:        s.clock.Now(),
		SessionID: s.sess.id,
		Stage:     stage,
		Verdict:   verdict,
		Code:      code,
		Count:     count,
		Reason:    reason,
	})
}
