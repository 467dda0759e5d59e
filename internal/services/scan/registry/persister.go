package registry

import (
	"context"
	"time"

	"shelfscan/internal/platform/logger"
	"shelfscan/internal/services/scan/domain"
)

// Persister writes registry snapshots in the background
// it holds at most one pending snapshot; a newer Submit replaces an unsaved older one
type Persister struct {
	store   domain.RegistryStore
	slot    chan domain.RegistrySnapshot
	timeout time.Duration
	onError func(error)
	log     logger.Logger
}

// NewPersister builds a Persister over store, onError may be nil
func NewPersister(store domain.RegistryStore, timeout time.Duration, onError func(error)) *Persister {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Persister{
		store:   store,
		slot:    make(chan domain.RegistrySnapshot, 1),
		timeout: timeout,
		onError: onError,
		log:     *logger.Named("registry"),
	}
}

// Submit queues snap without blocking, replacing any snapshot not yet written
func (p *Persister) Submit(snap domain.RegistrySnapshot) {
	for {
		select {
		case p.slot <- snap:
			return
		default:
		}
		select {
		case <-p.slot:
		default:
		}
	}
}

// Run drains the slot until ctx is done, then writes whatever is still pending
func (p *Persister) Run(ctx context.Context) {
	for {
		select {
		case snap := <-p.slot:
			p.save(ctx, snap)
		case <-ctx.Done():
			select {
			case snap := <-p.slot:
				p.save(context.WithoutCancel(ctx), snap)
			default:
			}
			return
		}
	}
}

func (p *Persister) save(ctx context.Context, snap domain.RegistrySnapshot) {
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.store.Save(sctx, snap); err != nil {
		p.log.Error().Err(err).
			Int("confirmed", len(snap.Confirmed)).
			Int("invalid", len(snap.Invalid)).
			Msg("registry save failed")
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	p.log.Debug().
		Int("confirmed", len(snap.Confirmed)).
		Int("invalid", len(snap.Invalid)).
		Msg("registry saved")
}
