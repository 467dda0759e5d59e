package events

import (
	"context"
	"errors"

	"shelfscan/internal/services/scan/domain"
)

// Fanout publishes to every sink and joins their errors
// a failing sink never stops the others
type Fanout []domain.EventSink

// NewFanout drops nil sinks
func NewFanout(sinks ...domain.EventSink) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s == nil || isNilMirror(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Publish implements domain.EventSink
func (f Fanout) Publish(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isNilMirror(s domain.EventSink) bool {
	m, ok := s.(*NATSMirror)
	return ok && m == nil
}
