package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/services/scan/domain"
)

// DefaultSubjectPrefix prefixes mirrored subjects, e.g. shelfscan.events.confirmed
const DefaultSubjectPrefix = "shelfscan.events"

// NATSPublisher is the subset of *nats.Conn the mirror needs
type NATSPublisher interface {
	Publish(subj string, data []byte) error
}

// NATSMirror republishes UI events on a NATS subject per event kind
type NATSMirror struct {
	pub    NATSPublisher
	prefix string
}

// NewNATSMirror returns nil when nc is nil so callers can skip the mirror
func NewNATSMirror(nc *nats.Conn, prefix string) *NATSMirror {
	if nc == nil {
		return nil
	}
	return newNATSMirror(nc, prefix)
}

func newNATSMirror(pub NATSPublisher, prefix string) *NATSMirror {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSMirror{pub: pub, prefix: prefix}
}

// Subject returns the subject an event kind is mirrored on
func (m *NATSMirror) Subject(kind domain.EventKind) string {
	return m.prefix + "." + string(kind)
}

// Publish implements domain.EventSink
func (m *NATSMirror) Publish(_ context.Context, ev domain.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode event %s", ev.Kind)
	}
	if err := m.pub.Publish(m.Subject(ev.Kind), raw); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "nats publish %s", ev.Kind)
	}
	return nil
}
