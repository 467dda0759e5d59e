// Package events carries scan UI events to in-process subscribers and optional mirrors
package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/platform/logger"
	"shelfscan/internal/services/scan/domain"
)

// DefaultTopic is the in-process topic for UI events
const DefaultTopic = "scan.events"

// DefaultBuffer is the per subscriber output buffer
const DefaultBuffer = 64

// Bus fans UI events out to any number of subscribers over a watermill go channel
//
// Publish never blocks: events are queued and a single pump hands them to the
// pubsub one at a time, waiting for every subscriber to ack, so each subscriber
// sees events in publish order. Events published with no subscriber attached
// are dropped, as are events that overflow the queue.
type Bus struct {
	topic  string
	buffer int
	ps     *gochannel.GoChannel
	log    logger.Logger

	queue chan *message.Message
	done  chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewBus builds an in-process bus and starts its pump, buffer <= 0 means DefaultBuffer
func NewBus(topic string, buffer int) *Bus {
	if topic == "" {
		topic = DefaultTopic
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	lg := logger.Named("events")
	b := &Bus{
		topic:  topic,
		buffer: buffer,
		ps: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            int64(buffer),
				BlockPublishUntilSubscriberAck: true,
			},
			NewLoggerAdapter(lg),
		),
		log:   *lg,
		queue: make(chan *message.Message, buffer*4),
		done:  make(chan struct{}),
	}
	b.wg.Add(1)
	go b.pump()
	return b
}

func (b *Bus) pump() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case msg := <-b.queue:
			if err := b.ps.Publish(b.topic, msg); err != nil {
				b.log.Warn().Err(err).Str("kind", msg.Metadata.Get("kind")).Msg("event publish failed")
			}
		}
	}
}

// Publish implements domain.EventSink
func (b *Bus) Publish(_ context.Context, ev domain.Event) error {
	if b.isClosed() {
		return perr.Unavailablef("event bus closed")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode event %s", ev.Kind)
	}
	msg := message.NewMessage(uuid.NewString(), raw)
	msg.Metadata.Set("kind", string(ev.Kind))

	select {
	case b.queue <- msg:
		return nil
	default:
		return perr.Newf(perr.ErrorCodeTooManyRequests, "event queue full, dropped %s", ev.Kind)
	}
}

// Subscribe implements domain.EventSource
// the returned channel closes when ctx is done or the bus closes
func (b *Bus) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	if b.isClosed() {
		return nil, perr.Unavailablef("event bus closed")
	}

	in, err := b.ps.Subscribe(ctx, b.topic)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "subscribe %s", b.topic)
	}

	out := make(chan domain.Event, b.buffer)
	go func() {
		defer close(out)
		for msg := range in {
			var ev domain.Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.log.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop undecodable event")
				msg.Ack()
				continue
			}
			select {
			case out <- ev:
				msg.Ack()
			case <-ctx.Done():
				msg.Ack()
				return
			}
		}
	}()
	return out, nil
}

// Close stops the pump and closes every subscription
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	err := b.ps.Close()
	b.wg.Wait()
	return err
}

func (b *Bus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
