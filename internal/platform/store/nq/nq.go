// Package nq opens a NATS connection
package nq

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Config configures the nats connection
type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// Open connects, retrying in the background if the server is not up yet
func Open(cfg Config) (*nats.Conn, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("nq: empty url")
	}
	maxRe := cfg.MaxReconnects
	if maxRe == 0 {
		maxRe = 5
	}
	wait := cfg.ReconnectWait
	if wait <= 0 {
		wait = 2 * time.Second
	}

	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(maxRe),
		nats.ReconnectWait(wait),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nq: connect: %w", err)
	}
	return nc, nil
}

// Ping reports an error unless the connection is currently usable
func Ping(nc *nats.Conn) error {
	if nc == nil {
		return errors.New("nq: nil connection")
	}
	if st := nc.Status(); st != nats.CONNECTED {
		return fmt.Errorf("nq: status %v", st)
	}
	return nil
}
