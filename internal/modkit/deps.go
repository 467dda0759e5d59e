// Package modkit provides module wiring and core deps
package modkit

import (
	"shelfscan/internal/modkit/repokit"
	"shelfscan/internal/platform/config"
	"shelfscan/internal/platform/logger"
	"shelfscan/internal/platform/store"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse

	Redis redis.UniversalClient
	NATS  *nats.Conn
}

// FromStore copies the opened backends of s into d, nil seams stay nil
func (d Deps) FromStore(s *store.Store) Deps {
	if s == nil {
		return d
	}
	d.PG = s.PG
	d.CH = s.CH
	d.Redis = s.Redis
	d.NATS = s.NATS
	return d
}

