package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/services/scan/domain"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the key the registry document lives under
const DefaultKey = "shelfscan:registry"

// Redis stores the snapshot as one JSON string value
type Redis struct {
	c   redis.Cmdable
	key string
}

// NewRedis returns a Redis store, key defaults to DefaultKey
func NewRedis(c redis.Cmdable, key string) *Redis {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	return &Redis{c: c, key: key}
}

// Load implements domain.RegistryStore, a missing key is an empty registry
func (r *Redis) Load(ctx context.Context) (domain.RegistrySnapshot, error) {
	raw, err := r.c.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RegistrySnapshot{}, nil
	}
	if err != nil {
		return domain.RegistrySnapshot{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "redis get %s", r.key)
	}
	return decode(raw)
}

// Save implements domain.RegistryStore
func (r *Redis) Save(ctx context.Context, snap domain.RegistrySnapshot) error {
	raw, err := encode(snap)
	if err != nil {
		return err
	}
	if err := r.c.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "redis set %s", r.key)
	}
	return nil
}

func encode(snap domain.RegistrySnapshot) ([]byte, error) {
	if snap.Confirmed == nil {
		snap.Confirmed = []string{}
	}
	if snap.Invalid == nil {
		snap.Invalid = []string{}
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "encode registry")
	}
	return b, nil
}

func decode(raw []byte) (domain.RegistrySnapshot, error) {
	var snap domain.RegistrySnapshot
	if len(raw) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.RegistrySnapshot{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode registry")
	}
	return snap, nil
}
