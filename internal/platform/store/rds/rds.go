// Package rds opens a go-redis client
package rds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the redis client
// URL wins over Addr when both are set
type Config struct {
	URL         string
	Addr        string
	Password    string
	DB          int
	PingTimeout time.Duration
}

// Options turns Config into redis.Options
func Options(cfg Config) (*redis.Options, error) {
	if u := strings.TrimSpace(cfg.URL); u != "" {
		opt, err := redis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("rds: parse url: %w", err)
		}
		return opt, nil
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("rds: url or addr required")
	}
	return &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}, nil
}

// Open creates the client and pings it once
func Open(ctx context.Context, cfg Config) (*redis.Client, error) {
	opt, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)

	to := cfg.PingTimeout
	if to <= 0 {
		to = 3 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, to)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("rds: ping: %w", err)
	}
	return c, nil
}
